package alembic

import "reflect"

// Binding holds configuration for a service to be registered in a batch.
type Binding struct {
	Type    reflect.Type
	Factory Factory
	Options []RegisterOption
}

// Bind creates a Binding for batch registration.
//
// Example:
//
//	alembic.RegisterBindings(c,
//	    alembic.Bind[*Database](NewDatabase, alembic.Singleton()),
//	    alembic.Bind[*Cache](NewCache, alembic.Scoped()),
//	)
func Bind[T any](factory func(Resolver) (T, error), opts ...RegisterOption) Binding {
	return Binding{
		Type: TypeOf[T](),
		Factory: func(r Resolver) (any, error) {
			return factory(r)
		},
		Options: opts,
	}
}

// RegisterBindings registers multiple services in a single call.
// Returns error if any registration fails.
func RegisterBindings(c Container, bindings ...Binding) error {
	for _, b := range bindings {
		if err := c.Register(b.Type, b.Factory, b.Options...); err != nil {
			return err
		}
	}

	return nil
}
