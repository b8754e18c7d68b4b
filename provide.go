package alembic

import (
	"errors"
	"fmt"
	"reflect"
)

// ConstructorOption configures how a constructor is registered
type ConstructorOption interface {
	applyConstructor(*constructorConfig)
}

// constructorConfig holds configuration for constructor registration
type constructorConfig struct {
	name      string         // Optional name for disambiguation
	aliases   []string       // Additional names to register under
	group     string         // Add to a value group
	asTypes   []reflect.Type // Register as additional interface types
	lifecycle string         // Service lifecycle (default: "singleton")
}

// constructorOptionFunc is a function adapter for ConstructorOption
type constructorOptionFunc func(*constructorConfig)

func (f constructorOptionFunc) applyConstructor(c *constructorConfig) { f(c) }

// WithName gives the constructor result a name for disambiguation.
// Use this when you have multiple implementations of the same type.
//
// Example:
//
//	ProvideConstructor(c, NewPrimaryDB, WithName("primary"))
//	ProvideConstructor(c, NewReplicaDB, WithName("replica"))
func WithName(name string) ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		c.name = name
	})
}

// WithAliases registers the constructor result under additional names.
// Aliases share the same registration, so singleton instances are shared.
// Use empty string ("") as an alias to also register without a name.
func WithAliases(names ...string) ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		c.aliases = append(c.aliases, names...)
	})
}

// AsGroup adds the constructor result to a value group.
// Services in the same group can be resolved together as a slice.
//
// Example:
//
//	ProvideConstructor(c, NewUserHandler, AsGroup("handlers"))
//	ProvideConstructor(c, NewProductHandler, AsGroup("handlers"))
//	handlers, err := ResolveGroup[Handler](c, "handlers") // Returns []Handler
func AsGroup(group string) ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		c.group = group
	})
}

// As registers the constructor result as additional interface types.
// This enables resolving the service by its interface types.
//
// Example:
//
//	ProvideConstructor(c, NewMyService, As(new(Reader), new(Writer)))
func As(ifaces ...any) ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		for _, iface := range ifaces {
			t := reflect.TypeOf(iface)
			if t.Kind() == reflect.Ptr {
				t = t.Elem()
			}
			c.asTypes = append(c.asTypes, t)
		}
	})
}

// AsSingleton makes the constructor result a singleton (default).
func AsSingleton() ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		c.lifecycle = LifetimeSingleton
	})
}

// AsTransient makes the constructor create a new instance on each resolve.
func AsTransient() ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		c.lifecycle = LifetimeTransient
	})
}

// AsScoped makes the constructor result scoped to a lifetime scope.
func AsScoped() ConstructorOption {
	return constructorOptionFunc(func(c *constructorConfig) {
		c.lifecycle = LifetimeScoped
	})
}

// ProvideConstructor registers a constructor function with automatic
// dependency resolution. Dependencies are inferred from function parameters
// and the first return type is registered as the provided service.
//
// Parameters are resolved through the full resolution pipeline, so
// dependencies can be satisfied by direct registrations, groups, or any
// attached registration source.
//
// Example:
//
//	// Simple constructor
//	func NewUserService(db *Database, logger *Logger) *UserService {
//	    return &UserService{db: db, logger: logger}
//	}
//	ProvideConstructor(c, NewUserService)
//
//	// Constructor with error
//	func NewDatabase(config *Config) (*Database, error) {
//	    return sql.Open(config.Driver, config.DSN)
//	}
//	ProvideConstructor(c, NewDatabase)
//
//	// Using In struct for many dependencies
//	type ServiceParams struct {
//	    alembic.In
//	    DB     *Database
//	    Logger *Logger `optional:"true"`
//	}
//	func NewService(p ServiceParams) *Service {
//	    return &Service{db: p.DB, logger: p.Logger}
//	}
//	ProvideConstructor(c, NewService)
func ProvideConstructor(c Container, constructor any, opts ...ConstructorOption) error {
	info, err := analyzeConstructor(constructor)
	if err != nil {
		return fmt.Errorf("invalid constructor: %w", err)
	}

	config := &constructorConfig{
		lifecycle: LifetimeSingleton, // Default to singleton like dig
	}
	for _, opt := range opts {
		opt.applyConstructor(config)
	}

	impl, ok := c.(*containerImpl)
	if !ok {
		return fmt.Errorf("ProvideConstructor requires *containerImpl, got %T", c)
	}

	factory := autoResolveFactory(info, impl)

	var groups []string
	if config.group != "" {
		groups = append(groups, config.group)
	}

	deps := info.depKeys()

	reg := &registration{
		key:          typeKey{typ: info.result, name: config.name},
		factory:      factory,
		lifecycle:    config.lifecycle,
		groups:       groups,
		metadata:     make(map[string]string),
		dependencies: deps,
	}

	if err := impl.registry.register(reg); err != nil {
		return err
	}

	impl.graph.AddNode(reg.key.String(), deps)

	// Register as additional interface types, sharing the registration so
	// singleton instances are shared across all keys.
	for _, asType := range config.asTypes {
		if err := impl.registry.alias(typeKey{typ: asType, name: config.name}, reg); err != nil {
			return err
		}
	}

	// Register under additional name aliases
	for _, alias := range config.aliases {
		if err := impl.registry.alias(typeKey{typ: info.result, name: alias}, reg); err != nil {
			return fmt.Errorf("failed to register alias %q: %w", alias, err)
		}

		for _, asType := range config.asTypes {
			if err := impl.registry.alias(typeKey{typ: asType, name: alias}, reg); err != nil {
				return fmt.Errorf("failed to register alias %q for type %s: %w", alias, asType, err)
			}
		}
	}

	return nil
}

// autoResolveFactory creates a factory that resolves constructor parameters
// through the resolution pipeline of the activating resolver.
func autoResolveFactory(info *constructorInfo, impl *containerImpl) Factory {
	return func(r Resolver) (any, error) {
		args := make([]reflect.Value, len(info.params))

		for i, param := range info.params {
			if param.isIn {
				inValue, err := resolveInStruct(param, impl, r)
				if err != nil {
					return nil, err
				}
				args[i] = inValue

				continue
			}

			value, err := resolveParamValue(param, impl, r)
			if err != nil {
				return nil, err
			}
			args[i] = value
		}

		results := info.fn.Call(args)

		if info.hasError {
			if errResult := results[1]; !errResult.IsNil() {
				return nil, errResult.Interface().(error)
			}
		}

		return results[0].Interface(), nil
	}
}

// resolveInStruct creates and populates an In struct with resolved dependencies
func resolveInStruct(param paramInfo, impl *containerImpl, r Resolver) (reflect.Value, error) {
	structType := param.typ
	isPtr := structType.Kind() == reflect.Ptr
	if isPtr {
		structType = structType.Elem()
	}

	structValue := reflect.New(structType).Elem()

	for _, field := range param.inFields {
		value, err := resolveParamValue(field, impl, r)
		if err != nil {
			return reflect.Value{}, err
		}

		structValue.Field(field.index).Set(value)
	}

	if isPtr {
		ptrValue := reflect.New(structType)
		ptrValue.Elem().Set(structValue)

		return ptrValue, nil
	}

	return structValue, nil
}

// resolveParamValue resolves a single dependency, honoring group and
// optional tags. Optional dependencies resolve to their zero value when no
// registration or source can satisfy them.
func resolveParamValue(param paramInfo, impl *containerImpl, r Resolver) (reflect.Value, error) {
	if param.group {
		return resolveGroupValue(param, impl, r)
	}

	instance, err := impl.resolveKey(typeKey{typ: param.typ, name: param.name}, r)
	if err != nil {
		if param.optional && errors.Is(err, ErrServiceNotFoundSentinel) {
			return reflect.Zero(param.typ), nil
		}

		return reflect.Value{}, err
	}

	if instance == nil {
		return reflect.Zero(param.typ), nil
	}

	return reflect.ValueOf(instance), nil
}

// resolveGroupValue resolves all services in a group as a slice.
func resolveGroupValue(param paramInfo, impl *containerImpl, r Resolver) (reflect.Value, error) {
	regs := impl.registry.group(param.groupKey)
	if len(regs) == 0 {
		if param.optional {
			return reflect.Zero(param.typ), nil
		}

		return reflect.Value{}, ErrServiceNotFound(fmt.Sprintf("group '%s'", param.groupKey))
	}

	sliceValue := reflect.MakeSlice(param.typ, 0, len(regs))

	for _, reg := range regs {
		instance, err := impl.activate(reg, r)
		if err != nil {
			return reflect.Value{}, err
		}

		sliceValue = reflect.Append(sliceValue, reflect.ValueOf(instance))
	}

	return sliceValue, nil
}

// ResolveGroup resolves all services in a group as a slice.
//
// Example:
//
//	handlers, err := ResolveGroup[Handler](c, "http")
func ResolveGroup[T any](c Container, group string) ([]T, error) {
	impl, ok := c.(*containerImpl)
	if !ok {
		return nil, fmt.Errorf("ResolveGroup requires *containerImpl, got %T", c)
	}

	regs := impl.registry.group(group)
	if len(regs) == 0 {
		return nil, nil // Empty slice for empty groups
	}

	result := make([]T, 0, len(regs))
	for _, reg := range regs {
		instance, err := impl.activate(reg, impl)
		if err != nil {
			return nil, err
		}

		typed, ok := instance.(T)
		if !ok {
			return nil, ErrTypeMismatch(fmt.Sprintf("group '%s'", group), instance)
		}
		result = append(result, typed)
	}

	return result, nil
}
