package alembic

import (
	"fmt"
	"reflect"
)

// TypeOf returns the reflect.Type for T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// KeyOf returns the registration key string for T, optionally qualified by a
// name. Use it with WithDependencies and Inspect.
//
// Example:
//
//	c.Register(TypeOf[*Server](), factory,
//	    WithDependencies(KeyOf[*Database](), KeyOf[Logger]("audit")))
func KeyOf[T any](name ...string) string {
	key := typeKey{typ: TypeOf[T]()}
	if len(name) > 0 {
		key.name = name[0]
	}

	return key.String()
}

// Resolve resolves a service by type with type safety.
func Resolve[T any](c Container) (T, error) {
	var zero T

	instance, err := c.ResolveType(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ErrTypeMismatch(TypeOf[T]().String(), instance)
	}

	return typed, nil
}

// MustResolve resolves or panics - use only during startup.
func MustResolve[T any](c Container) T {
	instance, err := Resolve[T](c)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", TypeOf[T](), err))
	}

	return instance
}

// ResolveNamed resolves a named registration of the given type.
// Use this when you have multiple implementations of the same type.
//
// Example:
//
//	primaryDB, err := ResolveNamed[*Database](c, "primary")
//	replicaDB, err := ResolveNamed[*Database](c, "replica")
func ResolveNamed[T any](c Container, name string) (T, error) {
	var zero T

	instance, err := c.ResolveNamed(TypeOf[T](), name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ErrTypeMismatch(typeKey{typ: TypeOf[T](), name: name}.String(), instance)
	}

	return typed, nil
}

// MustResolveNamed resolves a named registration or panics.
func MustResolveNamed[T any](c Container, name string) T {
	instance, err := ResolveNamed[T](c, name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", typeKey{typ: TypeOf[T](), name: name}, err))
	}

	return instance
}

// ResolveAll resolves every registration of T, in registration order.
// Returns an empty slice when nothing is registered.
func ResolveAll[T any](c Container) ([]T, error) {
	instance, err := c.ResolveType(reflect.SliceOf(TypeOf[T]()))
	if err != nil {
		return nil, err
	}

	typed, ok := instance.([]T)
	if !ok {
		return nil, ErrTypeMismatch(reflect.SliceOf(TypeOf[T]()).String(), instance)
	}

	return typed, nil
}

// ResolveScoped resolves a service by type from a scope.
func ResolveScoped[T any](s Scope) (T, error) {
	var zero T

	instance, err := s.ResolveType(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ErrTypeMismatch(TypeOf[T]().String(), instance)
	}

	return typed, nil
}

// MustResolveScoped resolves from a scope or panics.
func MustResolveScoped[T any](s Scope) T {
	instance, err := ResolveScoped[T](s)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s from scope: %v", TypeOf[T](), err))
	}

	return instance
}

// Has reports whether an unnamed registration of T exists.
func Has[T any](c Container) bool {
	return c.Has(TypeOf[T]())
}

// HasNamed reports whether a named registration of T exists.
func HasNamed[T any](c Container, name string) bool {
	return c.HasNamed(TypeOf[T](), name)
}

// RegisterValue registers a pre-built instance (always singleton).
func RegisterValue[T any](c Container, instance T, opts ...RegisterOption) error {
	return c.Register(TypeOf[T](), func(r Resolver) (any, error) {
		return instance, nil
	}, append(opts, Singleton())...)
}

// RegisterSingleton is a convenience wrapper for singleton services.
func RegisterSingleton[T any](c Container, factory func(Resolver) (T, error), opts ...RegisterOption) error {
	return registerTyped(c, factory, append(opts, Singleton()))
}

// RegisterTransient is a convenience wrapper for transient services.
func RegisterTransient[T any](c Container, factory func(Resolver) (T, error), opts ...RegisterOption) error {
	return registerTyped(c, factory, append(opts, Transient()))
}

// RegisterScoped is a convenience wrapper for scoped services.
func RegisterScoped[T any](c Container, factory func(Resolver) (T, error), opts ...RegisterOption) error {
	return registerTyped(c, factory, append(opts, Scoped()))
}

// registerTyped wraps a typed factory in an untyped factory.
func registerTyped[T any](c Container, factory func(Resolver) (T, error), opts []RegisterOption) error {
	if factory == nil {
		return ErrInvalidFactory
	}

	return c.Register(TypeOf[T](), func(r Resolver) (any, error) {
		return factory(r)
	}, opts...)
}
