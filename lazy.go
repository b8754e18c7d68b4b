package alembic

import (
	"fmt"
	"sync"
)

// Lazy wraps a dependency that is resolved on first access.
// This is useful for breaking circular dependencies or deferring
// resolution of expensive services until they're actually needed.
type Lazy[T any] struct {
	resolver Resolver
	once     sync.Once
	value    T
	err      error
	resolved bool
}

// NewLazy creates a new lazy dependency wrapper.
func NewLazy[T any](r Resolver) *Lazy[T] {
	return &Lazy[T]{resolver: r}
}

// Get resolves the dependency and returns it.
// The resolution happens only once; subsequent calls return the cached value.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		instance, err := l.resolver.ResolveType(TypeOf[T]())
		if err != nil {
			l.err = err

			return
		}

		typed, ok := instance.(T)
		if !ok {
			l.err = ErrTypeMismatch(TypeOf[T]().String(), instance)

			return
		}

		l.value = typed
		l.resolved = true
	})

	return l.value, l.err
}

// MustGet resolves the dependency and returns it, panicking on error.
func (l *Lazy[T]) MustGet() T {
	value, err := l.Get()
	if err != nil {
		panic(fmt.Sprintf("lazy dependency %s failed: %v", TypeOf[T](), err))
	}

	return value
}

// IsResolved returns true if the dependency has been resolved.
func (l *Lazy[T]) IsResolved() bool {
	return l.resolved
}

// Provider wraps a dependency that is resolved on each access.
// This is useful for transient dependencies where a fresh instance is
// needed each time.
type Provider[T any] struct {
	resolver Resolver
}

// NewProvider creates a new provider for transient dependencies.
func NewProvider[T any](r Resolver) *Provider[T] {
	return &Provider[T]{resolver: r}
}

// Provide resolves and returns an instance of the dependency.
// Each call may return a different instance (if the service is transient).
func (p *Provider[T]) Provide() (T, error) {
	var zero T

	instance, err := p.resolver.ResolveType(TypeOf[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, ErrTypeMismatch(TypeOf[T]().String(), instance)
	}

	return typed, nil
}

// MustProvide resolves and returns an instance, panicking on error.
func (p *Provider[T]) MustProvide() T {
	value, err := p.Provide()
	if err != nil {
		panic(fmt.Sprintf("provider %s failed: %v", TypeOf[T](), err))
	}

	return value
}
