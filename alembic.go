// Package alembic provides type-keyed dependency injection with lifecycle
// management and a pluggable resolution pipeline. Services are registered
// against their Go type (optionally qualified by a name) and resolved either
// directly, through constructor injection, or - when no registration exists -
// through registration sources attached to the container.
package alembic

import (
	"context"
	"reflect"

	"go.uber.org/zap"
)

// Factory creates a service instance. The Resolver it receives is the scope
// performing the activation, so nested dependencies resolve with the same
// lifetime boundary as the service being built.
type Factory func(r Resolver) (any, error)

// Resolver re-enters resolution for another service. Both the container and
// its scopes implement it.
type Resolver interface {
	// ResolveType resolves a service by its type.
	ResolveType(t reflect.Type) (any, error)
}

// Container is the dependency injection container.
type Container interface {
	Resolver

	// ResolveNamed resolves a named registration of the given type.
	ResolveNamed(t reflect.Type, name string) (any, error)

	// Register adds a service factory for the given type.
	Register(t reflect.Type, factory Factory, opts ...RegisterOption) error

	// AddSource attaches a registration source to the resolution pipeline.
	// Sources are consulted in attach order when no registration matches.
	AddSource(src RegistrationSource)

	// Use adds middleware to the container.
	Use(mw Middleware)

	// Has reports whether an unnamed registration exists for the type.
	Has(t reflect.Type) bool

	// HasNamed reports whether a named registration exists for the type.
	HasNamed(t reflect.Type, name string) bool

	// Services returns all registration keys in registration order.
	Services() []string

	// Inspect returns diagnostic information for a registration key.
	Inspect(key string) ServiceInfo

	// BeginScope creates a new lifetime scope for scoped services.
	BeginScope() Scope

	// Start initializes all singleton services in dependency order.
	Start(ctx context.Context) error

	// Stop shuts down started services in reverse dependency order.
	Stop(ctx context.Context) error

	// Health checks all instantiated singletons that expose a health check.
	Health(ctx context.Context) error
}

// Scope is a lifetime boundary. Scoped registrations yield one shared
// instance per scope; the container root acts as its own root scope.
type Scope interface {
	Resolver

	// End disposes all scoped instances created in this scope.
	End() error
}

// Service is implemented by services that are eagerly started when built.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// HealthChecker is implemented by services that can report health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Disposable is implemented by scoped services that need cleanup at scope end.
type Disposable interface {
	Dispose() error
}

// Service lifetimes.
const (
	LifetimeSingleton = "singleton"
	LifetimeScoped    = "scoped"
	LifetimeTransient = "transient"
)

// ServiceInfo contains diagnostic information about a registration.
type ServiceInfo struct {
	Key          string
	Type         string
	Lifecycle    string
	Dependencies []string
	Groups       []string
	Started      bool
	Healthy      bool
	Metadata     map[string]string
}

// RegisterOption configures a service registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	name      string
	lifecycle string
	groups    []string
	metadata  map[string]string
	deps      []string
}

func newRegisterConfig(opts []RegisterOption) *registerConfig {
	cfg := &registerConfig{
		lifecycle: LifetimeSingleton,
		metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Singleton makes the service a singleton (default).
func Singleton() RegisterOption {
	return func(c *registerConfig) { c.lifecycle = LifetimeSingleton }
}

// Transient makes the service created on each resolve.
func Transient() RegisterOption {
	return func(c *registerConfig) { c.lifecycle = LifetimeTransient }
}

// Scoped makes the service live for the duration of a scope.
func Scoped() RegisterOption {
	return func(c *registerConfig) { c.lifecycle = LifetimeScoped }
}

// Named qualifies the registration with a name, allowing multiple
// registrations of the same type.
func Named(name string) RegisterOption {
	return func(c *registerConfig) { c.name = name }
}

// InGroup adds the service to a named group.
func InGroup(group string) RegisterOption {
	return func(c *registerConfig) { c.groups = append(c.groups, group) }
}

// WithMetadata adds diagnostic metadata to the registration.
func WithMetadata(key, value string) RegisterOption {
	return func(c *registerConfig) { c.metadata[key] = value }
}

// WithDependencies declares explicit dependencies by registration key,
// used for Start/Stop ordering. See KeyOf.
func WithDependencies(keys ...string) RegisterOption {
	return func(c *registerConfig) { c.deps = append(c.deps, keys...) }
}

// Option configures a container at construction time.
type Option func(*containerImpl)

// WithLogger installs a zap-backed logging middleware on the container.
func WithLogger(log *zap.Logger) Option {
	return func(c *containerImpl) {
		c.middleware.add(LoggingMiddleware(log))
	}
}

// New creates a new DI container.
func New(opts ...Option) Container {
	return newContainer(opts...)
}
