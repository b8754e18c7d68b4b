package alembic

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// containerImpl implements Container.
type containerImpl struct {
	registry   *registry
	sources    []RegistrationSource
	middleware *middlewareChain
	graph      *DependencyGraph
	rootCache  *scopeCache // the container root is its own lifetime scope
	started    bool
	mu         sync.RWMutex
}

// newContainer creates a new DI container implementation.
func newContainer(opts ...Option) *containerImpl {
	c := &containerImpl{
		registry:   newRegistry(),
		middleware: newMiddlewareChain(),
		graph:      NewDependencyGraph(),
		rootCache:  newScopeCache(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// cache returns the root scope cache.
func (c *containerImpl) cache() *scopeCache {
	return c.rootCache
}

// Register adds a service factory for the given type.
func (c *containerImpl) Register(t reflect.Type, factory Factory, opts ...RegisterOption) error {
	if t == nil {
		return fmt.Errorf("service type cannot be nil")
	}

	if factory == nil {
		return ErrInvalidFactory
	}

	cfg := newRegisterConfig(opts)

	reg := &registration{
		key:          typeKey{typ: t, name: cfg.name},
		factory:      factory,
		lifecycle:    cfg.lifecycle,
		groups:       cfg.groups,
		metadata:     cfg.metadata,
		dependencies: cfg.deps,
	}

	if err := c.registry.register(reg); err != nil {
		return err
	}

	c.graph.AddNode(reg.key.String(), cfg.deps)

	return nil
}

// AddSource attaches a registration source to the resolution pipeline.
func (c *containerImpl) AddSource(src RegistrationSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, src)
}

// Use adds middleware to the container.
// Middleware is called in the order they are added.
func (c *containerImpl) Use(mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware.add(mw)
}

// ResolveType resolves a service by its type.
func (c *containerImpl) ResolveType(t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("requested type cannot be nil")
	}

	return c.resolveKey(typeKey{typ: t}, c)
}

// ResolveNamed resolves a named registration of the given type.
func (c *containerImpl) ResolveNamed(t reflect.Type, name string) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("requested type cannot be nil")
	}

	return c.resolveKey(typeKey{typ: t, name: name}, c)
}

// resolveKey performs resolution for a request key on behalf of the given
// resolver (the container root or a scope).
func (c *containerImpl) resolveKey(key typeKey, r Resolver) (any, error) {
	ctx := context.Background()
	req := newServiceRequest(key)

	// Call middleware before resolve
	if err := c.middleware.beforeResolve(ctx, req); err != nil {
		return nil, err
	}

	// Perform actual resolution
	instance, err := c.resolveRequest(req, r)

	// Call middleware after resolve
	if mwErr := c.middleware.afterResolve(ctx, req, instance, err); mwErr != nil {
		return nil, mwErr
	}

	return instance, err
}

// resolveRequest dispatches on the request shape: direct registrations win,
// collection requests use native multi-registration, and pipeline sources
// are consulted last.
func (c *containerImpl) resolveRequest(req ServiceRequest, r Resolver) (any, error) {
	// An exact registration for the requested key always wins, including
	// registrations of slice or array types themselves.
	if reg, ok := c.registry.get(req.key()); ok {
		return c.activate(reg, r)
	}

	switch req.Kind {
	case KindSlice:
		if regs := c.registry.ofType(req.Elem); len(regs) > 0 {
			return c.buildSlice(req, regs, r)
		}
	case KindArray:
		if regs := c.registry.ofType(req.Elem); len(regs) > 0 {
			return c.buildArray(req, regs, r)
		}
	}

	c.mu.RLock()
	sources := append([]RegistrationSource(nil), c.sources...)
	c.mu.RUnlock()

	for _, src := range sources {
		regs := src.Registrations(req, c)
		if len(regs) == 0 {
			continue
		}

		return c.activateSourced(req.key(), regs[0], r)
	}

	// Collection requests with no registrations resolve to an empty
	// collection rather than failing.
	switch req.Kind {
	case KindSlice:
		return reflect.MakeSlice(req.Type, 0, 0).Interface(), nil
	case KindArray:
		return reflect.New(req.Type).Elem().Interface(), nil
	}

	return nil, ErrServiceNotFound(req.String())
}

// buildSlice resolves every registration of the element type into a slice,
// in registration order.
func (c *containerImpl) buildSlice(req ServiceRequest, regs []*registration, r Resolver) (any, error) {
	slice := reflect.MakeSlice(req.Type, 0, len(regs))

	for _, reg := range regs {
		instance, err := c.activate(reg, r)
		if err != nil {
			return nil, err
		}

		slice = reflect.Append(slice, reflect.ValueOf(instance))
	}

	return slice.Interface(), nil
}

// buildArray resolves registrations of the element type into a fixed array.
func (c *containerImpl) buildArray(req ServiceRequest, regs []*registration, r Resolver) (any, error) {
	if len(regs) > req.Type.Len() {
		return nil, NewServiceError(req.String(), "resolve",
			fmt.Errorf("%d registrations do not fit array of length %d", len(regs), req.Type.Len()))
	}

	arr := reflect.New(req.Type).Elem()

	for i, reg := range regs {
		instance, err := c.activate(reg, r)
		if err != nil {
			return nil, err
		}

		arr.Index(i).Set(reflect.ValueOf(instance))
	}

	return arr.Interface(), nil
}

// activate produces an instance for a registration according to its
// lifecycle. Singletons always activate against the container root so they
// never capture scoped dependencies.
func (c *containerImpl) activate(reg *registration, r Resolver) (any, error) {
	switch reg.lifecycle {
	case LifetimeSingleton:
		return c.activateSingleton(reg)

	case LifetimeScoped:
		return cacheFor(r, c).getOrCreate(reg.key, func() (any, error) {
			instance, err := reg.factory(r)
			if err != nil {
				return nil, NewServiceError(reg.key.String(), "resolve", err)
			}

			if err := c.startInstance(context.Background(), reg.key.String(), instance); err != nil {
				return nil, err
			}

			return instance, nil
		})

	default: // transient
		instance, err := reg.factory(r)
		if err != nil {
			return nil, NewServiceError(reg.key.String(), "resolve", err)
		}

		if err := c.startInstance(context.Background(), reg.key.String(), instance); err != nil {
			return nil, err
		}

		return instance, nil
	}
}

// activateSingleton creates, caches and auto-starts a singleton instance.
func (c *containerImpl) activateSingleton(reg *registration) (any, error) {
	// Fast path: already created and started (read lock)
	reg.mu.RLock()
	if reg.instance != nil && reg.started {
		instance := reg.instance
		reg.mu.RUnlock()

		return instance, nil
	}
	reg.mu.RUnlock()

	// Slow path: create and/or start instance (write lock)
	reg.mu.Lock()
	defer reg.mu.Unlock()

	// Double-check after acquiring write lock
	if reg.instance != nil && reg.started {
		return reg.instance, nil
	}

	if reg.instance == nil {
		if reg.constructing {
			return nil, ErrCircularDependency([]string{reg.key.String()})
		}

		// Release the lock while the factory runs so recursive resolution
		// of this same registration reports a cycle instead of deadlocking.
		reg.constructing = true
		reg.mu.Unlock()

		instance, err := reg.factory(c)

		reg.mu.Lock()
		reg.constructing = false

		if err != nil {
			return nil, NewServiceError(reg.key.String(), "resolve", err)
		}

		reg.instance = instance
	}

	// Auto-start if the instance implements Service and not yet started
	if !reg.started {
		if err := c.startInstance(context.Background(), reg.key.String(), reg.instance); err != nil {
			return nil, err
		}

		reg.started = true
	}

	return reg.instance, nil
}

// activateSourced produces an instance for a source-provided registration.
// The registration is not memoized; identity follows its lifetime tag only.
func (c *containerImpl) activateSourced(key typeKey, sr SourcedRegistration, r Resolver) (any, error) {
	factory := func() (any, error) {
		instance, err := sr.Factory(r)
		if err != nil {
			return nil, NewServiceError(key.String(), "resolve", err)
		}

		return instance, nil
	}

	switch sr.Lifetime {
	case LifetimeScoped:
		return cacheFor(r, c).getOrCreate(key, factory)

	case LifetimeSingleton:
		return c.rootCache.getOrCreate(key, factory)

	default: // transient
		return factory()
	}
}

// startInstance starts an instance that implements Service, with middleware
// hooks around the start call.
func (c *containerImpl) startInstance(ctx context.Context, key string, instance any) error {
	svc, ok := instance.(Service)
	if !ok {
		return nil
	}

	if err := c.middleware.beforeStart(ctx, key); err != nil {
		return err
	}

	startErr := svc.Start(ctx)

	if mwErr := c.middleware.afterStart(ctx, key, startErr); mwErr != nil {
		return mwErr
	}

	if startErr != nil {
		return NewServiceError(key, "auto_start", startErr)
	}

	return nil
}

// Has reports whether an unnamed registration exists for the type.
func (c *containerImpl) Has(t reflect.Type) bool {
	return c.registry.has(typeKey{typ: t})
}

// HasNamed reports whether a named registration exists for the type.
func (c *containerImpl) HasNamed(t reflect.Type, name string) bool {
	return c.registry.has(typeKey{typ: t, name: name})
}

// Services returns all registration keys in registration order.
func (c *containerImpl) Services() []string {
	regs := c.registry.all()

	keys := make([]string, 0, len(regs))
	for _, reg := range regs {
		keys = append(keys, reg.key.String())
	}

	return keys
}

// Inspect returns diagnostic information about a registration.
func (c *containerImpl) Inspect(key string) ServiceInfo {
	reg, ok := c.registry.find(key)
	if !ok {
		return ServiceInfo{Key: key}
	}

	return c.info(reg)
}

// info builds the diagnostic view of a registration.
func (c *containerImpl) info(reg *registration) ServiceInfo {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	typeName := reg.key.typ.String()
	if reg.instance != nil {
		typeName = fmt.Sprintf("%T", reg.instance)
	}

	healthy := false
	if checker, ok := reg.instance.(HealthChecker); ok {
		healthy = checker.Health(context.Background()) == nil
	}

	metadata := make(map[string]string, len(reg.metadata))
	for k, v := range reg.metadata {
		metadata[k] = v
	}

	return ServiceInfo{
		Key:          reg.key.String(),
		Type:         typeName,
		Lifecycle:    reg.lifecycle,
		Dependencies: append([]string(nil), reg.dependencies...),
		Groups:       append([]string(nil), reg.groups...),
		Started:      reg.started,
		Healthy:      healthy,
		Metadata:     metadata,
	}
}

// BeginScope creates a new scope for request-scoped services.
func (c *containerImpl) BeginScope() Scope {
	return newScope(c)
}

// Start initializes all singleton services in dependency order.
// This method is idempotent - it will skip already-started services and
// won't error if the container is already marked as started.
func (c *containerImpl) Start(ctx context.Context) error {
	c.mu.Lock()

	if c.started {
		c.mu.Unlock()

		return nil
	}
	c.mu.Unlock()

	order, err := c.graph.TopologicalSort()
	if err != nil {
		return err
	}

	// Start services in order (without holding the container lock).
	// Services already started via auto-start on resolve are skipped.
	for _, key := range order {
		if err := c.startService(key); err != nil {
			// Rollback: stop already started services
			c.stopServices(ctx, order)

			return NewServiceError(key, "start", err)
		}
	}

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	return nil
}

// Stop shuts down all services in reverse order.
func (c *containerImpl) Stop(ctx context.Context) error {
	c.mu.Lock()

	if !c.started {
		c.mu.Unlock()

		return nil // Not an error, just no-op
	}
	c.mu.Unlock()

	order, err := c.graph.TopologicalSort()
	if err != nil {
		return err
	}

	for i := len(order) - 1; i >= 0; i-- {
		if err := c.stopService(ctx, order[i]); err != nil {
			return NewServiceError(order[i], "stop", err)
		}
	}

	c.mu.Lock()
	c.started = false
	c.mu.Unlock()

	return nil
}

// Health checks all instantiated singletons.
func (c *containerImpl) Health(ctx context.Context) error {
	for _, reg := range c.registry.all() {
		reg.mu.RLock()
		instance := reg.instance
		reg.mu.RUnlock()

		if reg.lifecycle != LifetimeSingleton || instance == nil {
			continue
		}

		if checker, ok := instance.(HealthChecker); ok {
			if err := checker.Health(ctx); err != nil {
				return NewServiceError(reg.key.String(), "health", err)
			}
		}
	}

	return nil
}

// startService resolves a single singleton, which auto-starts it.
// Idempotent: already-started services are skipped.
func (c *containerImpl) startService(key string) error {
	reg, ok := c.registry.find(key)
	if !ok {
		return nil // Not registered (e.g. declared dependency only), skip
	}

	if reg.lifecycle != LifetimeSingleton {
		return nil // Scoped and transient services start on resolve
	}

	reg.mu.RLock()
	started := reg.started
	reg.mu.RUnlock()

	if started {
		return nil
	}

	_, err := c.activateSingleton(reg)

	return err
}

// stopService stops a single started service.
func (c *containerImpl) stopService(ctx context.Context, key string) error {
	reg, ok := c.registry.find(key)
	if !ok {
		return nil
	}

	reg.mu.RLock()
	instance := reg.instance
	started := reg.started
	reg.mu.RUnlock()

	if !started || instance == nil {
		return nil
	}

	if svc, ok := instance.(Service); ok {
		if err := svc.Stop(ctx); err != nil {
			return err
		}

		reg.mu.Lock()
		reg.started = false
		reg.mu.Unlock()
	}

	return nil
}

// stopServices stops multiple services (for rollback).
func (c *containerImpl) stopServices(ctx context.Context, keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		_ = c.stopService(ctx, keys[i])
	}
}

// cacheFor returns the scope cache owned by the resolver, falling back to
// the container root cache.
func cacheFor(r Resolver, c *containerImpl) *scopeCache {
	if holder, ok := r.(interface{ cache() *scopeCache }); ok {
		return holder.cache()
	}

	return c.rootCache
}
