package alembic

import (
	"reflect"
	"sync"

	"go.uber.org/multierr"
)

// scopeCache holds per-scope instances keyed by registration key. The
// building set detects re-entrant activation of the same key, which would
// otherwise recurse forever.
type scopeCache struct {
	instances map[typeKey]any
	building  map[typeKey]bool
	mu        sync.Mutex
}

// newScopeCache creates an empty scope cache.
func newScopeCache() *scopeCache {
	return &scopeCache{
		instances: make(map[typeKey]any),
		building:  make(map[typeKey]bool),
	}
}

// getOrCreate returns the cached instance for the key, invoking create at
// most once per scope. The lock is released while create runs so nested
// resolution of other keys in the same scope can proceed.
func (sc *scopeCache) getOrCreate(key typeKey, create func() (any, error)) (any, error) {
	sc.mu.Lock()

	if instance, ok := sc.instances[key]; ok {
		sc.mu.Unlock()

		return instance, nil
	}

	if sc.building[key] {
		sc.mu.Unlock()

		return nil, ErrCircularDependency([]string{key.String()})
	}

	sc.building[key] = true
	sc.mu.Unlock()

	instance, err := create()

	sc.mu.Lock()
	delete(sc.building, key)

	if err == nil {
		sc.instances[key] = instance
	}
	sc.mu.Unlock()

	return instance, err
}

// drain empties the cache and returns the instances it held.
func (sc *scopeCache) drain() map[typeKey]any {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	instances := sc.instances
	sc.instances = make(map[typeKey]any)

	return instances
}

// scope implements Scope.
type scope struct {
	parent    *containerImpl
	instances *scopeCache
	mu        sync.RWMutex
	ended     bool
}

// newScope creates a new scope.
func newScope(parent *containerImpl) *scope {
	return &scope{
		parent:    parent,
		instances: newScopeCache(),
	}
}

// cache returns this scope's instance cache.
func (s *scope) cache() *scopeCache {
	return s.instances
}

// ResolveType resolves a service by type within this scope. Singletons come
// from the parent container; scoped services are cached in this scope.
func (s *scope) ResolveType(t reflect.Type) (any, error) {
	s.mu.RLock()
	ended := s.ended
	s.mu.RUnlock()

	if ended {
		return nil, ErrScopeEnded
	}

	return s.parent.resolveKey(typeKey{typ: t}, s)
}

// End cleans up all scoped services in this scope.
func (s *scope) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrScopeEnded
	}
	s.ended = true

	var errs error

	for key, instance := range s.instances.drain() {
		if disposable, ok := instance.(Disposable); ok {
			if err := disposable.Dispose(); err != nil {
				errs = multierr.Append(errs, NewServiceError(key.String(), "dispose", err))
			}
		}
	}

	return errs
}
