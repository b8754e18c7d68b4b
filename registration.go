package alembic

import (
	"fmt"
	"reflect"
	"sync"
)

// typeKey uniquely identifies a service by its type and optional name.
type typeKey struct {
	typ  reflect.Type
	name string // Empty for unnamed services, or "primary", "readonly" etc.
}

// String returns a human-readable representation of the type key
func (k typeKey) String() string {
	typeName := "<nil>"
	if k.typ != nil {
		typeName = k.typ.String()
	}
	if k.name == "" {
		return typeName
	}

	return fmt.Sprintf("%s[name=%s]", typeName, k.name)
}

// registration holds a service registration.
type registration struct {
	key          typeKey
	factory      Factory
	lifecycle    string
	groups       []string
	metadata     map[string]string
	dependencies []string
	instance     any
	started      bool
	constructing bool // Prevent circular instantiation
	mu           sync.RWMutex
}

// registry manages service registrations keyed by type and name.
type registry struct {
	services map[typeKey]*registration
	byType   map[reflect.Type][]*registration // every key type -> registrations, in registration order
	groups   map[string][]*registration       // group name -> registrations
	order    []*registration                  // primary registrations in registration order
	mu       sync.RWMutex
}

// newRegistry creates a new registry.
func newRegistry() *registry {
	return &registry{
		services: make(map[typeKey]*registration),
		byType:   make(map[reflect.Type][]*registration),
		groups:   make(map[string][]*registration),
	}
}

// register adds a new service registration under its primary key.
func (r *registry) register(reg *registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[reg.key]; exists {
		return ErrServiceAlreadyExists(reg.key.String())
	}

	r.services[reg.key] = reg
	r.byType[reg.key.typ] = append(r.byType[reg.key.typ], reg)
	r.order = append(r.order, reg)

	for _, group := range reg.groups {
		r.groups[group] = append(r.groups[group], reg)
	}

	return nil
}

// alias registers an existing registration under an additional key.
// Aliased keys share the registration object, so singleton instances are
// shared across all keys.
func (r *registry) alias(key typeKey, reg *registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[key]; exists {
		return ErrServiceAlreadyExists(key.String())
	}

	r.services[key] = reg
	r.byType[key.typ] = append(r.byType[key.typ], reg)

	return nil
}

// get retrieves a registration by key.
func (r *registry) get(key typeKey) (*registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.services[key]

	return reg, ok
}

// has checks if a key is registered.
func (r *registry) has(key typeKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.services[key]

	return ok
}

// ofType returns all registrations exposed under the given type, in
// registration order. Used for slice and array requests.
func (r *registry) ofType(t reflect.Type) []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*registration(nil), r.byType[t]...)
}

// group returns all registrations in a group.
func (r *registry) group(name string) []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*registration(nil), r.groups[name]...)
}

// all returns primary registrations in registration order.
func (r *registry) all() []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*registration(nil), r.order...)
}

// find returns the primary registration whose key renders to the given
// string, for diagnostics.
func (r *registry) find(key string) (*registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.order {
		if reg.key.String() == key {
			return reg, true
		}
	}

	return nil, false
}
