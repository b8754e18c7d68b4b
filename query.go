package alembic

import "reflect"

// ServiceQuery defines criteria for querying registrations. Zero-valued
// fields match everything.
type ServiceQuery struct {
	// Type filters by the registration's key type (named registrations of
	// the type included).
	Type reflect.Type

	// Lifecycle filters by service lifecycle (singleton, transient, scoped).
	Lifecycle string

	// Group filters by service group.
	Group string

	// Metadata filters by metadata key-value pairs. All specified pairs
	// must match for a registration to be included.
	Metadata map[string]string

	// Started filters by whether the service has been started.
	// nil matches all services (started and not started).
	Started *bool
}

// matches reports whether a registration satisfies every criterion.
func (q ServiceQuery) matches(reg *registration) bool {
	if q.Type != nil && reg.key.typ != q.Type {
		return false
	}

	if q.Lifecycle != "" && reg.lifecycle != q.Lifecycle {
		return false
	}

	if q.Group != "" {
		inGroup := false
		for _, group := range reg.groups {
			if group == q.Group {
				inGroup = true

				break
			}
		}
		if !inGroup {
			return false
		}
	}

	for key, value := range q.Metadata {
		if reg.metadata[key] != value {
			return false
		}
	}

	if q.Started != nil {
		reg.mu.RLock()
		started := reg.started
		reg.mu.RUnlock()

		if started != *q.Started {
			return false
		}
	}

	return true
}

// Query returns detailed information about registrations matching the query
// criteria, in registration order.
//
// Example:
//
//	// Find all started singletons in the "api" group
//	started := true
//	results := alembic.Query(c, alembic.ServiceQuery{
//	    Lifecycle: alembic.LifetimeSingleton,
//	    Group: "api",
//	    Started: &started,
//	})
func Query(c Container, query ServiceQuery) []ServiceInfo {
	impl, ok := c.(*containerImpl)
	if !ok {
		return nil
	}

	var results []ServiceInfo

	for _, reg := range impl.registry.all() {
		if query.matches(reg) {
			results = append(results, impl.info(reg))
		}
	}

	return results
}

// QueryKeys returns the registration keys of services matching the query.
func QueryKeys(c Container, query ServiceQuery) []string {
	results := Query(c, query)

	keys := make([]string, len(results))
	for i, info := range results {
		keys[i] = info.Key
	}

	return keys
}

// FindByType returns all registrations keyed under T, named ones included.
func FindByType[T any](c Container) []ServiceInfo {
	return Query(c, ServiceQuery{Type: TypeOf[T]()})
}

// FindByGroup returns all services in a specific group.
func FindByGroup(c Container, group string) []ServiceInfo {
	return Query(c, ServiceQuery{Group: group})
}

// FindByLifecycle returns all services with a specific lifecycle.
func FindByLifecycle(c Container, lifecycle string) []ServiceInfo {
	return Query(c, ServiceQuery{Lifecycle: lifecycle})
}

// FindStarted returns all services that have been started.
func FindStarted(c Container) []ServiceInfo {
	started := true

	return Query(c, ServiceQuery{Started: &started})
}

// FindNotStarted returns all services that have not been started.
func FindNotStarted(c Container) []ServiceInfo {
	started := false

	return Query(c, ServiceQuery{Started: &started})
}
