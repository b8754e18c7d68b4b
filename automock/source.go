package automock

import (
	"reflect"
	"sync"

	"go.uber.org/multierr"

	"github.com/xraph/alembic"
)

// Handle records a mock the source created, in creation order.
type Handle struct {
	Instance any
	Type     reflect.Type
}

// Source is a registration source that satisfies otherwise-unregistered
// requests with mocks from its engine. Real registrations always win; the
// container only consults the source when nothing else matches.
//
// Collection and startable requests are declined. A missing slice
// registration already resolves to an empty collection, and auto-started
// services run real side effects that a silently substituted mock would
// mask.
type Source struct {
	engine Engine

	mu       sync.Mutex
	roots    []reflect.Type
	building map[reflect.Type]bool
	created  []Handle
}

// Option configures a Source.
type Option func(*Source)

// WithEngine sets the mocking engine. Defaults to NewTestifyEngine().
func WithEngine(e Engine) Option {
	return func(s *Source) {
		s.engine = e
	}
}

// NewSource creates a mock source.
func NewSource(opts ...Option) *Source {
	s := &Source{
		building: make(map[reflect.Type]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine = NewTestifyEngine()
	}

	return s
}

// Engine returns the source's mocking engine.
func (s *Source) Engine() Engine {
	return s.engine
}

// Registrations implements alembic.RegistrationSource.
func (s *Source) Registrations(req alembic.ServiceRequest, c alembic.Container) []alembic.SourcedRegistration {
	if req.Kind != alembic.KindType {
		return nil
	}

	if s.isRoot(req) {
		return []alembic.SourcedRegistration{{
			Factory: func(r alembic.Resolver) (any, error) {
				// A subject whose fields reference its own type would
				// re-enter this factory and recurse without bound.
				if !s.beginBuild(req.Type) {
					return nil, alembic.ErrCircularDependency([]string{req.Type.String()})
				}
				defer s.endBuild(req.Type)

				return buildConcrete(req.Type, r)
			},
			Lifetime: alembic.LifetimeTransient,
		}}
	}

	typ := req.Type

	return []alembic.SourcedRegistration{{
		Factory: func(r alembic.Resolver) (any, error) {
			instance, err := s.engine.Create(typ)
			if err != nil {
				return nil, err
			}

			s.record(Handle{Instance: instance, Type: typ})

			return instance, nil
		},
		Lifetime: alembic.LifetimeScoped,
	}}
}

// beginRoot marks t as the subject under test for the duration of one
// resolution. The returned release must run on every exit path, including
// panics, or the next resolution of t would build a real instance.
func (s *Source) beginRoot(t reflect.Type) func() {
	s.mu.Lock()
	s.roots = append(s.roots, t)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.roots = s.roots[:len(s.roots)-1]
	}
}

// isRoot reports whether the request targets the innermost subject under
// test. Named requests never match; subjects are registered unnamed.
func (s *Source) isRoot(req alembic.ServiceRequest) bool {
	if req.Name != "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.roots) > 0 && s.roots[len(s.roots)-1] == req.Type
}

// beginBuild marks a concrete construction of t as in flight, reporting
// false when one already is.
func (s *Source) beginBuild(t reflect.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.building[t] {
		return false
	}
	s.building[t] = true

	return true
}

func (s *Source) endBuild(t reflect.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.building, t)
}

// record appends a handle to the created list. The list is append-only so
// verification sees every mock ever handed out, in creation order.
func (s *Source) record(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, h)
}

// Mocks returns the mocks the source has created, in creation order.
func (s *Source) Mocks() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Handle, len(s.created))
	copy(out, s.created)

	return out
}

// Assert verifies the explicitly declared expectations on every mock the
// source created. All mocks are checked; failures are aggregated rather
// than stopping at the first.
func (s *Source) Assert() error {
	return s.verify(VerifyExpected)
}

// AssertAll verifies every declared set-up on every created mock, including
// ones the engine would treat as optional.
func (s *Source) AssertAll() error {
	return s.verify(VerifyAll)
}

func (s *Source) verify(mode VerifyMode) error {
	var err error

	for _, h := range s.Mocks() {
		err = multierr.Append(err, s.engine.Verify(h.Instance, mode))
	}

	return err
}
