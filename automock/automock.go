// Package automock extends an alembic container with automatic mocking.
//
// Attach installs a registration source that satisfies unregistered
// dependencies with mocks, while Get builds the subject under test as a
// real instance whose dependencies resolve to mocks. Expectations are
// arranged directly on the mock instances and verified through Assert or
// AssertAll.
//
//	c := alembic.New()
//	src := automock.Attach(c)
//	automock.RegisterMock[Mailer](src.Engine().(*automock.TestifyEngine),
//	    func() Mailer { return &MockMailer{} })
//
//	svc, err := automock.Get[*SignupService](c)
//	svc.Signup("ada@example.com")
//
//	err = automock.Assert(c)
package automock

import (
	"fmt"
	"sync"

	"github.com/xraph/alembic"
)

var (
	bindingsMu sync.Mutex
	bindings   = make(map[alembic.Container]*Source)
)

// Attach installs a mock source on the container and returns it. Attaching
// twice returns the existing source unchanged; options are applied only on
// first attach.
func Attach(c alembic.Container, opts ...Option) *Source {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()

	if src, ok := bindings[c]; ok {
		return src
	}

	src := NewSource(opts...)
	c.AddSource(src)
	bindings[c] = src

	return src
}

// SourceFor returns the mock source attached to the container.
func SourceFor(c alembic.Container) (*Source, error) {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()

	if src, ok := bindings[c]; ok {
		return src, nil
	}

	return nil, alembic.NewError(
		CodeNotAttached,
		"container has no mock source attached",
		nil,
	)
}

// Get resolves T as the subject under test: T itself is built as a real
// instance and its unregistered dependencies come back as mocks. The
// subject marker is cleared on every exit path, so a failed or panicking
// resolution never leaks into later ones.
func Get[T any](c alembic.Container) (T, error) {
	var zero T

	src, err := SourceFor(c)
	if err != nil {
		return zero, err
	}

	release := src.beginRoot(alembic.TypeOf[T]())
	defer release()

	return alembic.Resolve[T](c)
}

// MustGet resolves the subject under test or panics.
func MustGet[T any](c alembic.Container) T {
	instance, err := Get[T](c)
	if err != nil {
		panic(fmt.Sprintf("failed to build subject %s: %v", alembic.TypeOf[T](), err))
	}

	return instance
}

// MockOf resolves the mock for T, creating it if no resolution has needed
// one yet. Use it to arrange expectations before exercising the subject.
func MockOf[T any](c alembic.Container) (T, error) {
	var zero T

	if _, err := SourceFor(c); err != nil {
		return zero, err
	}

	return alembic.Resolve[T](c)
}

// MustMockOf resolves the mock for T or panics.
func MustMockOf[T any](c alembic.Container) T {
	instance, err := MockOf[T](c)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve mock %s: %v", alembic.TypeOf[T](), err))
	}

	return instance
}

// Assert verifies explicit expectations on every mock created for the
// container.
func Assert(c alembic.Container) error {
	src, err := SourceFor(c)
	if err != nil {
		return err
	}

	return src.Assert()
}

// AssertAll verifies every declared set-up on every mock created for the
// container.
func AssertAll(c alembic.Container) error {
	src, err := SourceFor(c)
	if err != nil {
		return err
	}

	return src.AssertAll()
}
