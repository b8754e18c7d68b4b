package automock

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xraph/alembic"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeNoMockFactory indicates no mock factory is registered for a type
	CodeNoMockFactory = "NO_MOCK_FACTORY"

	// CodeVerificationFailed indicates a mock's expectations were not met
	CodeVerificationFailed = "VERIFICATION_FAILED"

	// CodeNotAttached indicates the container has no mock source attached
	CodeNotAttached = "MOCK_SOURCE_NOT_ATTACHED"
)

var mockType = reflect.TypeOf(mock.Mock{})

// TestifyEngine is an Engine backed by testify's mock package. Interface
// mocks cannot be synthesized from reflection alone, so the engine holds a
// registry of per-type factories; register one per mocked interface with
// RegisterMock. With stubs enabled, pointer-to-struct types without a
// factory fall back to zero-value instances.
type TestifyEngine struct {
	mu        sync.RWMutex
	factories map[reflect.Type]func() any
	stubs     bool
}

// EngineOption configures a TestifyEngine.
type EngineOption func(*TestifyEngine)

// WithStubs makes Create return zero-value instances for pointer-to-struct
// types that have no registered factory.
func WithStubs() EngineOption {
	return func(e *TestifyEngine) {
		e.stubs = true
	}
}

// NewTestifyEngine creates a testify-backed mock engine.
func NewTestifyEngine(opts ...EngineOption) *TestifyEngine {
	e := &TestifyEngine{
		factories: make(map[reflect.Type]func() any),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegisterMock registers a factory producing mocks for T. The factory result
// must embed mock.Mock and be returned by pointer for verification to work.
//
// Example:
//
//	RegisterMock[Mailer](engine, func() Mailer { return &MockMailer{} })
func RegisterMock[T any](e *TestifyEngine, factory func() T) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.factories[alembic.TypeOf[T]()] = func() any {
		return factory()
	}
}

// Create returns a mock instance for the given type.
func (e *TestifyEngine) Create(t reflect.Type) (any, error) {
	e.mu.RLock()
	factory, ok := e.factories[t]
	e.mu.RUnlock()

	if ok {
		return factory(), nil
	}

	if e.stubs && t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		return reflect.New(t.Elem()).Interface(), nil
	}

	return nil, alembic.NewError(
		CodeNoMockFactory,
		fmt.Sprintf("no mock factory registered for %s", t),
		nil,
	).WithContext("type", t.String())
}

// Verify checks the expectations recorded on a mock created by this engine.
// Instances without an embedded mock.Mock (stubs) verify trivially.
func (e *TestifyEngine) Verify(instance any, mode VerifyMode) error {
	m, ok := mockOf(instance)
	if !ok {
		return nil
	}

	rec := &recordingT{}
	m.AssertExpectations(rec)

	// AssertExpectations logs the per-expectation reasons and only errors
	// with a summary, so the log lines carry the useful detail.
	var failures []string
	if len(rec.errors) > 0 {
		failures = append(failures, rec.logs...)
		failures = append(failures, rec.errors...)
	}

	if mode == VerifyAll {
		failures = append(failures, unobservedExpectations(m)...)
	}

	if len(failures) == 0 {
		return nil
	}

	return alembic.NewError(
		CodeVerificationFailed,
		fmt.Sprintf("mock %T: %s", instance, strings.Join(failures, "; ")),
		nil,
	).WithContext("type", fmt.Sprintf("%T", instance)).
		WithContext("mode", mode.String())
}

// unobservedExpectations returns a failure per declared expectation that was
// never called. AssertExpectations skips expectations marked optional, so
// this is what gives VerifyAll its stricter reading.
func unobservedExpectations(m *mock.Mock) []string {
	var failures []string

	for _, exp := range m.ExpectedCalls {
		if observed(m, exp) {
			continue
		}

		failures = append(failures, fmt.Sprintf("expected call never observed: %s(%v)", exp.Method, exp.Arguments))
	}

	return failures
}

// observed reports whether any recorded call matches the expectation.
func observed(m *mock.Mock, exp *mock.Call) bool {
	for _, call := range m.Calls {
		if call.Method != exp.Method {
			continue
		}

		if _, diffs := exp.Arguments.Diff(call.Arguments); diffs == 0 {
			return true
		}
	}

	return false
}

// mockOf extracts the embedded mock.Mock from a mock instance. The instance
// must be a pointer to a struct embedding mock.Mock, or a *mock.Mock itself.
func mockOf(instance any) (*mock.Mock, bool) {
	if m, ok := instance.(*mock.Mock); ok {
		return m, true
	}

	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, false
	}

	elem := v.Elem()
	for i := 0; i < elem.NumField(); i++ {
		if elem.Type().Field(i).Type == mockType && elem.Field(i).CanAddr() {
			return elem.Field(i).Addr().Interface().(*mock.Mock), true
		}
	}

	return nil, false
}

// recordingT collects testify output instead of failing a test, so
// verification results surface as errors.
type recordingT struct {
	logs   []string
	errors []string
}

func (t *recordingT) Logf(format string, args ...any) {
	t.logs = append(t.logs, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (t *recordingT) Errorf(format string, args ...any) {
	t.errors = append(t.errors, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (t *recordingT) FailNow() {}
