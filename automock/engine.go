package automock

import "reflect"

// VerifyMode selects which expectations a verification pass checks.
type VerifyMode int

const (
	// VerifyExpected verifies only explicitly declared expectations.
	VerifyExpected VerifyMode = iota

	// VerifyAll verifies every declared set-up, including ones the engine
	// would otherwise treat as optional, and flags undeclared interactions.
	VerifyAll
)

// String returns a human-readable mode name.
func (m VerifyMode) String() string {
	switch m {
	case VerifyExpected:
		return "expected"
	case VerifyAll:
		return "all"
	default:
		return "unknown"
	}
}

// Engine is the external mocking framework boundary. The source only ever
// asks it to create a mock for a type and to verify a previously created
// mock; arrangement of behavior happens directly on the mock instances.
type Engine interface {
	// Create returns a mock instance for the given type.
	Create(t reflect.Type) (any, error)

	// Verify checks the expectations recorded on a mock created by this
	// engine, returning an error enumerating unmet or mismatched
	// expectations.
	Verify(instance any, mode VerifyMode) error
}
