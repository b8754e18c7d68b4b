package alembic

// RegistrationSource is a pluggable resolution pipeline participant. When no
// direct registration satisfies a request, the container asks each attached
// source in turn; the first source yielding registrations wins.
type RegistrationSource interface {
	// Registrations returns zero or more registrations able to satisfy the
	// request, or an empty slice to decline it. The container is provided
	// so sources can query other registrations when deciding.
	Registrations(req ServiceRequest, c Container) []SourcedRegistration
}

// SourcedRegistration is a registration produced by a RegistrationSource.
// It is not installed into the registry; the source is consulted per request
// and instance identity is governed by the lifetime tag alone.
type SourcedRegistration struct {
	// Factory activates an instance for the request.
	Factory Factory

	// Lifetime is one of the Lifetime* constants. Scoped registrations
	// yield one instance per scope, cached under the request key.
	Lifetime string
}
