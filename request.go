package alembic

import (
	"fmt"
	"reflect"
)

// RequestKind classifies the shape of a service request. The container builds
// the classification once at the resolution boundary; pipeline sources
// dispatch on it instead of re-inspecting the requested type.
type RequestKind int

const (
	// KindType is a plain service type request.
	KindType RequestKind = iota

	// KindSlice requests every registration of the element type as a slice.
	KindSlice

	// KindArray requests registrations of the element type as a fixed array.
	KindArray

	// KindStartable requests a type implementing Service, which the
	// container eagerly starts when built.
	KindStartable
)

// String returns a human-readable kind name.
func (k RequestKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindSlice:
		return "slice"
	case KindArray:
		return "array"
	case KindStartable:
		return "startable"
	default:
		return "unknown"
	}
}

// ServiceRequest describes a single service request flowing through the
// resolution pipeline.
type ServiceRequest struct {
	Kind RequestKind

	// Type is the requested type as asked for (the slice or array type for
	// collection requests).
	Type reflect.Type

	// Elem is the element type for slice and array requests, nil otherwise.
	Elem reflect.Type

	// Name is the registration name qualifier, empty for unnamed requests.
	Name string
}

var serviceIface = reflect.TypeOf((*Service)(nil)).Elem()

// newServiceRequest classifies a request key into a tagged descriptor.
func newServiceRequest(key typeKey) ServiceRequest {
	req := ServiceRequest{Kind: KindType, Type: key.typ, Name: key.name}

	switch {
	case key.typ.Kind() == reflect.Slice:
		req.Kind = KindSlice
		req.Elem = key.typ.Elem()
	case key.typ.Kind() == reflect.Array:
		req.Kind = KindArray
		req.Elem = key.typ.Elem()
	case key.typ.Implements(serviceIface):
		req.Kind = KindStartable
	}

	return req
}

// String returns a human-readable representation of the request.
func (r ServiceRequest) String() string {
	typeName := "<nil>"
	if r.Type != nil {
		typeName = r.Type.String()
	}
	if r.Name == "" {
		return typeName
	}

	return fmt.Sprintf("%s[name=%s]", typeName, r.Name)
}

// key returns the registry key for this request.
func (r ServiceRequest) key() typeKey {
	return typeKey{typ: r.Type, name: r.Name}
}
