package alembic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewServiceRequest_PlainType(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[*testService]()})

	assert.Equal(t, KindType, req.Kind)
	assert.Equal(t, TypeOf[*testService](), req.Type)
	assert.Nil(t, req.Elem)
}

func TestNewServiceRequest_Interface(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[HealthChecker]()})

	assert.Equal(t, KindType, req.Kind)
}

func TestNewServiceRequest_Slice(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[[]*testService]()})

	assert.Equal(t, KindSlice, req.Kind)
	assert.Equal(t, TypeOf[*testService](), req.Elem)
}

func TestNewServiceRequest_Array(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[[4]*testService]()})

	assert.Equal(t, KindArray, req.Kind)
	assert.Equal(t, TypeOf[*testService](), req.Elem)
}

func TestNewServiceRequest_Startable(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[*mockService]()})

	assert.Equal(t, KindStartable, req.Kind)
}

func TestNewServiceRequest_StartableInterface(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[Service]()})

	assert.Equal(t, KindStartable, req.Kind)
}

func TestNewServiceRequest_SliceOfStartable(t *testing.T) {
	// Collection shape wins over element startability.
	req := newServiceRequest(typeKey{typ: TypeOf[[]*mockService]()})

	assert.Equal(t, KindSlice, req.Kind)
}

func TestNewServiceRequest_Named(t *testing.T) {
	req := newServiceRequest(typeKey{typ: TypeOf[*testDatabase](), name: "primary"})

	assert.Equal(t, KindType, req.Kind)
	assert.Equal(t, "primary", req.Name)
}

func TestServiceRequest_String(t *testing.T) {
	unnamed := newServiceRequest(typeKey{typ: TypeOf[*testService]()})
	named := newServiceRequest(typeKey{typ: TypeOf[*testDatabase](), name: "replica"})

	assert.Equal(t, "*alembic.testService", unnamed.String())
	assert.Equal(t, "*alembic.testDatabase[name=replica]", named.String())
}

func TestRequestKind_String(t *testing.T) {
	assert.Equal(t, "type", KindType.String())
	assert.Equal(t, "slice", KindSlice.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "startable", KindStartable.String())
	assert.Equal(t, "unknown", RequestKind(42).String())
}
