package alembic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterBindings_Basic(t *testing.T) {
	c := New()

	err := RegisterBindings(c,
		Bind[*testDatabase](func(r Resolver) (*testDatabase, error) {
			return &testDatabase{dsn: "bound"}, nil
		}, Singleton()),
		Bind[*testService](func(r Resolver) (*testService, error) {
			return &testService{value: "bound"}, nil
		}, Transient()),
	)
	require.NoError(t, err)

	db, err := Resolve[*testDatabase](c)
	require.NoError(t, err)
	assert.Equal(t, "bound", db.dsn)

	svc, err := Resolve[*testService](c)
	require.NoError(t, err)
	assert.Equal(t, "bound", svc.value)
}

func TestRegisterBindings_StopsOnError(t *testing.T) {
	c := New()

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*testDatabase, error) {
		return &testDatabase{}, nil
	}))

	err := RegisterBindings(c,
		Bind[*testDatabase](func(r Resolver) (*testDatabase, error) {
			return &testDatabase{}, nil
		}),
		Bind[*testService](func(r Resolver) (*testService, error) {
			return &testService{}, nil
		}),
	)

	assert.Error(t, err)
	assert.False(t, Has[*testService](c))
}
