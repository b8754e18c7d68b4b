package alembic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_ResolvesOnFirstGet(t *testing.T) {
	c := New()
	calls := 0

	require.NoError(t, RegisterTransient(c, func(r Resolver) (*testService, error) {
		calls++

		return &testService{value: "lazy"}, nil
	}))

	lazy := NewLazy[*testService](c)
	assert.False(t, lazy.IsResolved())
	assert.Zero(t, calls)

	first, err := lazy.Get()
	require.NoError(t, err)
	assert.Equal(t, "lazy", first.value)
	assert.True(t, lazy.IsResolved())

	second, err := lazy.Get()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestLazy_ErrorCached(t *testing.T) {
	c := New()

	lazy := NewLazy[*testService](c)

	_, err := lazy.Get()
	assert.ErrorIs(t, err, ErrServiceNotFoundSentinel)
	assert.False(t, lazy.IsResolved())

	_, err = lazy.Get()
	assert.ErrorIs(t, err, ErrServiceNotFoundSentinel)
}

func TestLazy_MustGetPanics(t *testing.T) {
	c := New()

	lazy := NewLazy[*testService](c)

	assert.Panics(t, func() {
		lazy.MustGet()
	})
}

func TestProvider_FreshInstancePerProvide(t *testing.T) {
	c := New()

	require.NoError(t, RegisterTransient(c, func(r Resolver) (*testService, error) {
		return &testService{}, nil
	}))

	provider := NewProvider[*testService](c)

	a, err := provider.Provide()
	require.NoError(t, err)

	b, err := provider.Provide()
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestProvider_Missing(t *testing.T) {
	c := New()

	provider := NewProvider[*testService](c)

	_, err := provider.Provide()
	assert.ErrorIs(t, err, ErrServiceNotFoundSentinel)

	assert.Panics(t, func() {
		provider.MustProvide()
	})
}

func TestLazy_WorksWithScope(t *testing.T) {
	c := New()

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*testService, error) {
		return &testService{value: "scoped"}, nil
	}))

	s := c.BeginScope()
	lazy := NewLazy[*testService](s)

	svc, err := lazy.Get()
	require.NoError(t, err)

	direct, err := ResolveScoped[*testService](s)
	require.NoError(t, err)

	assert.Same(t, direct, svc)
}
