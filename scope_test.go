package alembic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_ScopedInstance_PerScope(t *testing.T) {
	c := New()
	calls := 0

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*testService, error) {
		calls++

		return &testService{value: "scoped"}, nil
	}))

	s1 := c.BeginScope()
	s2 := c.BeginScope()

	a1, err := ResolveScoped[*testService](s1)
	require.NoError(t, err)

	a2, err := ResolveScoped[*testService](s1)
	require.NoError(t, err)

	b, err := ResolveScoped[*testService](s2)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, calls)
}

func TestScope_RootActsAsScope(t *testing.T) {
	c := New()
	calls := 0

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*testService, error) {
		calls++

		return &testService{value: "root-scoped"}, nil
	}))

	first, err := Resolve[*testService](c)
	require.NoError(t, err)

	second, err := Resolve[*testService](c)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestScope_SingletonSharedAcrossScopes(t *testing.T) {
	c := New()

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*testDatabase, error) {
		return &testDatabase{dsn: "shared"}, nil
	}))

	s1 := c.BeginScope()
	s2 := c.BeginScope()

	a, err := ResolveScoped[*testDatabase](s1)
	require.NoError(t, err)

	b, err := ResolveScoped[*testDatabase](s2)
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestScope_TransientNotCached(t *testing.T) {
	c := New()

	require.NoError(t, RegisterTransient(c, func(r Resolver) (*testService, error) {
		return &testService{}, nil
	}))

	s := c.BeginScope()

	a, err := ResolveScoped[*testService](s)
	require.NoError(t, err)

	b, err := ResolveScoped[*testService](s)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestScope_ScopedServiceAutoStarted(t *testing.T) {
	c := New()

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*mockService, error) {
		return &mockService{}, nil
	}))

	s1 := c.BeginScope()
	s2 := c.BeginScope()

	a, err := ResolveScoped[*mockService](s1)
	require.NoError(t, err)
	assert.True(t, a.started)

	b, err := ResolveScoped[*mockService](s2)
	require.NoError(t, err)
	assert.True(t, b.started)
	assert.NotSame(t, a, b)
}

func TestScope_ScopedServiceStartError(t *testing.T) {
	c := New()
	boom := errors.New("start failed")

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*mockService, error) {
		return &mockService{startErr: boom}, nil
	}))

	s := c.BeginScope()

	_, err := ResolveScoped[*mockService](s)
	assert.ErrorIs(t, err, boom)
}

func TestScope_End_DisposesInstances(t *testing.T) {
	c := New()
	svc := &mockService{}

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*mockService, error) {
		return svc, nil
	}))

	s := c.BeginScope()

	_, err := ResolveScoped[*mockService](s)
	require.NoError(t, err)

	require.NoError(t, s.End())
	assert.True(t, svc.disposed)
}

func TestScope_End_AggregatesDisposeErrors(t *testing.T) {
	c := New()

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*failingDisposable, error) {
		return &failingDisposable{err: errors.New("dispose one")}, nil
	}))
	require.NoError(t, c.Register(TypeOf[*failingDisposable](), func(r Resolver) (any, error) {
		return &failingDisposable{err: errors.New("dispose two")}, nil
	}, Scoped(), Named("second")))

	s := c.BeginScope()

	_, err := ResolveScoped[*failingDisposable](s)
	require.NoError(t, err)

	_, err = s.(*scope).parent.resolveKey(typeKey{typ: TypeOf[*failingDisposable](), name: "second"}, s)
	require.NoError(t, err)

	err = s.End()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispose")
}

type failingDisposable struct {
	err error
}

func (f *failingDisposable) Dispose() error {
	return f.err
}

func TestScope_ResolveAfterEnd(t *testing.T) {
	c := New()

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*testService, error) {
		return &testService{}, nil
	}))

	s := c.BeginScope()
	require.NoError(t, s.End())

	_, err := ResolveScoped[*testService](s)
	assert.ErrorIs(t, err, ErrScopeEnded)
}

func TestScope_EndTwice(t *testing.T) {
	c := New()

	s := c.BeginScope()
	require.NoError(t, s.End())

	assert.ErrorIs(t, s.End(), ErrScopeEnded)
}

func TestScope_CircularScopedDependency(t *testing.T) {
	c := New()

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*testService, error) {
		instance, err := r.ResolveType(TypeOf[*testService]())
		if err != nil {
			return nil, err
		}

		return instance.(*testService), nil
	}))

	s := c.BeginScope()

	_, err := ResolveScoped[*testService](s)
	assert.ErrorIs(t, err, ErrCircularDependencySentinel)
}

func TestScope_NestedScopedDependenciesShareScope(t *testing.T) {
	c := New()

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*testDatabase, error) {
		return &testDatabase{dsn: "scoped-db"}, nil
	}))

	type handler struct {
		db *testDatabase
	}

	require.NoError(t, RegisterScoped(c, func(r Resolver) (*handler, error) {
		db, err := r.ResolveType(TypeOf[*testDatabase]())
		if err != nil {
			return nil, err
		}

		return &handler{db: db.(*testDatabase)}, nil
	}))

	s := c.BeginScope()

	h, err := ResolveScoped[*handler](s)
	require.NoError(t, err)

	db, err := ResolveScoped[*testDatabase](s)
	require.NoError(t, err)

	assert.Same(t, db, h.db)
}
