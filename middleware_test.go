package alembic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware_ResolveHooks(t *testing.T) {
	c := New()

	var events []string

	c.Use(&FuncMiddleware{
		BeforeResolveFunc: func(ctx context.Context, req ServiceRequest) error {
			events = append(events, "before:"+req.String())

			return nil
		},
		AfterResolveFunc: func(ctx context.Context, req ServiceRequest, service any, err error) error {
			events = append(events, "after:"+req.String())

			return nil
		},
	})

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*testService, error) {
		return &testService{}, nil
	}))

	_, err := Resolve[*testService](c)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"before:*alembic.testService",
		"after:*alembic.testService",
	}, events)
}

func TestMiddleware_BeforeResolveAborts(t *testing.T) {
	c := New()
	denied := errors.New("denied")

	c.Use(&FuncMiddleware{
		BeforeResolveFunc: func(ctx context.Context, req ServiceRequest) error {
			return denied
		},
	})

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*testService, error) {
		return &testService{}, nil
	}))

	_, err := Resolve[*testService](c)
	assert.ErrorIs(t, err, denied)
}

func TestMiddleware_AfterResolveSeesError(t *testing.T) {
	c := New()

	var observed error

	c.Use(&FuncMiddleware{
		AfterResolveFunc: func(ctx context.Context, req ServiceRequest, service any, err error) error {
			observed = err

			return nil
		},
	})

	_, err := Resolve[*testService](c)
	require.Error(t, err)
	assert.ErrorIs(t, observed, ErrServiceNotFoundSentinel)
}

func TestMiddleware_StartHooks(t *testing.T) {
	c := New()

	var events []string

	c.Use(&FuncMiddleware{
		BeforeStartFunc: func(ctx context.Context, key string) error {
			events = append(events, "before:"+key)

			return nil
		},
		AfterStartFunc: func(ctx context.Context, key string, err error) error {
			events = append(events, "after:"+key)

			return nil
		},
	})

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*mockService, error) {
		return &mockService{}, nil
	}))

	_, err := Resolve[*mockService](c)
	require.NoError(t, err)

	key := KeyOf[*mockService]()
	assert.Equal(t, []string{"before:" + key, "after:" + key}, events)
}

func TestMiddleware_CalledInOrder(t *testing.T) {
	c := New()

	var order []string

	for _, name := range []string{"first", "second"} {
		name := name
		c.Use(&FuncMiddleware{
			BeforeResolveFunc: func(ctx context.Context, req ServiceRequest) error {
				order = append(order, name)

				return nil
			},
		})
	}

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*testService, error) {
		return &testService{}, nil
	}))

	_, err := Resolve[*testService](c)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestLoggingMiddleware_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(WithLogger(zap.New(core)))

	_, err := Resolve[*testService](c)
	require.Error(t, err)

	entries := logs.FilterMessage("service resolution failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "*alembic.testService", entries[0].ContextMap()["service"])
}

func TestLoggingMiddleware_LogsResolveAndStart(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(WithLogger(zap.New(core)))

	require.NoError(t, RegisterSingleton(c, func(r Resolver) (*mockService, error) {
		return &mockService{}, nil
	}))

	_, err := Resolve[*mockService](c)
	require.NoError(t, err)

	assert.Len(t, logs.FilterMessage("service started").All(), 1)
	assert.Len(t, logs.FilterMessage("service resolved").All(), 1)
}
