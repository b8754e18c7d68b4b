package alembic

import (
	"context"

	"go.uber.org/zap"
)

// LoggingMiddleware returns middleware that logs resolution and lifecycle
// events through the given zap logger. Successful resolutions log at debug
// level to keep steady-state noise down; failures log at warn.
func LoggingMiddleware(log *zap.Logger) Middleware {
	return &FuncMiddleware{
		AfterResolveFunc: func(ctx context.Context, req ServiceRequest, service any, err error) error {
			if err != nil {
				log.Warn("service resolution failed",
					zap.String("service", req.String()),
					zap.String("kind", req.Kind.String()),
					zap.Error(err))

				return nil
			}

			log.Debug("service resolved",
				zap.String("service", req.String()),
				zap.String("kind", req.Kind.String()))

			return nil
		},
		BeforeStartFunc: func(ctx context.Context, key string) error {
			log.Debug("starting service", zap.String("service", key))

			return nil
		},
		AfterStartFunc: func(ctx context.Context, key string, err error) error {
			if err != nil {
				log.Error("service start failed",
					zap.String("service", key),
					zap.Error(err))

				return nil
			}

			log.Info("service started", zap.String("service", key))

			return nil
		},
	}
}
