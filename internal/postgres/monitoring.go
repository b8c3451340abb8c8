package postgres

import (
	"context"

	"github.com/flexprice/contractflow/internal/logger"
	sentryService "github.com/flexprice/contractflow/internal/sentry"
	"github.com/flexprice/contractflow/internal/types"
)

// SentryClient wraps a client with Sentry span tracking
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	if span != nil {
		defer span.Finish()
	}
	return c.client.WithTx(spanCtx, fn)
}

func (c *SentryClient) LockKey(ctx context.Context, req types.LockRequest) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.advisory_lock", map[string]interface{}{
		"key": req.Key,
	})
	if span != nil {
		defer span.Finish()
	}
	return c.client.LockKey(spanCtx, req)
}

func (c *SentryClient) TryLockKey(ctx context.Context, key string) (bool, error) {
	return c.client.TryLockKey(ctx, key)
}
