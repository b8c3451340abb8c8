package webhook

import (
	"context"

	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/pubsub"
	"github.com/flexprice/contractflow/internal/pubsub/kafka"
	"github.com/flexprice/contractflow/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/contractflow/internal/pubsub/router"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/flexprice/contractflow/internal/webhook/handler"
	"github.com/flexprice/contractflow/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		pubsubRouter.NewRouter,
	),

	fx.Provide(
		publisher.NewPublisher,
		handler.NewHandler,
		NewWebhookService,
	),

	fx.Invoke(registerHooks),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) (pubsub.PubSub, error) {
	switch cfg.Webhook.PubSub {
	case types.KafkaPubSub:
		return kafka.NewPubSub(cfg, logger)
	default:
		return memory.NewPubSub(cfg, logger), nil
	}
}

func registerHooks(lc fx.Lifecycle, svc *WebhookService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return svc.Stop()
		},
	})
}
