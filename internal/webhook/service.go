package webhook

import (
	"context"

	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/logger"
	pubsubRouter "github.com/flexprice/contractflow/internal/pubsub/router"
	"github.com/flexprice/contractflow/internal/webhook/handler"
	"github.com/flexprice/contractflow/internal/webhook/publisher"
)

// WebhookService runs the delivery side of the notification surface
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	router    *pubsubRouter.Router
	logger    *logger.Logger
	cancel    context.CancelFunc
}

func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	router *pubsubRouter.Router,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		router:    router,
		logger:    l,
	}
}

// Start registers the delivery handler and runs the router in the background
func (s *WebhookService) Start(ctx context.Context) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook service disabled")
		return nil
	}

	s.handler.RegisterHandler(s.router)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := s.router.Run(runCtx); err != nil {
			s.logger.Errorw("webhook router stopped", "error", err)
		}
	}()

	select {
	case <-s.router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("webhook service started successfully")
	return nil
}

// Stop closes the router first so no message is left half processed, then
// the publisher
func (s *WebhookService) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	if err := s.router.Close(); err != nil {
		s.logger.Errorw("failed to close webhook router", "error", err)
		return err
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return err
	}

	s.logger.Info("webhook service stopped successfully")
	return nil
}
