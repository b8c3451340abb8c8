package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/contractflow/internal/api"
	v1 "github.com/flexprice/contractflow/internal/api/v1"
	"github.com/flexprice/contractflow/internal/auth"
	"github.com/flexprice/contractflow/internal/cache"
	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/httpclient"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/repository"
	"github.com/flexprice/contractflow/internal/sentry"
	"github.com/flexprice/contractflow/internal/service"
	sigprovider "github.com/flexprice/contractflow/internal/signature"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/flexprice/contractflow/internal/validator"
	"github.com/flexprice/contractflow/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title ContractFlow API
// @version 1.0
// @description Contract revisions, signatures and revenue reporting
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// HTTP Client
			httpclient.NewClient,

			// Share links and signature providers
			auth.NewShareLinkAuth,
			sigprovider.NewRegistry,
		),
		fx.Invoke(validator.NewValidator),
		sentry.Module(),
		postgres.Module(),
		fx.Decorate(postgres.NewSentryClient),
		repository.Module(),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewContractService,
			service.NewRevisionService,
			service.NewSignatureService,
			service.NewShareLinkService,
			service.NewRevenueService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	contractService service.ContractService,
	revisionService service.RevisionService,
	signatureService service.SignatureService,
	shareLinkService service.ShareLinkService,
	revenueService service.RevenueService,
) api.Handlers {
	return api.Handlers{
		Health:    v1.NewHealthHandler(logger),
		Contract:  v1.NewContractHandler(contractService, logger),
		Revision:  v1.NewRevisionHandler(revisionService, logger),
		Signature: v1.NewSignatureHandler(signatureService, logger),
		ShareLink: v1.NewShareLinkHandler(shareLinkService, logger),
		Revenue:   v1.NewRevenueHandler(revenueService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
