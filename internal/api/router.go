package api

import (
	v1 "github.com/flexprice/contractflow/internal/api/v1"
	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/rest/middleware"
	"github.com/flexprice/contractflow/internal/sentry"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health    *v1.HealthHandler
	Contract  *v1.ContractHandler
	Revision  *v1.RevisionHandler
	Signature *v1.SignatureHandler
	ShareLink *v1.ShareLinkHandler
	Revenue   *v1.RevenueHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, reporter *sentry.Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(logger),
		middleware.ErrorHandler(logger, reporter),
	)

	router.GET("/health", handlers.Health.Health)
	router.POST("/health", handlers.Health.Health)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	public := router.Group("/v1")

	// Provider callbacks and share links carry their own credentials
	webhooks := public.Group("/webhooks")
	{
		webhooks.POST("/signatures/:provider",
			middleware.RateLimitMiddleware(cfg.Signature, "provider"),
			middleware.WebhookSignatureMiddleware(cfg.Signature, logger),
			handlers.Signature.HandleProviderCallback,
		)
	}
	public.GET("/share/:token", handlers.ShareLink.ResolveShareLink)

	private := router.Group("/v1", middleware.TenantMiddleware)

	contracts := private.Group("/contracts")
	{
		contracts.POST("", handlers.Contract.CreateContract)
		contracts.GET("", handlers.Contract.ListContracts)
		contracts.GET("/:id", handlers.Contract.GetContract)

		contracts.POST("/:id/revisions", handlers.Revision.ProposeRevision)
		contracts.GET("/:id/revisions", handlers.Revision.ListRevisions)
		contracts.GET("/:id/negotiation", handlers.Revision.GetNegotiationState)

		contracts.POST("/:id/signatures", handlers.Signature.RecordSignature)
		contracts.GET("/:id/signatures", handlers.Signature.ListSignatures)
		contracts.POST("/:id/signing-requests", handlers.Signature.RequestSignature)

		contracts.POST("/:id/share-links", handlers.ShareLink.IssueShareLink)
	}

	revisions := private.Group("/revisions")
	{
		revisions.POST("/:id/resolve", handlers.Revision.ResolveRevision)
	}

	signatures := private.Group("/signatures")
	{
		signatures.POST("/:id/cancel", handlers.Signature.CancelSignature)
	}

	reports := private.Group("/reports")
	{
		reports.GET("/revenue", handlers.Revenue.GetRevenue)
		reports.GET("/revenue/export", handlers.Revenue.ExportRevenue)
	}

	return router
}
