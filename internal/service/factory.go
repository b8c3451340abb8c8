package service

import (
	"github.com/flexprice/contractflow/internal/auth"
	"github.com/flexprice/contractflow/internal/cache"
	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/domain/addon"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	"github.com/flexprice/contractflow/internal/sentry"
	sigprovider "github.com/flexprice/contractflow/internal/signature"
	webhookPublisher "github.com/flexprice/contractflow/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	ContractRepo       contract.Repository
	RevisionRepo       revision.Repository
	AddonRepo          addon.Repository
	SignatureRepo      signature.Repository
	SigningRequestRepo signature.SigningRequestRepository
	ProviderEventRepo  signature.ProviderEventRepository

	// Signature providers and share links
	Providers  *sigprovider.Registry
	ShareLinks *auth.ShareLinkAuth

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	contractRepo contract.Repository,
	revisionRepo revision.Repository,
	addonRepo addon.Repository,
	signatureRepo signature.Repository,
	signingRequestRepo signature.SigningRequestRepository,
	providerEventRepo signature.ProviderEventRepository,
	providers *sigprovider.Registry,
	shareLinks *auth.ShareLinkAuth,
	webhookPublisher webhookPublisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		DB:                 db,
		Cache:              cache,
		Sentry:             sentry,
		ContractRepo:       contractRepo,
		RevisionRepo:       revisionRepo,
		AddonRepo:          addonRepo,
		SignatureRepo:      signatureRepo,
		SigningRequestRepo: signingRequestRepo,
		ProviderEventRepo:  providerEventRepo,
		Providers:          providers,
		ShareLinks:         shareLinks,
		WebhookPublisher:   webhookPublisher,
	}
}
