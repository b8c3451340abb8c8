package testutil

import (
	"context"
	"time"

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
	"github.com/flexprice/contractflow/internal/types"
	"github.com/flexprice/contractflow/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	ContractRepo       contract.Repository
	RevisionRepo       revision.Repository
	AddonRepo          addon.Repository
	SignatureRepo      signature.Repository
	SigningRequestRepo signature.SigningRequestRepository
	ProviderEventRepo  signature.ProviderEventRepository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	webhookPublisher *InMemoryWebhookPublisher
	db               *MockPostgresClient
	cache            cache.Cache
	sentry           *sentry.Service
	providers        *sigprovider.Registry
	shareLinks       *auth.ShareLinkAuth
	httpClient       *MockHTTPClient
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.now = time.Now().UTC()
	s.setupContext()
	s.setupStores()
	s.setupDependencies()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.webhookPublisher.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		ContractRepo:       NewInMemoryContractStore(),
		RevisionRepo:       NewInMemoryRevisionStore(),
		AddonRepo:          NewInMemoryAddonStore(),
		SignatureRepo:      NewInMemorySignatureStore(),
		SigningRequestRepo: NewInMemorySigningRequestStore(),
		ProviderEventRepo:  NewInMemoryProviderEventStore(),
	}
}

func (s *BaseServiceTestSuite) setupDependencies() {
	s.db = NewMockPostgresClient(s.logger)
	s.webhookPublisher = NewInMemoryWebhookPublisher()
	s.cache = cache.NewInMemoryCache(s.config)
	s.sentry = sentry.NewSentryService(s.config, s.logger)
	s.shareLinks = auth.NewShareLinkAuth(s.config)
	s.httpClient = NewMockHTTPClient()

	providers, err := sigprovider.NewRegistry(s.config, s.httpClient, s.shareLinks, s.logger)
	s.Require().NoError(err)
	s.providers = providers
}

// GetContext returns the tenant scoped test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetWebhookPublisher() *InMemoryWebhookPublisher {
	return s.webhookPublisher
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetProviders() *sigprovider.Registry {
	return s.providers
}

func (s *BaseServiceTestSuite) GetShareLinks() *auth.ShareLinkAuth {
	return s.shareLinks
}

func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.httpClient
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
