package signature

import (
	"sync"

	"github.com/flexprice/contractflow/internal/auth"
	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/httpclient"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/samber/lo"
)

// Registry holds the enabled providers keyed by type
type Registry struct {
	mu        sync.RWMutex
	providers map[types.ProviderType]Provider
}

func NewEmptyRegistry() *Registry {
	return &Registry{providers: make(map[types.ProviderType]Provider)}
}

// NewRegistry builds every provider listed in signature.enabled
func NewRegistry(
	cfg *config.Configuration,
	client httpclient.Client,
	shareLinks *auth.ShareLinkAuth,
	log *logger.Logger,
) (*Registry, error) {
	r := NewEmptyRegistry()

	for _, providerType := range lo.Uniq(cfg.Signature.Enabled) {
		if err := providerType.Validate(); err != nil {
			return nil, err
		}

		switch providerType {
		case types.ProviderNative:
			r.Register(NewNativeProvider(shareLinks))
		case types.ProviderClickSign:
			r.Register(NewClickSignProvider(cfg.Signature.ClickSign, client, log))
		case types.ProviderD4Sign:
			r.Register(NewD4SignProvider(cfg.Signature.D4Sign, client, log))
		case types.ProviderZapSign:
			r.Register(NewZapSignProvider(cfg.Signature.ZapSign, client, log))
		}
	}

	return r, nil
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Type()] = p
}

func (r *Registry) Get(providerType types.ProviderType) (Provider, error) {
	if err := providerType.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[providerType]
	if !ok {
		return nil, ierr.NewError("signature provider not enabled").
			WithHintf("Signature provider %s is not enabled", providerType).
			WithReportableDetails(map[string]interface{}{
				"provider": providerType,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return p, nil
}

// IsEnabled reports whether the provider type is registered
func (r *Registry) IsEnabled(providerType types.ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[providerType]
	return ok
}
