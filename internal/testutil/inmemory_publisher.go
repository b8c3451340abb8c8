package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/contractflow/internal/types"
	webhookPublisher "github.com/flexprice/contractflow/internal/webhook/publisher"
	"github.com/samber/lo"
)

// InMemoryWebhookPublisher records published webhook events for assertions
type InMemoryWebhookPublisher struct {
	mu     sync.RWMutex
	events []*types.WebhookEvent
	err    error
}

var _ webhookPublisher.WebhookPublisher = (*InMemoryWebhookPublisher)(nil)

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{
		events: make([]*types.WebhookEvent, 0),
	}
}

// PublishWebhook records the event, or returns the configured failure
func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT)
	}
	cp := *event
	p.events = append(p.events, &cp)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// FailWith makes every following publish return err
func (p *InMemoryWebhookPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Events returns all published events
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	events := make([]*types.WebhookEvent, len(p.events))
	copy(events, p.events)
	return events
}

// EventsNamed returns the published events with the given name
func (p *InMemoryWebhookPublisher) EventsNamed(name string) []*types.WebhookEvent {
	return lo.Filter(p.Events(), func(e *types.WebhookEvent, _ int) bool {
		return e.EventName == name
	})
}

// HasEvent checks if an event with the given name was published
func (p *InMemoryWebhookPublisher) HasEvent(name string) bool {
	return len(p.EventsNamed(name)) > 0
}

// Clear removes all published events
func (p *InMemoryWebhookPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]*types.WebhookEvent, 0)
	p.err = nil
}
