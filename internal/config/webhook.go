package config

import (
	"time"

	"github.com/flexprice/contractflow/internal/types"
)

// Webhook configures the outbound notification surface. Events are published
// on Topic and, when Endpoint is set, delivered to it by the webhook handler.
type Webhook struct {
	Enabled         bool              `mapstructure:"enabled"`
	Topic           string            `mapstructure:"topic" default:"contract_events"`
	PubSub          types.PubSubType  `mapstructure:"pubsub" default:"memory"`
	Endpoint        string            `mapstructure:"endpoint"`
	Headers         map[string]string `mapstructure:"headers"`
	MaxRetries      int               `mapstructure:"max_retries"`
	InitialInterval time.Duration     `mapstructure:"initial_interval"`
	MaxInterval     time.Duration     `mapstructure:"max_interval"`
	Multiplier      float64           `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration     `mapstructure:"max_elapsed_time"`
	// ExcludedEvents are never published
	ExcludedEvents []string `mapstructure:"excluded_events"`
}

// IsExcluded reports whether the event name is configured to be dropped
func (w Webhook) IsExcluded(eventName string) bool {
	for _, excluded := range w.ExcludedEvents {
		if excluded == eventName {
			return true
		}
	}
	return false
}
