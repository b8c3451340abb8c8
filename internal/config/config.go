package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/flexprice/contractflow/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Reporting  ReportingConfig  `mapstructure:"reporting"`
	ShareLink  ShareLinkConfig  `mapstructure:"share_link"`
	Signature  SignatureConfig  `mapstructure:"signature"`
	Webhook    Webhook          `mapstructure:"webhook"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// LedgerConfig tunes the contract ledger
type LedgerConfig struct {
	// LockRetryAttempts bounds the re-reads after losing a version race
	// while acquiring the revision lock.
	LockRetryAttempts    uint64 `mapstructure:"lock_retry_attempts" validate:"gte=0"`
	ContractNumberPrefix string `mapstructure:"contract_number_prefix"`
}

// ReportingConfig is the reporting profile passed to the aggregator at
// construction.
type ReportingConfig struct {
	Currency         string `mapstructure:"currency"`
	RoundingPlaces   int32  `mapstructure:"rounding_places" validate:"gte=0,lte=8"`
	ActiveOnly       bool   `mapstructure:"active_only"`
	MaxExportRecords int    `mapstructure:"max_export_records"`
}

type ShareLinkConfig struct {
	Secret     string        `mapstructure:"secret"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	BaseURL    string        `mapstructure:"base_url"`
}

// SignatureConfig configures the signature providers and the inbound
// callback endpoint.
type SignatureConfig struct {
	Enabled       []types.ProviderType `mapstructure:"enabled"`
	WebhookSecret string               `mapstructure:"webhook_secret"`
	RetryMax      int                  `mapstructure:"retry_max"`
	Timeout       time.Duration        `mapstructure:"timeout"`
	RateLimit     float64              `mapstructure:"rate_limit"`
	RateBurst     int                  `mapstructure:"rate_burst"`
	ClickSign     VendorConfig         `mapstructure:"clicksign"`
	D4Sign        VendorConfig         `mapstructure:"d4sign"`
	ZapSign       VendorConfig         `mapstructure:"zapsign"`
}

type VendorConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type KafkaConfig struct {
	Brokers       []string             `mapstructure:"brokers"`
	ConsumerGroup string               `mapstructure:"consumer_group"`
	ClientID      string               `mapstructure:"client_id"`
	TLS           bool                 `mapstructure:"tls"`
	UseSASL       bool                 `mapstructure:"use_sasl"`
	SASLMechanism sarama.SASLMechanism `mapstructure:"sasl_mechanism"`
	SASLUser      string               `mapstructure:"sasl_user"`
	SASLPassword  string               `mapstructure:"sasl_password"`
}

type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/contractflow")

	v.SetEnvPrefix("CONTRACTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("ledger.lock_retry_attempts", 3)
	v.SetDefault("ledger.contract_number_prefix", types.SHORT_ID_PREFIX_CONTRACT)
	v.SetDefault("reporting.currency", "BRL")
	v.SetDefault("reporting.rounding_places", 2)
	v.SetDefault("reporting.active_only", true)
	v.SetDefault("reporting.max_export_records", 10000)
	v.SetDefault("share_link.default_ttl", 7*24*time.Hour)
	v.SetDefault("signature.enabled", []string{string(types.ProviderNative)})
	v.SetDefault("signature.retry_max", 3)
	v.SetDefault("signature.timeout", 30*time.Second)
	v.SetDefault("signature.rate_limit", 20)
	v.SetDefault("signature.rate_burst", 40)
	v.SetDefault("webhook.topic", "contract_events")
	v.SetDefault("webhook.pubsub", types.MemoryPubSub)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.initial_interval", time.Second)
	v.SetDefault("webhook.max_interval", 10*time.Second)
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.max_elapsed_time", 2*time.Minute)
	v.SetDefault("kafka.sasl_mechanism", sarama.SASLTypePlaintext)
	v.SetDefault("cache.default_ttl", 24*time.Hour)
	v.SetDefault("cache.cleanup_interval", time.Hour)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Ledger: LedgerConfig{
			LockRetryAttempts:    3,
			ContractNumberPrefix: types.SHORT_ID_PREFIX_CONTRACT,
		},
		Reporting: ReportingConfig{
			Currency:         "BRL",
			RoundingPlaces:   2,
			ActiveOnly:       true,
			MaxExportRecords: 10000,
		},
		ShareLink: ShareLinkConfig{
			Secret:     "local-share-link-secret",
			DefaultTTL: 7 * 24 * time.Hour,
			BaseURL:    "http://localhost:8080",
		},
		Signature: SignatureConfig{
			Enabled:   []types.ProviderType{types.ProviderNative},
			RetryMax:  3,
			Timeout:   30 * time.Second,
			RateLimit: 20,
			RateBurst: 40,
		},
		Webhook: Webhook{
			Enabled:         true,
			Topic:           "contract_events",
			PubSub:          types.MemoryPubSub,
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2,
			MaxElapsedTime:  2 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:         true,
			DefaultTTL:      24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
