package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/infra/rpc/routing"
	"github.com/vietddude/shipbridge/internal/rates"
)

// Default upstream endpoints.
const (
	DefaultShippingURL  = "https://api.easypost.com/v2"
	DefaultInventoryURL = "https://api.veeqo.com"
)

// Option overrides a loaded value before defaults and validation run.
type Option func(*AppConfig)

// WithMockMode forces mock mode on when enabled is true.
func WithMockMode(enabled bool) Option {
	return func(c *AppConfig) {
		if enabled {
			c.MockMode = true
		}
	}
}

// Load reads configuration from a YAML file.
func Load(path string, opts ...Option) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Shipping.BaseURL == "" {
		c.Shipping.BaseURL = DefaultShippingURL
	}
	if c.Inventory.BaseURL == "" {
		c.Inventory.BaseURL = DefaultInventoryURL
	}
	for _, up := range []*UpstreamConfig{&c.Shipping, &c.Inventory} {
		if up.Timeout == 0 {
			up.Timeout = 30 * time.Second
		}
	}

	r := &c.Resilience
	if r.Retry.MaxAttempts == 0 {
		r.Retry.MaxAttempts = routing.DefaultRetryConfig.MaxAttempts
	}
	if r.Retry.InitialDelay == 0 {
		r.Retry.InitialDelay = routing.DefaultRetryConfig.InitialDelay
	}
	if r.Retry.MaxDelay == 0 {
		r.Retry.MaxDelay = routing.DefaultRetryConfig.MaxDelay
	}
	if r.Breaker.FailureThreshold == 0 {
		r.Breaker.FailureThreshold = breaker.DefaultConfig.FailureThreshold
	}
	if r.Breaker.Cooldown == 0 {
		r.Breaker.Cooldown = breaker.DefaultConfig.Cooldown
	}
	if r.ErrorBuffer == 0 {
		r.ErrorBuffer = 100
	}

	if len(c.Rates.Carriers) == 0 {
		c.Rates.Carriers = rates.DefaultCarriers
	}
	if c.Rates.TopN == 0 {
		c.Rates.TopN = rates.DefaultConfig.TopN
	}
	if c.Rates.CacheTTL == 0 {
		c.Rates.CacheTTL = rates.DefaultConfig.CacheTTL
	}

	if c.Fulfillment.QuoteRanking == "" {
		c.Fulfillment.QuoteRanking = QuoteRankingCheapest
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "shipbridge.fulfillment"
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 10 * time.Second
	}
}

// Validate checks settings that have no safe default.
func (c *AppConfig) Validate() error {
	var errs []error
	if !c.MockMode {
		if c.Shipping.APIKey == "" {
			errs = append(errs, errors.New("shipping.api_key is required unless mock_mode is set"))
		}
		if c.Inventory.APIKey == "" {
			errs = append(errs, errors.New("inventory.api_key is required unless mock_mode is set"))
		}
	}
	if c.Resilience.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("resilience.retry.max_attempts must be at least 1"))
	}
	if c.Resilience.Breaker.FailureThreshold < 1 {
		errs = append(errs, errors.New("resilience.breaker.failure_threshold must be at least 1"))
	}
	switch c.Fulfillment.QuoteRanking {
	case QuoteRankingCheapest, QuoteRankingFastest:
	default:
		errs = append(errs, fmt.Errorf("fulfillment.quote_ranking must be %q or %q, got %q",
			QuoteRankingCheapest, QuoteRankingFastest, c.Fulfillment.QuoteRanking))
	}
	for i, cs := range c.Rates.Carriers {
		if cs.Name == "" || cs.AccountID == "" {
			errs = append(errs, fmt.Errorf("rates.carriers[%d] needs name and account_id", i))
		}
	}
	return errors.Join(errs...)
}
