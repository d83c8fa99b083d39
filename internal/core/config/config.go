package config

import (
	"time"

	"github.com/vietddude/shipbridge/internal/infra/events"
	redisclient "github.com/vietddude/shipbridge/internal/infra/redis"
	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/infra/rpc/routing"
	"github.com/vietddude/shipbridge/internal/infra/storage/postgres"
	"github.com/vietddude/shipbridge/internal/rates"
	"github.com/vietddude/shipbridge/internal/server"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      server.Config      `yaml:"server"`
	Logging     LoggingConfig      `yaml:"logging"`
	MockMode    bool               `yaml:"mock_mode"`
	Shipping    UpstreamConfig     `yaml:"shipping"`
	Inventory   UpstreamConfig     `yaml:"inventory"`
	Resilience  ResilienceConfig   `yaml:"resilience"`
	Rates       rates.Config       `yaml:"rates"`
	Fulfillment FulfillmentConfig  `yaml:"fulfillment"`
	Redis       redisclient.Config `yaml:"redis"`
	Kafka       events.Config      `yaml:"kafka"`
	Database    postgres.Config    `yaml:"database"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// UpstreamConfig holds settings for one external platform.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"` // per attempt
}

// ResilienceConfig is shared by every upstream client.
type ResilienceConfig struct {
	Retry       routing.RetryConfig `yaml:"retry"`
	Breaker     breaker.Config      `yaml:"breaker"`
	ErrorBuffer int                 `yaml:"error_buffer"` // recent errors kept per upstream
}

// Quote ranking strategies.
const (
	QuoteRankingCheapest = "cheapest"
	QuoteRankingFastest  = "fastest"
)

// FulfillmentConfig tunes the fulfillment workflow.
type FulfillmentConfig struct {
	FallbackCarrier string        `yaml:"fallback_carrier"`
	QuoteRanking    string        `yaml:"quote_ranking"` // cheapest, fastest
	RunRetention    time.Duration `yaml:"run_retention"` // 0 = keep forever
}
