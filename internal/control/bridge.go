// Package control wires configuration into a running bridge.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/shipbridge/internal/core/config"
	"github.com/vietddude/shipbridge/internal/core/worker"
	"github.com/vietddude/shipbridge/internal/fulfillment"
	"github.com/vietddude/shipbridge/internal/infra/events"
	redisclient "github.com/vietddude/shipbridge/internal/infra/redis"
	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/infra/storage/memory"
	"github.com/vietddude/shipbridge/internal/infra/storage/postgres"
	"github.com/vietddude/shipbridge/internal/metrics"
	"github.com/vietddude/shipbridge/internal/platform/inventory"
	"github.com/vietddude/shipbridge/internal/platform/shipping"
	"github.com/vietddude/shipbridge/internal/rates"
	"github.com/vietddude/shipbridge/internal/server"
	"github.com/vietddude/shipbridge/internal/tools"
)

// InventoryAPIKeyHeader carries the inventory platform credential.
const InventoryAPIKeyHeader = "x-api-key"

// Bridge is the main application struct that owns every component's lifecycle.
type Bridge struct {
	cfg         config.AppConfig
	breakers    *rpc.BreakerRegistry
	shipping    *rpc.Client
	inventory   *rpc.Client
	registry    *tools.Registry
	monitor     *server.Monitor
	server      *server.Server
	db          *postgres.DB
	redisClient *redisclient.Client
	publisher   events.Publisher
	pruner      *worker.Pruner
	providers   []*provider.HTTPProvider
	log         *slog.Logger
}

// NewBridge creates a Bridge with all dependencies initialized. Redis, Kafka
// and Postgres are optional; without them rates are not cached, events are
// dropped and runs are kept in memory.
func NewBridge(ctx context.Context, cfg config.AppConfig) (*Bridge, error) {
	b := &Bridge{cfg: cfg, log: slog.Default().With("component", "bridge")}
	ranker, err := fulfillment.RankerByName(cfg.Fulfillment.QuoteRanking)
	if err != nil {
		return nil, err
	}

	// 1. Upstream clients
	b.breakers = rpc.NewBreakerRegistry(cfg.Resilience.Breaker, b.onBreakerChange)
	retrier := rpc.NewRetrier(cfg.Resilience.Retry)

	shipProvider, invProvider := b.newProviders()
	b.shipping = rpc.NewClient(shipProvider, b.breakers.Get(shipProvider.Name()), retrier, fault.NewCollector(cfg.Resilience.ErrorBuffer))
	b.inventory = rpc.NewClient(invProvider, b.breakers.Get(invProvider.Name()), retrier, fault.NewCollector(cfg.Resilience.ErrorBuffer))
	shipClient := shipping.NewClient(b.shipping)
	invClient := inventory.NewClient(b.inventory)

	// 2. Storage
	var runs storage.RunRepository
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		b.db = db
		runs = postgres.NewRunRepo(db)
		b.log.Info("Using PostgreSQL run storage")
	} else {
		runs = memory.NewRunRepo(memory.NewMemoryStorage())
		b.log.Info("Using Memory run storage")
	}

	b.pruner = worker.NewPruner(cfg.Fulfillment.RunRetention, runs)

	// 3. Rate cache
	var cache rates.Cache
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			b.log.Warn("Failed to connect to Redis, rate cache disabled", "error", err)
		} else {
			b.redisClient = client
			cache = redisclient.NewRateCache(client)
		}
	}

	// 4. Events
	b.publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		b.publisher = events.NewKafkaProducer(cfg.Kafka)
		b.log.Info("Publishing fulfillment events", "topic", cfg.Kafka.Topic)
	}

	// 5. Domain services and tool surface
	aggregator := rates.NewAggregator(shipClient, cfg.Rates, cache)
	workflow := fulfillment.NewWorkflow(invClient,
		fulfillment.WithRunRepository(runs),
		fulfillment.WithQuoteRanker(ranker),
		fulfillment.WithPublisher(b.publisher),
		fulfillment.WithFallbackCarrier(cfg.Fulfillment.FallbackCarrier),
	)
	b.registry = tools.NewBridgeRegistry(shipClient, aggregator, workflow)

	b.monitor = server.NewMonitor(cfg.MockMode, 5*time.Second, b.shipping, b.inventory)
	if b.db != nil {
		b.monitor.AddDependency("postgres", b.db)
	}
	if b.redisClient != nil {
		b.monitor.AddDependency("redis", b.redisClient)
	}
	b.server = server.NewServer(cfg.Server, b.registry, b.monitor)

	for _, name := range []string{shipping.ServiceName, inventory.ServiceName} {
		metrics.BreakerState.WithLabelValues(name).Set(float64(breaker.Closed))
	}
	return b, nil
}

// newProviders picks canned or live upstreams.
func (b *Bridge) newProviders() (rpc.Provider, rpc.Provider) {
	if b.cfg.MockMode {
		b.log.Warn("Mock mode enabled, upstream platforms will not be called")
		return shipping.NewMock(), inventory.NewMock()
	}

	ship := rpc.NewHTTPProvider(shipping.ServiceName, b.cfg.Shipping.BaseURL, b.cfg.Shipping.Timeout,
		rpc.BasicAuth(b.cfg.Shipping.APIKey))
	inv := rpc.NewHTTPProvider(inventory.ServiceName, b.cfg.Inventory.BaseURL, b.cfg.Inventory.Timeout,
		rpc.HeaderAuth(InventoryAPIKeyHeader, b.cfg.Inventory.APIKey))
	b.providers = append(b.providers, ship, inv)
	return ship, inv
}

func (b *Bridge) onBreakerChange(name string, from, to breaker.Phase) {
	metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	if to == breaker.Open {
		b.log.Warn("Circuit opened", "service", name, "from", from.String())
		return
	}
	b.log.Info("Circuit state changed", "service", name, "from", from.String(), "to", to.String())
}

// Registry returns the tool registry.
func (b *Bridge) Registry() *tools.Registry {
	return b.registry
}

// Server returns the HTTP server.
func (b *Bridge) Server() *server.Server {
	return b.server
}

// Start starts the HTTP server and background tasks. It does not block.
func (b *Bridge) Start(ctx context.Context) error {
	go func() {
		if err := b.server.Start(); err != nil {
			b.log.Error("HTTP server failed", "error", err)
		}
	}()

	go b.runMetricsUpdater(ctx)
	go b.pruner.Start(ctx)
	return nil
}

// Stop stops the server and releases connections.
func (b *Bridge) Stop(ctx context.Context) error {
	b.log.Info("Stopping bridge...")

	var errs []error
	if err := b.server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.log.Warn("Failed to close database", "error", err)
		}
	}
	for _, p := range b.providers {
		_ = p.Close()
	}
	return errors.Join(errs...)
}

// runMetricsUpdater mirrors breaker phases into the gauge.
func (b *Bridge) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, st := range b.breakers.States() {
				metrics.BreakerState.WithLabelValues(name).Set(float64(st.Phase))
			}
			b.log.Debug("Updated breaker metrics")
		}
	}
}
