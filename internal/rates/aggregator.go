// Package rates fans a shipment out to every carrier family, merges the
// answers and ranks them against the caller's preferences.
package rates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/metrics"
)

// AllCarriersScope names the unscoped query.
const AllCarriersScope = "all"

// RateSource quotes a shipment. An empty carrierAccounts means every carrier.
type RateSource interface {
	QueryRates(ctx context.Context, req domain.ShipmentRequest, carrierAccounts []string) ([]domain.Rate, error)
}

// Cache stores merged, deduplicated rates for a request.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.Rate, bool, error)
	Set(ctx context.Context, key string, rates []domain.Rate, ttl time.Duration) error
}

// CarrierScope is one carrier family and the account that rates it.
type CarrierScope struct {
	Name      string `yaml:"name"`
	AccountID string `yaml:"account_id"`
}

// Config controls fan-out and ranking.
type Config struct {
	Carriers []CarrierScope `yaml:"carriers"`
	TopN     int            `yaml:"top_n"`
	CacheTTL time.Duration  `yaml:"cache_ttl"`
}

// DefaultCarriers are the known carrier families.
var DefaultCarriers = []CarrierScope{
	{Name: "usps", AccountID: "ca_usps"},
	{Name: "ups", AccountID: "ca_ups"},
	{Name: "fedex", AccountID: "ca_fedex"},
	{Name: "dhl_express", AccountID: "ca_dhl_express"},
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Carriers: DefaultCarriers,
	TopN:     5,
	CacheTTL: 5 * time.Minute,
}

// ScopeFailure records a query that failed without failing the aggregation.
type ScopeFailure struct {
	Scope   string     `json:"scope"`
	Kind    fault.Kind `json:"kind"`
	Message string     `json:"message"`
}

// Result is the outcome of one aggregation.
type Result struct {
	TotalFound      int              `json:"total_found"`
	FilteredCount   int              `json:"filtered_count"`
	Recommendations Recommendations  `json:"recommendations"`
	TopRates        []RankedRate     `json:"top_rates"`
	CarrierSummary  []CarrierSummary `json:"carrier_summary"`
	FailedScopes    []ScopeFailure   `json:"failed_scopes,omitempty"`
	Cached          bool             `json:"cached"`
}

// Aggregator issues the all-carriers query plus one query per carrier family.
type Aggregator struct {
	source RateSource
	config Config
	cache  Cache
	log    *slog.Logger
}

// NewAggregator creates an aggregator. cache may be nil.
func NewAggregator(source RateSource, config Config, cache Cache) *Aggregator {
	if config.Carriers == nil {
		config.Carriers = DefaultConfig.Carriers
	}
	if config.TopN <= 0 {
		config.TopN = DefaultConfig.TopN
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultConfig.CacheTTL
	}
	return &Aggregator{
		source: source,
		config: config,
		cache:  cache,
		log:    slog.Default().With("component", "rates"),
	}
}

type scopeResult struct {
	scope string
	rates []domain.Rate
	err   error
}

// Aggregate quotes req across all scopes and ranks the merged rates.
// It fails only when every query fails; that error is the first scope's.
func (a *Aggregator) Aggregate(ctx context.Context, req domain.ShipmentRequest, prefs *domain.Preferences) (*Result, error) {
	merged, failures, cached, err := a.collect(ctx, req)
	if err != nil {
		return nil, err
	}

	found := Constrain(merged, req)
	filtered := Filter(found, prefs)

	return &Result{
		TotalFound:      len(found),
		FilteredCount:   len(filtered),
		Recommendations: Recommend(filtered),
		TopRates:        TopRates(filtered, prefs, a.config.TopN),
		CarrierSummary:  SummarizeCarriers(filtered),
		FailedScopes:    failures,
		Cached:          cached,
	}, nil
}

// collect returns merged, deduplicated rates from the cache or from a fan-out.
func (a *Aggregator) collect(ctx context.Context, req domain.ShipmentRequest) ([]domain.Rate, []ScopeFailure, bool, error) {
	key := CacheKey(req)
	if a.cache != nil {
		rates, ok, err := a.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RateCacheTotal.WithLabelValues("error").Inc()
			a.log.Warn("rate cache read failed", "error", err)
		case ok:
			metrics.RateCacheTotal.WithLabelValues("hit").Inc()
			return rates, nil, true, nil
		default:
			metrics.RateCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	results := a.fanOut(ctx, req)

	var (
		merged   []domain.Rate
		failures []ScopeFailure
		firstErr error
		anyOK    bool
	)
	for _, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			fe := fault.Classify(0, nil, r.err)
			failures = append(failures, ScopeFailure{Scope: r.scope, Kind: fe.Kind, Message: fe.Message})
			continue
		}
		anyOK = true
		merged = append(merged, r.rates...)
	}
	if !anyOK {
		return nil, nil, false, firstErr
	}

	merged = Dedup(merged)
	if a.cache != nil && len(failures) == 0 {
		if err := a.cache.Set(ctx, key, merged, a.config.CacheTTL); err != nil {
			a.log.Warn("rate cache write failed", "error", err)
		}
	}
	return merged, failures, false, nil
}

// fanOut runs every scope concurrently and waits for all of them to settle.
// Results keep scope order regardless of completion order.
func (a *Aggregator) fanOut(ctx context.Context, req domain.ShipmentRequest) []scopeResult {
	scopes := make([]CarrierScope, 0, len(a.config.Carriers)+1)
	scopes = append(scopes, CarrierScope{Name: AllCarriersScope})
	scopes = append(scopes, a.config.Carriers...)

	results := make([]scopeResult, len(scopes))
	g, ctx := errgroup.WithContext(ctx)
	for i, scope := range scopes {
		g.Go(func() error {
			var accounts []string
			if scope.AccountID != "" {
				accounts = []string{scope.AccountID}
			}

			rates, err := a.source.QueryRates(ctx, req, accounts)
			results[i] = scopeResult{scope: scope.Name, rates: rates, err: err}
			if err != nil {
				metrics.RateQueriesTotal.WithLabelValues(scope.Name, "error").Inc()
				a.log.Warn("rate query failed", "scope", scope.Name, "error", err)
				return nil // isolated: other scopes still count
			}
			metrics.RateQueriesTotal.WithLabelValues(scope.Name, "ok").Inc()
			a.log.Debug("rate query done", "scope", scope.Name, "rates", len(rates))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// CacheKey hashes the request. Preferences are applied after the cache.
func CacheKey(req domain.ShipmentRequest) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
