package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
	"github.com/vietddude/shipbridge/internal/infra/rpc/routing"
	"github.com/vietddude/shipbridge/internal/metrics"
)

// Client is the resilient entry point for one upstream service.
// Each call runs as breaker(retry(provider)).
type Client struct {
	service  string
	provider provider.Provider
	breaker  *breaker.Breaker
	retrier  *routing.Retrier
	errors   *fault.Collector
	log      *slog.Logger
}

// NewClient wires a provider with its breaker, retrier and error collector.
// A nil breaker, retrier or collector is replaced by a default one.
func NewClient(p provider.Provider, b *breaker.Breaker, r *routing.Retrier, errs *fault.Collector) *Client {
	if b == nil {
		b = breaker.New(p.Name(), breaker.DefaultConfig)
	}
	if r == nil {
		r = routing.NewRetrier(routing.DefaultRetryConfig)
	}
	if errs == nil {
		errs = fault.NewCollector(0)
	}
	return &Client{
		service:  p.Name(),
		provider: p,
		breaker:  b,
		retrier:  r,
		errors:   errs,
		log:      slog.Default().With("service", p.Name()),
	}
}

// Service returns the upstream name.
func (c *Client) Service() string {
	return c.service
}

// Errors returns the rolling error buffer.
func (c *Client) Errors() *fault.Collector {
	return c.errors
}

// Do executes req and decodes a JSON response into out (skipped when out is nil).
// Every returned error is a *fault.Error.
func (c *Client) Do(ctx context.Context, req provider.Request, out any) error {
	start := time.Now()
	metrics.UpstreamCallsTotal.WithLabelValues(c.service, req.Method).Inc()

	var resp *provider.Response
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = routing.Do(ctx, c.retrier, func(ctx context.Context) (*provider.Response, error) {
			return c.provider.Execute(ctx, req)
		})
		return callErr
	})
	metrics.UpstreamLatency.WithLabelValues(c.service, req.Method).Observe(time.Since(start).Seconds())

	if err == nil && out != nil && len(resp.Body) > 0 {
		if decodeErr := json.Unmarshal(resp.Body, out); decodeErr != nil {
			err = decodeErr
		}
	}
	if err == nil {
		return nil
	}

	fe := fault.Classify(0, nil, err).WithRequest(c.service, req.Method, req.Path)
	c.record(fe)
	return fe
}

func (c *Client) record(fe *fault.Error) {
	c.errors.Add(fe)
	metrics.UpstreamErrorsTotal.WithLabelValues(c.service, string(fe.Kind)).Inc()
	c.log.Warn("upstream call failed",
		"kind", fe.Kind,
		"method", fe.Method,
		"endpoint", fe.Endpoint,
		"status", fe.StatusCode,
		"retryable", fe.Retryable,
		"error", fe.Message,
	)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, provider.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, provider.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, provider.Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// ServiceHealth is a diagnostic snapshot of one upstream.
type ServiceHealth struct {
	Service      string                 `json:"service"`
	Breaker      string                 `json:"breaker"`
	Failures     int                    `json:"consecutive_failures"`
	Provider     *provider.MonitorStats `json:"provider,omitempty"`
	ErrorCounts  map[fault.Kind]int     `json:"error_counts"`
	RecentErrors []*fault.Error         `json:"recent_errors"`
}

// Healthy reports whether the breaker is admitting traffic normally.
func (h ServiceHealth) Healthy() bool {
	return h.Breaker == breaker.Closed.String()
}

// Health returns the current diagnostic snapshot.
func (c *Client) Health() ServiceHealth {
	st := c.breaker.State()
	h := ServiceHealth{
		Service:      c.service,
		Breaker:      st.Phase.String(),
		Failures:     st.Failures,
		ErrorCounts:  c.errors.CountByKind(),
		RecentErrors: c.errors.Snapshot(),
	}
	if m, ok := c.provider.(provider.Monitored); ok {
		stats := m.Stats()
		h.Provider = &stats
	}
	return h
}
