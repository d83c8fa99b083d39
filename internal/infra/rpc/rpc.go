// Package rpc provides the resilient client used for every outbound call.
//
// Each call is composed as breaker(retry(provider)):
//   - provider/ - raw transport (HTTPProvider, MockProvider) and latency monitoring
//   - routing/  - bounded retry with jittered exponential backoff
//   - breaker/  - per-dependency circuit breaker state machine
//   - fault/    - error taxonomy, classification and the rolling error buffer
//
// # Quick Start
//
//	p := rpc.NewHTTPProvider("shipping", baseURL, 30*time.Second, rpc.BasicAuth(apiKey))
//	breakers := rpc.NewBreakerRegistry(rpc.DefaultBreakerConfig, nil)
//	client := rpc.NewClient(p, breakers.Get("shipping"), rpc.NewRetrier(rpc.DefaultRetryConfig), nil)
//
//	var shipment shipmentDTO
//	err := client.Post(ctx, "/shipments", body, &shipment)
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
	"github.com/vietddude/shipbridge/internal/infra/rpc/routing"
)

// =============================================================================
// Re-exported types from provider package
// =============================================================================

// Provider performs a single round-trip to an upstream.
type Provider = provider.Provider

// Request is a single REST call.
type Request = provider.Request

// HTTPProvider implements Provider for JSON REST APIs.
type HTTPProvider = provider.HTTPProvider

// MockProvider implements Provider from canned routes.
type MockProvider = provider.MockProvider

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats = provider.MonitorStats

// Authenticator decorates outgoing requests with credentials.
type Authenticator = provider.Authenticator

// NewHTTPProvider creates a new HTTP provider.
func NewHTTPProvider(name, baseURL string, timeout time.Duration, auth Authenticator) *HTTPProvider {
	return provider.NewHTTPProvider(name, baseURL, timeout, auth)
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider(name string) *MockProvider {
	return provider.NewMockProvider(name)
}

// BasicAuth sends the key as the basic-auth username.
var BasicAuth = provider.BasicAuth

// HeaderAuth sends a static credential header.
var HeaderAuth = provider.HeaderAuth

// =============================================================================
// Re-exported types from routing package
// =============================================================================

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// Retrier runs operations with bounded backoff.
type Retrier = routing.Retrier

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// NewRetrier creates a retrier.
func NewRetrier(cfg RetryConfig) *Retrier {
	return routing.NewRetrier(cfg)
}

// =============================================================================
// Re-exported types from breaker package
// =============================================================================

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig = breaker.Config

// BreakerRegistry hands out one breaker per dependency.
type BreakerRegistry = breaker.Registry

// DefaultBreakerConfig provides sensible breaker defaults.
var DefaultBreakerConfig = breaker.DefaultConfig

// NewBreakerRegistry creates a breaker registry.
func NewBreakerRegistry(cfg BreakerConfig, onChange breaker.StateChangeFunc) *BreakerRegistry {
	return breaker.NewRegistry(cfg, onChange)
}

// =============================================================================
// Re-exported types from fault package
// =============================================================================

// Error is a classified upstream failure.
type Error = fault.Error

// ErrorKind classifies a failure.
type ErrorKind = fault.Kind
