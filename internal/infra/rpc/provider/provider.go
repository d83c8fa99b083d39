// Package provider implements the raw transport under the resilient client.
//
// This package contains:
//   - Provider interface: one request/response round-trip to a named upstream
//   - HTTPProvider: JSON over HTTPS with header authentication
//   - MockProvider: canned responses for offline mode
//   - ProviderMonitor: latency and throttle tracking for health reports
package provider

import (
	"context"
	"net/url"
	"time"
)

// Request is a single REST call.
type Request struct {
	// Method is the HTTP verb (GET, POST, PUT).
	Method string
	// Path is appended to the provider base URL.
	Path  string
	Query url.Values
	// Body is JSON encoded when non-nil.
	Body any
}

// Response is a completed 2xx round-trip.
type Response struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Provider performs one request/response pair. Non-2xx responses and
// transport errors are returned as *fault.Error.
type Provider interface {
	// Name identifies the upstream (e.g. "shipping", "inventory").
	Name() string

	Execute(ctx context.Context, req Request) (*Response, error)
}

// Monitored is implemented by providers that keep a ProviderMonitor.
type Monitored interface {
	Stats() MonitorStats
}
