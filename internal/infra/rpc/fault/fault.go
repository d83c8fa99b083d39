// Package fault is the single failure vocabulary for upstream calls.
//
// Every transport error, non-2xx response and response-shape mismatch is
// turned into an *Error carrying a Kind and a retryability flag before it
// leaves the rpc layer.
package fault

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuth               Kind = "auth"
	KindNotFound           Kind = "not_found"
	KindRateLimited        Kind = "rate_limited"
	KindTimeout            Kind = "timeout"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindUpstream           Kind = "upstream_error"
	KindUnknown            Kind = "unknown"

	// KindCircuitOpen is the synthetic rejection issued by a breaker. It belongs to
	// the network-unavailable family but is never retried.
	KindCircuitOpen Kind = "circuit_open"
)

// RateLimitedMinDelay is the floor applied to backoff after a rate-limit response.
const RateLimitedMinDelay = 2 * time.Second

// Retryable returns the fixed retry default for the kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindNetworkUnavailable, KindUpstream, KindRateLimited:
		return true
	default:
		return false
	}
}

// Family folds circuit rejections into network-unavailable.
func (k Kind) Family() Kind {
	if k == KindCircuitOpen {
		return KindNetworkUnavailable
	}
	return k
}

// Error is a classified failure record. Treat it as immutable once created.
type Error struct {
	Kind       Kind      `json:"kind"`
	Retryable  bool      `json:"retryable"`
	StatusCode int       `json:"status_code,omitempty"`
	Service    string    `json:"service,omitempty"`
	Method     string    `json:"method,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Cause      error     `json:"-"`
}

var now = time.Now

// New builds an Error with the kind's default retryability.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Retryable: kind.Retryable(),
		Message:   message,
		Timestamp: now(),
	}
}

// Wrap builds an Error around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.Cause = cause
	return e
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Service != "" {
		msg = fmt.Sprintf("[%s] %s", e.Service, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// WithRequest returns a copy annotated with request context. Fields already set are kept.
func (e *Error) WithRequest(service, method, endpoint string) *Error {
	c := *e
	if c.Service == "" {
		c.Service = service
	}
	if c.Method == "" {
		c.Method = method
	}
	if c.Endpoint == "" {
		c.Endpoint = endpoint
	}
	return &c
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf classifies err and returns its kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify(0, nil, err).Kind
}
