package fault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

var throttlePatterns = []string{
	"rate limit",
	"too many requests",
	"quota exceeded",
	"throttl",
}

var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"broken pipe",
	"network is unreachable",
	"eof",
}

// Classify maps a raw failure to an *Error. Pass the HTTP status and body for
// a completed round-trip, or err for a transport failure. Returns nil for a
// 2xx status with no error. Classification never fails: anything that matches
// no known pattern becomes KindUnknown. Already-classified errors pass through.
func Classify(status int, body []byte, err error) *Error {
	if err != nil {
		if fe, ok := As(err); ok {
			return fe
		}
		return classifyTransport(err)
	}
	if status >= 200 && status < 300 {
		return nil
	}
	return classifyStatus(status, body)
}

func classifyTransport(err error) *Error {
	msg := err.Error()

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		// Caller went away: report as timeout but do not retry.
		e := Wrap(KindTimeout, "request canceled", err)
		e.Retryable = false
		return e
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(KindTimeout, msg, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return Wrap(KindValidation, "unexpected response shape: "+msg, err)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return Wrap(KindNetworkUnavailable, msg, err)
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline") {
		return Wrap(KindTimeout, msg, err)
	}
	for _, p := range networkPatterns {
		if strings.Contains(lower, p) {
			return Wrap(KindNetworkUnavailable, msg, err)
		}
	}

	return Wrap(KindUnknown, msg, err)
}

func classifyStatus(status int, body []byte) *Error {
	msg := upstreamMessage(status, body)

	var kind Kind
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status >= 500 && status < 600:
		kind = KindUpstream
	case isThrottleText(msg):
		kind = KindRateLimited
	default:
		kind = KindUnknown
	}

	e := New(kind, msg)
	e.StatusCode = status
	return e
}

func isThrottleText(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range throttlePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// upstreamMessage pulls a human readable message out of the common error envelopes
// ({"error":{"message":..}}, {"error":".."}, {"message":..}) and falls back to the raw body.
func upstreamMessage(status int, body []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		if len(env.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(env.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if env.Message != "" {
			return env.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		text = text[:256]
	}
	if text == "" {
		return fmt.Sprintf("http %d: %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("http %d: %s", status, text)
}
