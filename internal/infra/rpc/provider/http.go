package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// maxResponseSize caps how much of an upstream body is read (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Authenticator decorates outgoing requests with credentials.
type Authenticator func(req *http.Request)

// BasicAuth sends the API key as the basic-auth username with an empty password.
func BasicAuth(apiKey string) Authenticator {
	token := base64.StdEncoding.EncodeToString([]byte(apiKey + ":"))
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Basic "+token)
	}
}

// HeaderAuth sends a static credential header.
func HeaderAuth(header, value string) Authenticator {
	return func(req *http.Request) {
		req.Header.Set(header, value)
	}
}

// HTTPProvider implements Provider for JSON REST APIs.
type HTTPProvider struct {
	name       string
	baseURL    string
	httpClient *http.Client
	auth       Authenticator

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a provider. timeout applies to each individual call.
func NewHTTPProvider(name, baseURL string, timeout time.Duration, auth Authenticator) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		auth:    auth,
		Monitor: NewProviderMonitor(),
	}
}

// Name returns the provider's name.
func (p *HTTPProvider) Name() string {
	return p.name
}

// Execute performs the request.
func (p *HTTPProvider) Execute(ctx context.Context, r Request) (*Response, error) {
	start := time.Now()

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fault.Wrap(fault.KindValidation, "marshal request", err).
				WithRequest(p.name, r.Method, r.Path)
		}
		body = bytes.NewReader(data)
	}

	endpoint := p.baseURL + r.Path
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, body)
	if err != nil {
		return nil, fault.Wrap(fault.KindValidation, "create request", err).
			WithRequest(p.name, r.Method, r.Path)
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.auth != nil {
		p.auth(req)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.Monitor.RecordFailure()
		return nil, fault.Classify(0, nil, err).WithRequest(p.name, r.Method, r.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		p.Monitor.RecordFailure()
		return nil, fault.Classify(0, nil, fmt.Errorf("read response: %w", err)).
			WithRequest(p.name, r.Method, r.Path)
	}

	latency := time.Since(start)

	if resp.StatusCode == http.StatusTooManyRequests {
		p.Monitor.RecordThrottle(resp.Header.Get("Retry-After"))
	}

	if fe := fault.Classify(resp.StatusCode, data, nil); fe != nil {
		p.Monitor.RecordFailure()
		return nil, fe.WithRequest(p.name, r.Method, r.Path)
	}

	p.Monitor.RecordRequest(latency)
	return &Response{StatusCode: resp.StatusCode, Body: data, Latency: latency}, nil
}

// Stats returns the monitor snapshot.
func (p *HTTPProvider) Stats() MonitorStats {
	return p.Monitor.GetStats()
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
