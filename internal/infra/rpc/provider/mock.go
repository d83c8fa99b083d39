package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// MockHandler answers a request with a status and a JSON-serializable payload.
type MockHandler func(req Request) (status int, payload any)

type mockRoute struct {
	method string
	prefix string
	h      MockHandler
}

// MockProvider answers from an in-memory route table and never touches the
// network. Responses go through the same classification as HTTPProvider.
type MockProvider struct {
	name string

	mu     sync.RWMutex
	routes []mockRoute
	calls  map[string]int

	Monitor *ProviderMonitor
}

// NewMockProvider creates an empty mock.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:    name,
		calls:   make(map[string]int),
		Monitor: NewProviderMonitor(),
	}
}

// Name returns the provider's name.
func (m *MockProvider) Name() string {
	return m.name
}

// Handle registers h for method and path prefix. Later registrations for an
// identical method+prefix replace earlier ones; otherwise the longest prefix wins.
func (m *MockProvider) Handle(method, prefix string, h MockHandler) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.routes {
		if r.method == method && r.prefix == prefix {
			m.routes[i].h = h
			return m
		}
	}
	m.routes = append(m.routes, mockRoute{method: method, prefix: prefix, h: h})
	return m
}

// Stats returns the monitor snapshot.
func (m *MockProvider) Stats() MonitorStats {
	return m.Monitor.GetStats()
}

// Calls returns how many requests matched method and prefix.
func (m *MockProvider) Calls(method, prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method+" "+prefix]
}

// Execute dispatches req to the best matching route.
func (m *MockProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fault.Classify(0, nil, err).WithRequest(m.name, req.Method, req.Path)
	}

	start := time.Now()

	m.mu.Lock()
	var best *mockRoute
	for i := range m.routes {
		r := &m.routes[i]
		if r.method != req.Method || !strings.HasPrefix(req.Path, r.prefix) {
			continue
		}
		if best == nil || len(r.prefix) > len(best.prefix) {
			best = r
		}
	}
	if best != nil {
		m.calls[best.method+" "+best.prefix]++
	}
	m.mu.Unlock()

	if best == nil {
		m.Monitor.RecordFailure()
		return nil, fault.Classify(http.StatusNotFound, []byte(`{"error":"no mock route"}`), nil).
			WithRequest(m.name, req.Method, req.Path)
	}

	status, payload := best.h(req)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fault.Wrap(fault.KindUnknown, "marshal mock payload", err).
			WithRequest(m.name, req.Method, req.Path)
	}

	if fe := fault.Classify(status, data, nil); fe != nil {
		m.Monitor.RecordFailure()
		return nil, fe.WithRequest(m.name, req.Method, req.Path)
	}

	latency := time.Since(start)
	m.Monitor.RecordRequest(latency)
	return &Response{StatusCode: status, Body: data, Latency: latency}, nil
}

// Failure returns a handler that always answers with status and message.
func Failure(status int, message string) MockHandler {
	return func(Request) (int, any) {
		return status, map[string]any{"error": map[string]string{"message": message}}
	}
}
