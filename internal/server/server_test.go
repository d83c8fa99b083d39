package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
	"github.com/vietddude/shipbridge/internal/tools"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSource struct {
	health rpc.ServiceHealth
}

func (s *stubSource) Health() rpc.ServiceHealth { return s.health }

func source(name, phase string) *stubSource {
	return &stubSource{health: rpc.ServiceHealth{Service: name, Breaker: phase}}
}

type echoParams struct {
	Text string `json:"text" binding:"required"`
}

func newTestServer(sources ...HealthSource) *Server {
	reg := tools.NewRegistry()
	reg.Register("echo", "Echo text back.", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p echoParams
		if err := json.Unmarshal(raw, &p); err != nil || p.Text == "" {
			return nil, fault.New(fault.KindValidation, "text is required")
		}
		return map[string]string{"text": p.Text}, nil
	})
	reg.Register("blocked", "Always rejected by an open breaker.", func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, fault.New(fault.KindCircuitOpen, "circuit open for shipping").WithRequest("shipping", "POST", "/shipments")
	})
	reg.Register("upstream", "Always fails upstream.", func(ctx context.Context, raw json.RawMessage) (any, error) {
		fe := fault.New(fault.KindUpstream, "bad gateway")
		fe.StatusCode = http.StatusBadGateway
		return nil, fe
	})
	return NewServer(Config{}, reg, NewMonitor(true, 0, sources...))
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		sources    []HealthSource
		wantStatus SystemStatus
		wantCode   int
	}{
		{"all closed", []HealthSource{source("shipping", "closed"), source("inventory", "closed")}, StatusHealthy, http.StatusOK},
		{"one open", []HealthSource{source("shipping", "open"), source("inventory", "closed")}, StatusDegraded, http.StatusOK},
		{"half open", []HealthSource{source("shipping", "half_open"), source("inventory", "closed")}, StatusDegraded, http.StatusOK},
		{"all open", []HealthSource{source("shipping", "open"), source("inventory", "open")}, StatusCritical, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(tt.sources...), http.MethodGet, "/health", "")
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var report HealthReport
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Status != tt.wantStatus || !report.MockMode {
				t.Errorf("report = %+v", report)
			}
		})
	}
}

func TestHealth_ThrottledProviderDegrades(t *testing.T) {
	src := source("shipping", "closed")
	src.health.Provider = &provider.MonitorStats{Status: provider.StatusThrottled.String()}

	rec := do(t, newTestServer(src), http.MethodGet, "/health", "")
	var report HealthReport
	_ = json.Unmarshal(rec.Body.Bytes(), &report)
	if report.Services["shipping"].Status != StatusDegraded {
		t.Errorf("report = %+v", report)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Health(ctx context.Context) error { return p.err }

func TestHealth_Dependencies(t *testing.T) {
	s := newTestServer(source("shipping", "closed"))
	s.monitor.AddDependency("postgres", stubPinger{})
	s.monitor.AddDependency("redis", stubPinger{err: errors.New("connection refused")})

	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var report HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", report.Status)
	}
	if report.Dependencies["postgres"].Status != StatusHealthy {
		t.Errorf("postgres = %+v", report.Dependencies["postgres"])
	}
	if dep := report.Dependencies["redis"]; dep.Status != StatusDegraded || dep.Error != "connection refused" {
		t.Errorf("redis = %+v", dep)
	}

	rec = do(t, s, http.MethodGet, "/health/detailed", "")
	if !strings.Contains(rec.Body.String(), `"connection refused"`) {
		t.Errorf("detailed missing dependency error: %s", rec.Body.String())
	}
}

func TestHealthDetailed(t *testing.T) {
	src := source("shipping", "open")
	src.health.RecentErrors = []*fault.Error{fault.New(fault.KindTimeout, "slow")}
	src.health.ErrorCounts = map[fault.Kind]int{fault.KindTimeout: 1}

	rec := do(t, newTestServer(src), http.MethodGet, "/health/detailed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var body struct {
		Services []rpc.ServiceHealth `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Services) != 1 || body.Services[0].ErrorCounts[fault.KindTimeout] != 1 || len(body.Services[0].RecentErrors) != 1 {
		t.Errorf("detailed = %+v", body)
	}
}

func TestTools_ListAndCall(t *testing.T) {
	s := newTestServer()

	rec := do(t, s, http.MethodGet, "/tools", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"echo"`) {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/tools/echo", `{"text": "hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body %s", rec.Code, rec.Body.String())
	}
	var ok struct {
		Result map[string]string `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil || ok.Result["text"] != "hi" {
		t.Errorf("result = %s", rec.Body.String())
	}
}

func TestTools_StructuredFailures(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name      string
		path      string
		body      string
		code      int
		kind      fault.Kind
		retryable bool
		upstream  int
	}{
		{"validation", "/tools/echo", `{}`, http.StatusBadRequest, fault.KindValidation, false, 0},
		{"unknown tool", "/tools/nope", `{}`, http.StatusNotFound, fault.KindNotFound, false, 0},
		{"circuit open", "/tools/blocked", `{}`, http.StatusServiceUnavailable, fault.KindCircuitOpen, false, 0},
		{"upstream", "/tools/upstream", `{}`, http.StatusBadGateway, fault.KindUpstream, true, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.code {
				t.Errorf("code = %d, want %d", rec.Code, tt.code)
			}
			got := decodeError(t, rec)
			if got.Kind != tt.kind || got.Retryable != tt.retryable || got.StatusCode != tt.upstream || got.Message == "" {
				t.Errorf("error = %+v", got)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	want := map[fault.Kind]int{
		fault.KindValidation:         http.StatusBadRequest,
		fault.KindAuth:               http.StatusBadGateway,
		fault.KindNotFound:           http.StatusNotFound,
		fault.KindRateLimited:        http.StatusTooManyRequests,
		fault.KindTimeout:            http.StatusGatewayTimeout,
		fault.KindNetworkUnavailable: http.StatusServiceUnavailable,
		fault.KindCircuitOpen:        http.StatusServiceUnavailable,
		fault.KindUpstream:           http.StatusBadGateway,
		fault.KindUnknown:            http.StatusInternalServerError,
	}
	for kind, code := range want {
		if got := HTTPStatus(kind); got != code {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
}
