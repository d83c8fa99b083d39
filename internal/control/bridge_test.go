package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vietddude/shipbridge/internal/core/config"
	"github.com/vietddude/shipbridge/internal/fulfillment"
	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/metrics"
	"github.com/vietddude/shipbridge/internal/rates"
	"github.com/vietddude/shipbridge/internal/tools"
)

func mockConfig() config.AppConfig {
	return config.AppConfig{
		MockMode: true,
		Resilience: config.ResilienceConfig{
			Retry:       rpc.RetryConfig{MaxAttempts: 1},
			Breaker:     breaker.Config{FailureThreshold: 2, Cooldown: time.Minute},
			ErrorBuffer: 10,
		},
		Rates: rates.Config{Carriers: rates.DefaultCarriers, TopN: 3},
	}
}

func TestBridge_MockLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := NewBridge(ctx, mockConfig())
	if err != nil {
		t.Fatalf("NewBridge failed: %v", err)
	}

	out, err := b.Registry().Call(ctx, tools.CompareRates, json.RawMessage(`{"shipment": {
		"from": {"street1": "1 Market St", "city": "San Francisco", "zip": "94105", "country": "US"},
		"to": {"street1": "500 Pine St", "city": "Seattle", "zip": "98101", "country": "US"},
		"parcel": {"weight": 16}
	}}`))
	if err != nil {
		t.Fatalf("compare_rates failed: %v", err)
	}
	if res := out.(*rates.Result); res.TotalFound != 8 || len(res.TopRates) != 3 {
		t.Errorf("result = %+v", res)
	}

	out, err = b.Registry().Call(ctx, tools.FulfillOrder, json.RawMessage(`{
		"customer": {"email": "ada@example.com", "first_name": "Ada"},
		"channel_id": "42",
		"item": {"sellable_id": "3003", "quantity": 1},
		"delivery_address": {"street1": "500 Pine St", "city": "Seattle", "zip": "98101", "country": "US"}
	}`))
	if err != nil {
		t.Fatalf("fulfill_order failed: %v", err)
	}
	if st := out.(*fulfillment.State); st.Status != fulfillment.StatusSuccess {
		t.Errorf("state = %+v", st)
	}

	rec := httptest.NewRecorder()
	b.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := b.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestBridge_BreakerGauge(t *testing.T) {
	b, err := NewBridge(context.Background(), mockConfig())
	if err != nil {
		t.Fatalf("NewBridge failed: %v", err)
	}

	b.onBreakerChange("shipping", breaker.Closed, breaker.Open)
	if got := testutil.ToFloat64(metrics.BreakerState.WithLabelValues("shipping")); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}
	b.onBreakerChange("shipping", breaker.Open, breaker.HalfOpen)
	if got := testutil.ToFloat64(metrics.BreakerState.WithLabelValues("shipping")); got != 2 {
		t.Errorf("gauge = %v, want 2", got)
	}
}

func TestBridge_RejectsUnknownQuoteRanking(t *testing.T) {
	cfg := mockConfig()
	cfg.Fulfillment.QuoteRanking = "random"
	if _, err := NewBridge(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown quote ranking")
	}
}
