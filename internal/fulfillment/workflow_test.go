package fulfillment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/events"
	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/platform/inventory"
)

func newRequest() Request {
	return Request{
		Customer:  domain.CustomerInput{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
		ChannelID: "42",
		Item:      domain.LineItem{SellableID: "3003", Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
		DeliveryAddress: domain.Address{
			Name: "Ada Lovelace", Street1: "1 Main St", City: "Seattle", State: "WA", Zip: "98101", Country: "US",
		},
	}
}

// newGateway wires a single-attempt client to the offline inventory platform.
func newGateway(mock *provider.MockProvider) *inventory.Client {
	retrier := rpc.NewRetrier(rpc.RetryConfig{MaxAttempts: 1})
	return inventory.NewClient(rpc.NewClient(mock, nil, retrier, nil))
}

type recordingPublisher struct {
	events []events.Envelope
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, value any) error {
	if env, ok := value.(events.Envelope); ok {
		p.events = append(p.events, env)
	}
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestRun_QuotePath(t *testing.T) {
	mock := inventory.NewMock()
	pub := &recordingPublisher{}
	wf := NewWorkflow(newGateway(mock), WithPublisher(pub))

	st, err := wf.Run(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st.Status != StatusSuccess || st.Path != domain.ShipmentFromQuote {
		t.Errorf("status=%s path=%s", st.Status, st.Path)
	}
	if st.SelectedQuote == nil || st.SelectedQuote.ID != "quote_usps_ground" {
		t.Errorf("selected = %+v, want the cheapest quote", st.SelectedQuote)
	}
	if st.Shipment.ID != inventory.MockShipmentID || st.Shipment.TrackingNumber == "" {
		t.Errorf("shipment = %+v", st.Shipment)
	}
	if len(pub.events) != 1 || pub.events[0].Type != CompletedEvent {
		t.Errorf("events = %+v", pub.events)
	}

	run, err := wf.GetRun(context.Background(), st.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != storage.RunSucceeded || run.Path != "quote" || len(run.Steps) != 5 {
		t.Errorf("run = %+v", run)
	}
}

func TestRun_EmptyQuotesFallsBack(t *testing.T) {
	mock := inventory.NewMock()
	mock.Handle(http.MethodGet, "/shipping/quotes/", func(provider.Request) (int, any) {
		return http.StatusOK, []any{}
	})
	wf := NewWorkflow(newGateway(mock))

	st, err := wf.Run(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st.Path != domain.ShipmentFromFallback || st.Status != StatusSuccess {
		t.Errorf("path=%s status=%s", st.Path, st.Status)
	}
	if !strings.HasPrefix(st.Shipment.TrackingNumber, "SB-") {
		t.Errorf("tracking number = %q", st.Shipment.TrackingNumber)
	}
	if st.Shipment.Carrier != DefaultFallbackCarrier {
		t.Errorf("carrier = %q", st.Shipment.Carrier)
	}
	if st.UpdatedOrder.Status != "shipped" || st.UpdatedOrder.TrackingNumber != st.Shipment.TrackingNumber {
		t.Errorf("updated order = %+v", st.UpdatedOrder)
	}
	if n := mock.Calls(http.MethodPost, "/shipping/shipments"); n != 0 {
		t.Errorf("shipment endpoint called %d times", n)
	}
}

func TestRun_QuoteFetchFailureIsTolerated(t *testing.T) {
	mock := inventory.NewMock()
	mock.Handle(http.MethodGet, "/shipping/quotes/", provider.Failure(http.StatusServiceUnavailable, "quotes down"))
	wf := NewWorkflow(newGateway(mock), WithTrackingGenerator(func() string { return "SB-FIXED" }))

	st, err := wf.Run(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("quote failure must not abort: %v", err)
	}
	if st.Path != domain.ShipmentFromFallback || st.Shipment.TrackingNumber != "SB-FIXED" {
		t.Errorf("shipment = %+v", st.Shipment)
	}
	if len(st.Quotes) != 0 {
		t.Errorf("quotes = %+v", st.Quotes)
	}

	run, _ := wf.GetRun(context.Background(), st.RunID)
	if run.Steps[3].Name != StepFetchQuotes || run.Steps[3].Status != storage.StepTolerated {
		t.Errorf("quote step = %+v", run.Steps[3])
	}
}

func TestRun_ShipmentFailureFallsBack(t *testing.T) {
	mock := inventory.NewMock()
	mock.Handle(http.MethodPost, "/shipping/shipments", provider.Failure(http.StatusUnprocessableEntity, "label rejected"))
	wf := NewWorkflow(newGateway(mock))

	st, err := wf.Run(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st.Path != domain.ShipmentFromFallback {
		t.Fatalf("path = %s", st.Path)
	}
	// Carrier and cost come from the quote that could not be booked.
	if st.Shipment.Carrier != "USPS" || !st.Shipment.Cost.Equal(decimal.RequireFromString("7.45")) {
		t.Errorf("shipment = %+v", st.Shipment)
	}
}

func TestRun_OrderFailureAborts(t *testing.T) {
	mock := inventory.NewMock()
	mock.Handle(http.MethodPost, "/orders", provider.Failure(http.StatusInternalServerError, "boom"))
	wf := NewWorkflow(newGateway(mock))
	ctx := context.Background()

	st, err := wf.Run(ctx, newRequest())
	if st != nil {
		t.Fatalf("aborted run returned state %+v", st)
	}
	if fault.KindOf(err) != fault.KindUpstream {
		t.Errorf("kind = %s, want upstream", fault.KindOf(err))
	}
	if n := mock.Calls(http.MethodGet, "/shipping/quotes/"); n != 0 {
		t.Errorf("quotes fetched %d times after abort", n)
	}
	if n := mock.Calls(http.MethodPost, "/shipping/shipments"); n != 0 {
		t.Errorf("shipment created %d times after abort", n)
	}

	runs, err := wf.ListRuns(ctx, storage.RunAborted, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("aborted runs = %v, %v", runs, err)
	}
	run := runs[0]
	if run.FailedStep != StepCreateOrder || run.CustomerID != inventory.MockCustomerID || run.OrderID != "" {
		t.Errorf("run = %+v", run)
	}
}

func TestRun_FallbackFailureAborts(t *testing.T) {
	mock := inventory.NewMock()
	mock.Handle(http.MethodGet, "/shipping/quotes/", func(provider.Request) (int, any) {
		return http.StatusOK, []any{}
	})
	wf := NewWorkflow(newGateway(mock))

	// The address update succeeds; the second PUT marks the order shipped.
	puts := 0
	mock.Handle(http.MethodPut, "/orders/", func(req provider.Request) (int, any) {
		puts++
		if puts > 1 {
			return http.StatusServiceUnavailable, map[string]string{"error": "maintenance"}
		}
		return http.StatusOK, map[string]any{"id": 5001, "allocations": []map[string]int{{"id": 7001}}}
	})

	if _, err := wf.Run(context.Background(), newRequest()); err == nil {
		t.Fatal("expected fallback failure to surface")
	}
	runs, _ := wf.ListRuns(context.Background(), storage.RunAborted, 1)
	if len(runs) != 1 || runs[0].FailedStep != StepMarkShipped || runs[0].AllocationID != inventory.MockAllocationID {
		t.Errorf("runs = %+v", runs)
	}
}

func TestRun_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	wf := NewWorkflow(newGateway(inventory.NewMock()), WithPublisher(pub))

	st, err := wf.Run(context.Background(), newRequest())
	if err != nil || st.Status != StatusSuccess {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

type failingRepo struct{ storage.RunRepository }

func (failingRepo) Save(ctx context.Context, run *storage.Run) error {
	return errors.New("db down")
}

func TestRun_PersistFailureDoesNotFail(t *testing.T) {
	wf := NewWorkflow(newGateway(inventory.NewMock()), WithRunRepository(failingRepo{}))
	if _, err := wf.Run(context.Background(), newRequest()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}
