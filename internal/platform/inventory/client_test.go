package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

func newMockClient() *Client {
	retrier := rpc.NewRetrier(rpc.RetryConfig{MaxAttempts: 1})
	return NewClient(rpc.NewClient(NewMock(), nil, retrier, nil))
}

func TestMock_HappyPath(t *testing.T) {
	c := newMockClient()
	ctx := context.Background()

	cust, err := c.CreateCustomer(ctx, domain.CustomerInput{Email: "ada@example.com", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("CreateCustomer failed: %v", err)
	}
	if cust.ID != MockCustomerID {
		t.Errorf("customer id = %s", cust.ID)
	}

	order, err := c.CreateOrder(ctx, domain.OrderInput{
		ChannelID:  "42",
		CustomerID: cust.ID,
		Item:       domain.LineItem{SellableID: "3003", Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.ID != MockOrderID || order.CustomerID != MockCustomerID {
		t.Errorf("unexpected order %+v", order)
	}

	updated, err := c.SetDeliveryAddress(ctx, order.ID, domain.Address{Street1: "500 Pine St", City: "Seattle", Zip: "98101", Country: "US"})
	if err != nil {
		t.Fatalf("SetDeliveryAddress failed: %v", err)
	}
	if updated.AllocationID != MockAllocationID {
		t.Errorf("allocation = %s", updated.AllocationID)
	}
	if updated.DeliveryAddress == nil || updated.DeliveryAddress.City != "Seattle" {
		t.Errorf("delivery address not echoed: %+v", updated.DeliveryAddress)
	}

	quotes, err := c.FetchQuotes(ctx, updated.AllocationID)
	if err != nil {
		t.Fatalf("FetchQuotes failed: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(quotes))
	}
	if !quotes[0].TotalPrice.GreaterThan(quotes[1].TotalPrice) {
		t.Errorf("canned quotes should arrive unsorted")
	}

	shp, err := c.CreateShipment(ctx, order.ID, updated.AllocationID, quotes[1])
	if err != nil {
		t.Fatalf("CreateShipment failed: %v", err)
	}
	if shp.ID != MockShipmentID || shp.Source != domain.ShipmentFromQuote || shp.TrackingNumber == "" {
		t.Errorf("unexpected shipment %+v", shp)
	}
	if !shp.Cost.Equal(decimal.RequireFromString("7.45")) {
		t.Errorf("cost = %s", shp.Cost)
	}
}

func TestMock_MarkShipped(t *testing.T) {
	c := newMockClient()
	order, err := c.MarkShipped(context.Background(), MockOrderID, "USPS", "SB-1234")
	if err != nil {
		t.Fatalf("MarkShipped failed: %v", err)
	}
	if order.Status != "shipped" || order.TrackingNumber != "SB-1234" || order.Carrier != "USPS" {
		t.Errorf("unexpected order %+v", order)
	}
}

func TestMock_UnknownOrderIsNotFound(t *testing.T) {
	c := newMockClient()
	_, err := c.MarkShipped(context.Background(), "999", "USPS", "x")
	if fault.KindOf(err) != fault.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestClient_InputValidation(t *testing.T) {
	c := newMockClient()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"blank email", func() error {
			_, err := c.CreateCustomer(ctx, domain.CustomerInput{})
			return err
		}},
		{"non numeric channel", func() error {
			_, err := c.CreateOrder(ctx, domain.OrderInput{ChannelID: "web", CustomerID: "1", Item: domain.LineItem{SellableID: "1"}})
			return err
		}},
		{"bad allocation", func() error {
			_, err := c.FetchQuotes(ctx, "")
			return err
		}},
		{"quote without remote id", func() error {
			_, err := c.CreateShipment(ctx, "1", "7001", domain.Quote{ID: "q"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := fault.KindOf(tt.call()); kind != fault.KindValidation {
				t.Errorf("kind = %s, want validation", kind)
			}
		})
	}
}

func TestClient_MissingAllocationIsValidation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "vq_test" {
			t.Errorf("missing api key header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 5001, "status": "awaiting_stock"})
	}))
	defer server.Close()

	p := rpc.NewHTTPProvider(ServiceName, server.URL, time.Second, rpc.HeaderAuth("x-api-key", "vq_test"))
	c := NewClient(rpc.NewClient(p, nil, rpc.NewRetrier(rpc.RetryConfig{MaxAttempts: 1}), nil))

	_, err := c.SetDeliveryAddress(context.Background(), "5001", domain.Address{Zip: "98101"})
	if fault.KindOf(err) != fault.KindValidation {
		t.Fatalf("expected validation, got %v", err)
	}
}
