package inventory

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
)

// Canned identifiers returned by the offline platform.
const (
	MockCustomerID   = "1001"
	MockOrderID      = "5001"
	MockAllocationID = "7001"
	MockShipmentID   = "9001"
)

func mockQuotes() []quoteDTO {
	two, three := 2, 3
	// Deliberately not sorted by price.
	return []quoteDTO{
		{
			ID:               "quote_ups_2nd_day",
			Carrier:          "UPS",
			Title:            "UPS 2nd Day Air",
			ServiceType:      "ups_2nd_day_air",
			TotalNetCharge:   "18.75",
			BaseRate:         "16.90",
			Currency:         "USD",
			TransitDays:      &two,
			RemoteShipmentID: "amzn-rs-0001",
		},
		{
			ID:               "quote_usps_ground",
			Carrier:          "USPS",
			Title:            "USPS Ground Advantage",
			ServiceType:      "usps_ground_advantage",
			TotalNetCharge:   "7.45",
			BaseRate:         "6.80",
			Currency:         "USD",
			TransitDays:      &three,
			RemoteShipmentID: "amzn-rs-0002",
		},
	}
}

func decodeBody(req provider.Request, v any) error {
	data, err := json.Marshal(req.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func invalid(msg string) (int, any) {
	return http.StatusUnprocessableEntity, map[string]any{"error": map[string]string{"message": msg}}
}

// NewMock returns an offline inventory platform with canned identifiers.
func NewMock() *provider.MockProvider {
	m := provider.NewMockProvider(ServiceName)

	m.Handle(http.MethodPost, "/customers", func(req provider.Request) (int, any) {
		var body createCustomerRequest
		if err := decodeBody(req, &body); err != nil || body.Customer.Email == "" {
			return invalid("email can't be blank")
		}
		return http.StatusCreated, customerDTO{
			ID:        1001,
			Email:     body.Customer.Email,
			FirstName: body.Customer.FirstName,
			LastName:  body.Customer.LastName,
		}
	})

	m.Handle(http.MethodPost, "/orders", func(req provider.Request) (int, any) {
		var body createOrderRequest
		if err := decodeBody(req, &body); err != nil || len(body.Order.LineItemsAttributes) == 0 {
			return invalid("order requires a line item")
		}
		return http.StatusCreated, orderDTO{
			ID:       5001,
			Number:   "#SB-5001",
			Status:   "awaiting_fulfillment",
			Customer: &customerDTO{ID: body.Order.CustomerID},
		}
	})

	m.Handle(http.MethodPut, "/orders/", func(req provider.Request) (int, any) {
		if strings.TrimPrefix(req.Path, "/orders/") != MockOrderID {
			return http.StatusNotFound, map[string]string{"error": "order not found"}
		}
		var body updateOrderRequest
		if err := decodeBody(req, &body); err != nil {
			return invalid(err.Error())
		}

		order := orderDTO{
			ID:          5001,
			Number:      "#SB-5001",
			Status:      "awaiting_fulfillment",
			Customer:    &customerDTO{ID: 1001},
			Allocations: []allocationDTO{{ID: 7001}},
			DeliverTo:   body.Order.DeliverToAttributes,
		}
		if body.Order.Status != "" {
			order.Status = body.Order.Status
		}
		order.CarrierName = body.Order.CarrierName
		order.TrackingNumber = body.Order.TrackingNumber
		return http.StatusOK, order
	})

	m.Handle(http.MethodGet, "/shipping/quotes/", func(req provider.Request) (int, any) {
		if !strings.HasSuffix(req.Path, "/"+MockAllocationID) {
			return http.StatusOK, []quoteDTO{}
		}
		return http.StatusOK, mockQuotes()
	})

	m.Handle(http.MethodPost, "/shipping/shipments", func(req provider.Request) (int, any) {
		var body createShipmentRequest
		if err := decodeBody(req, &body); err != nil || body.Shipment.RemoteShipmentID == "" {
			return invalid("remote_shipment_id is required")
		}
		return http.StatusCreated, shipmentDTO{
			ID:             9001,
			OrderID:        5001,
			AllocationID:   body.Shipment.AllocationID,
			Carrier:        body.Shipment.SubCarrierID,
			ServiceType:    body.Shipment.ServiceType,
			TrackingNumber: &trackingNumberDTO{TrackingNumber: "TBA" + body.Shipment.RemoteShipmentID},
			Charge:         body.Shipment.TotalNetCharge,
		}
	})

	return m
}
