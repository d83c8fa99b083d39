// Package shipping talks to the multi-carrier shipping platform: rate
// shopping, label purchase and package tracking.
package shipping

import (
	"context"
	"net/url"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// ServiceName is the dependency name used for the breaker and metrics.
const ServiceName = "shipping"

// Shipment is a rated shipment.
type Shipment struct {
	ID    string
	Rates []domain.Rate
	// Messages carries per-carrier rating problems reported alongside the rates.
	Messages []string
}

// Client is the typed shipping-platform API.
type Client struct {
	rpc *rpc.Client
}

// NewClient creates a shipping client on top of a resilient rpc client.
func NewClient(c *rpc.Client) *Client {
	return &Client{rpc: c}
}

// CreateShipment creates a shipment and returns the rates it was quoted.
// An empty carrierAccounts asks every configured carrier.
func (c *Client) CreateShipment(ctx context.Context, req domain.ShipmentRequest, carrierAccounts []string) (*Shipment, error) {
	var dto shipmentDTO
	body := createShipmentRequest{Shipment: toShipmentBody(req, carrierAccounts)}
	if err := c.rpc.Post(ctx, "/shipments", body, &dto); err != nil {
		return nil, err
	}

	out := &Shipment{ID: dto.ID, Rates: make([]domain.Rate, 0, len(dto.Rates))}
	for _, r := range dto.Rates {
		if r.ShipmentID == "" {
			r.ShipmentID = dto.ID
		}
		rate, err := r.toDomain()
		if err != nil {
			return nil, err.WithRequest(ServiceName, "POST", "/shipments")
		}
		out.Rates = append(out.Rates, rate)
	}
	for _, m := range dto.Messages {
		out.Messages = append(out.Messages, m.Carrier+": "+m.Message)
	}
	return out, nil
}

// QueryRates returns the rates for req restricted to carrierAccounts.
func (c *Client) QueryRates(ctx context.Context, req domain.ShipmentRequest, carrierAccounts []string) ([]domain.Rate, error) {
	shp, err := c.CreateShipment(ctx, req, carrierAccounts)
	if err != nil {
		return nil, err
	}
	return shp.Rates, nil
}

// BuyLabel purchases rateID on shipmentID.
func (c *Client) BuyLabel(ctx context.Context, shipmentID, rateID string) (*domain.Label, error) {
	if shipmentID == "" || rateID == "" {
		return nil, fault.New(fault.KindValidation, "shipment id and rate id are required")
	}

	var body buyRequest
	body.Rate.ID = rateID

	var dto shipmentDTO
	path := "/shipments/" + url.PathEscape(shipmentID) + "/buy"
	if err := c.rpc.Post(ctx, path, body, &dto); err != nil {
		return nil, err
	}
	if dto.SelectedRate == nil {
		return nil, fault.New(fault.KindValidation, "purchase response has no selected rate").
			WithRequest(ServiceName, "POST", path)
	}

	rate, err := dto.SelectedRate.toDomain()
	if err != nil {
		return nil, err.WithRequest(ServiceName, "POST", path)
	}

	label := &domain.Label{
		ShipmentID:   dto.ID,
		RateID:       rate.ID,
		Carrier:      rate.Carrier,
		Service:      rate.Service,
		Amount:       rate.Amount,
		TrackingCode: dto.TrackingCode,
	}
	if dto.PostageLabel != nil {
		label.LabelURL = dto.PostageLabel.LabelURL
	}
	return label, nil
}

// CreateTracker registers a tracking code and returns its current history.
func (c *Client) CreateTracker(ctx context.Context, trackingCode, carrier string) (*domain.Tracker, error) {
	if trackingCode == "" {
		return nil, fault.New(fault.KindValidation, "tracking code is required")
	}

	var dto trackerDTO
	body := createTrackerRequest{Tracker: trackerBody{TrackingCode: trackingCode, Carrier: carrier}}
	if err := c.rpc.Post(ctx, "/trackers", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}
