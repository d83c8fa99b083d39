// Package inventory talks to the inventory and order-management platform.
package inventory

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// ServiceName is the dependency name used for the breaker and metrics.
const ServiceName = "inventory"

// QuoteCarrier is the quoting integration used for allocation quotes.
const QuoteCarrier = "amazon_shipping_v2"

// OrderUpdate is a partial order update. Empty fields are left untouched.
type OrderUpdate struct {
	DeliveryAddress *domain.Address
	Status          string
	Carrier         string
	TrackingNumber  string
}

// Client is the typed inventory-platform API.
type Client struct {
	rpc *rpc.Client
}

// NewClient creates an inventory client on top of a resilient rpc client.
func NewClient(c *rpc.Client) *Client {
	return &Client{rpc: c}
}

// CreateCustomer creates a customer. The platform upserts by email.
func (c *Client) CreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	if in.Email == "" {
		return nil, fault.New(fault.KindValidation, "customer email is required")
	}

	body := createCustomerRequest{Customer: customerBody(in)}
	var dto customerDTO
	if err := c.rpc.Post(ctx, "/customers", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// CreateOrder creates an order with a single line item.
func (c *Client) CreateOrder(ctx context.Context, in domain.OrderInput) (*domain.Order, error) {
	channelID, fe := parseID("channel_id", in.ChannelID)
	if fe != nil {
		return nil, fe
	}
	customerID, fe := parseID("customer_id", in.CustomerID)
	if fe != nil {
		return nil, fe
	}
	sellableID, fe := parseID("sellable_id", in.Item.SellableID)
	if fe != nil {
		return nil, fe
	}
	qty := in.Item.Quantity
	if qty <= 0 {
		qty = 1
	}

	body := createOrderRequest{Order: orderBody{
		ChannelID:  channelID,
		CustomerID: customerID,
		LineItemsAttributes: []lineItemBody{{
			SellableID:   sellableID,
			Quantity:     qty,
			PricePerUnit: in.Item.UnitPrice.StringFixed(2),
		}},
	}}

	var dto orderDTO
	if err := c.rpc.Post(ctx, "/orders", body, &dto); err != nil {
		return nil, err
	}
	order := dto.toDomain()
	if order.CustomerID == "" {
		order.CustomerID = in.CustomerID
	}
	return order, nil
}

// UpdateOrder applies a partial update to an order.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, upd OrderUpdate) (*domain.Order, error) {
	id, fe := parseID("order_id", orderID)
	if fe != nil {
		return nil, fe
	}

	body := updateOrderRequest{Order: orderUpdateBody{
		Status:         upd.Status,
		CarrierName:    upd.Carrier,
		TrackingNumber: upd.TrackingNumber,
	}}
	if upd.DeliveryAddress != nil {
		body.Order.DeliverToAttributes = toDeliverTo(*upd.DeliveryAddress)
	}

	var dto orderDTO
	if err := c.rpc.Put(ctx, "/orders/"+formatID(id), body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// SetDeliveryAddress attaches the destination, which makes the platform
// allocate stock. The returned order always carries an allocation id.
func (c *Client) SetDeliveryAddress(ctx context.Context, orderID string, addr domain.Address) (*domain.Order, error) {
	order, err := c.UpdateOrder(ctx, orderID, OrderUpdate{DeliveryAddress: &addr})
	if err != nil {
		return nil, err
	}
	if order.AllocationID == "" {
		return nil, fault.New(fault.KindValidation, "order "+orderID+" has no allocation after address update").
			WithRequest(ServiceName, http.MethodPut, "/orders/"+orderID)
	}
	return order, nil
}

// MarkShipped sets the order status to shipped with a carrier and tracking number.
func (c *Client) MarkShipped(ctx context.Context, orderID, carrier, trackingNumber string) (*domain.Order, error) {
	return c.UpdateOrder(ctx, orderID, OrderUpdate{
		Status:         "shipped",
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
	})
}

// FetchQuotes returns carrier quotes for an allocation in upstream order.
func (c *Client) FetchQuotes(ctx context.Context, allocationID string) ([]domain.Quote, error) {
	id, fe := parseID("allocation_id", allocationID)
	if fe != nil {
		return nil, fe
	}

	path := "/shipping/quotes/" + QuoteCarrier + "/" + formatID(id)
	var dtos []quoteDTO
	if err := c.rpc.Get(ctx, path, nil, &dtos); err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(dtos))
	for _, q := range dtos {
		quote, fe := q.toDomain()
		if fe != nil {
			return nil, fe.WithRequest(ServiceName, http.MethodGet, path)
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// CreateShipment books quote against allocationID.
func (c *Client) CreateShipment(ctx context.Context, orderID, allocationID string, quote domain.Quote) (*domain.Shipment, error) {
	id, fe := parseID("allocation_id", allocationID)
	if fe != nil {
		return nil, fe
	}
	if quote.RemoteShipmentID == "" {
		return nil, fault.New(fault.KindValidation, "quote "+quote.ID+" has no remote shipment id")
	}

	body := createShipmentRequest{Shipment: shipmentBody{
		AllocationID:     id,
		Carrier:          QuoteCarrier,
		SubCarrierID:     quote.Carrier,
		ServiceType:      quote.ServiceType,
		RemoteShipmentID: quote.RemoteShipmentID,
		TotalNetCharge:   quote.TotalPrice.StringFixed(2),
		BaseRate:         quote.BaseRate.StringFixed(2),
	}}

	var dto shipmentDTO
	if err := c.rpc.Post(ctx, "/shipping/shipments", body, &dto); err != nil {
		return nil, err
	}

	cost := quote.TotalPrice
	if dto.Charge != "" {
		if parsed, err := decimal.NewFromString(dto.Charge); err == nil {
			cost = parsed
		}
	}

	shp := &domain.Shipment{
		ID:           formatID(dto.ID),
		OrderID:      orderID,
		AllocationID: allocationID,
		Carrier:      quote.Carrier,
		Service:      quote.Service,
		Cost:         cost,
		Source:       domain.ShipmentFromQuote,
	}
	if dto.TrackingNumber != nil {
		shp.TrackingNumber = dto.TrackingNumber.TrackingNumber
	}
	return shp, nil
}
