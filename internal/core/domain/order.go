package domain

import "github.com/shopspring/decimal"

// CustomerInput is what the workflow sends to create (or upsert) a customer.
type CustomerInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// Customer as stored by the inventory platform.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LineItem references one sellable unit.
type LineItem struct {
	SellableID string          `json:"sellable_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// OrderInput creates an order for a customer on a sales channel.
type OrderInput struct {
	ChannelID  string   `json:"channel_id"`
	CustomerID string   `json:"customer_id"`
	Item       LineItem `json:"item"`
}

// Order as stored by the inventory platform.
type Order struct {
	ID              string   `json:"id"`
	Number          string   `json:"number"`
	CustomerID      string   `json:"customer_id"`
	Status          string   `json:"status"`
	DeliveryAddress *Address `json:"delivery_address,omitempty"`
	AllocationID    string   `json:"allocation_id,omitempty"`
	Carrier         string   `json:"carrier,omitempty"`
	TrackingNumber  string   `json:"tracking_number,omitempty"`
}

// Quote is a carrier offer scoped to an allocation.
type Quote struct {
	ID               string          `json:"id"`
	Carrier          string          `json:"carrier"`
	Service          string          `json:"service"`
	ServiceType      string          `json:"service_type"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	BaseRate         decimal.Decimal `json:"base_rate"`
	Currency         string          `json:"currency"`
	DeliveryDays     int             `json:"delivery_days"` // 0 = unknown
	RemoteShipmentID string          `json:"remote_shipment_id"`
}

// ShipmentSource tells how a fulfillment shipment was produced.
type ShipmentSource string

const (
	ShipmentFromQuote    ShipmentSource = "quote"
	ShipmentFromFallback ShipmentSource = "fallback"
)

// Shipment is the shipment-equivalent record on the inventory platform.
type Shipment struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	AllocationID   string          `json:"allocation_id"`
	Carrier        string          `json:"carrier"`
	Service        string          `json:"service,omitempty"`
	TrackingNumber string          `json:"tracking_number"`
	Cost           decimal.Decimal `json:"cost"`
	Source         ShipmentSource  `json:"source"`
}
