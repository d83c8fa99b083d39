package inventory

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// Wire shapes of the inventory platform. Identifiers are numeric upstream and
// strings in the domain.

type customerBody struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

type createCustomerRequest struct {
	Customer customerBody `json:"customer"`
}

type customerDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type lineItemBody struct {
	SellableID   int64  `json:"sellable_id"`
	Quantity     int    `json:"quantity"`
	PricePerUnit string `json:"price_per_unit"`
}

type orderBody struct {
	ChannelID           int64          `json:"channel_id"`
	CustomerID          int64          `json:"customer_id"`
	LineItemsAttributes []lineItemBody `json:"line_items_attributes"`
}

type createOrderRequest struct {
	Order orderBody `json:"order"`
}

type deliverToDTO struct {
	FirstName string `json:"first_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

type orderUpdateBody struct {
	DeliverToAttributes *deliverToDTO `json:"deliver_to_attributes,omitempty"`
	Status              string        `json:"status,omitempty"`
	CarrierName         string        `json:"carrier_name,omitempty"`
	TrackingNumber      string        `json:"tracking_number,omitempty"`
}

type updateOrderRequest struct {
	Order orderUpdateBody `json:"order"`
}

type allocationDTO struct {
	ID int64 `json:"id"`
}

type orderDTO struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Status         string          `json:"status"`
	Customer       *customerDTO    `json:"customer"`
	DeliverTo      *deliverToDTO   `json:"deliver_to"`
	Allocations    []allocationDTO `json:"allocations"`
	CarrierName    string          `json:"carrier_name"`
	TrackingNumber string          `json:"tracking_number"`
}

type quoteDTO struct {
	ID               string `json:"id"`
	Carrier          string `json:"carrier"`
	Title            string `json:"title"`
	ServiceType      string `json:"service_type"`
	TotalNetCharge   string `json:"total_net_charge"`
	BaseRate         string `json:"base_rate"`
	Currency         string `json:"currency"`
	TransitDays      *int   `json:"transit_days"`
	RemoteShipmentID string `json:"remote_shipment_id"`
}

type shipmentBody struct {
	AllocationID     int64  `json:"allocation_id"`
	Carrier          string `json:"carrier"`
	SubCarrierID     string `json:"sub_carrier_id"`
	ServiceType      string `json:"service_type"`
	RemoteShipmentID string `json:"remote_shipment_id"`
	TotalNetCharge   string `json:"total_net_charge"`
	BaseRate         string `json:"base_rate"`
}

type createShipmentRequest struct {
	Shipment shipmentBody `json:"shipment"`
}

type trackingNumberDTO struct {
	TrackingNumber string `json:"tracking_number"`
}

type shipmentDTO struct {
	ID             int64              `json:"id"`
	OrderID        int64              `json:"order_id"`
	AllocationID   int64              `json:"allocation_id"`
	Carrier        string             `json:"carrier"`
	ServiceType    string             `json:"service_type"`
	TrackingNumber *trackingNumberDTO `json:"tracking_number"`
	Charge         string             `json:"charge"`
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func parseID(field, id string) (int64, *fault.Error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fault.New(fault.KindValidation, field+" must be a positive integer, got "+strconv.Quote(id))
	}
	return n, nil
}

func parseMoney(field, s string) (decimal.Decimal, *fault.Error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fault.Wrap(fault.KindValidation, field+": invalid amount "+s, err)
	}
	return d, nil
}

func toDeliverTo(a domain.Address) *deliverToDTO {
	return &deliverToDTO{
		FirstName: a.Name,
		Company:   a.Company,
		Address1:  a.Street1,
		Address2:  a.Street2,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
		Phone:     a.Phone,
		Email:     a.Email,
	}
}

func (d *deliverToDTO) toDomain() *domain.Address {
	if d == nil {
		return nil
	}
	return &domain.Address{
		Name:    d.FirstName,
		Company: d.Company,
		Street1: d.Address1,
		Street2: d.Address2,
		City:    d.City,
		State:   d.State,
		Zip:     d.Zip,
		Country: d.Country,
		Phone:   d.Phone,
		Email:   d.Email,
	}
}

func (c customerDTO) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:        formatID(c.ID),
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

func (o orderDTO) toDomain() *domain.Order {
	order := &domain.Order{
		ID:              formatID(o.ID),
		Number:          o.Number,
		Status:          o.Status,
		DeliveryAddress: o.DeliverTo.toDomain(),
		Carrier:         o.CarrierName,
		TrackingNumber:  o.TrackingNumber,
	}
	if o.Customer != nil {
		order.CustomerID = formatID(o.Customer.ID)
	}
	if len(o.Allocations) > 0 {
		order.AllocationID = formatID(o.Allocations[0].ID)
	}
	return order
}

func (q quoteDTO) toDomain() (domain.Quote, *fault.Error) {
	total, fe := parseMoney("quote "+q.ID+" total", q.TotalNetCharge)
	if fe != nil {
		return domain.Quote{}, fe
	}
	base, fe := parseMoney("quote "+q.ID+" base rate", q.BaseRate)
	if fe != nil {
		return domain.Quote{}, fe
	}

	quote := domain.Quote{
		ID:               q.ID,
		Carrier:          q.Carrier,
		Service:          q.Title,
		ServiceType:      q.ServiceType,
		TotalPrice:       total,
		BaseRate:         base,
		Currency:         q.Currency,
		RemoteShipmentID: q.RemoteShipmentID,
	}
	if q.TransitDays != nil && *q.TransitDays > 0 {
		quote.DeliveryDays = *q.TransitDays
	}
	return quote, nil
}
