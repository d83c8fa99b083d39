package tools

import (
	"github.com/shopspring/decimal"

	"github.com/vietddude/shipbridge/internal/core/domain"
)

// AddressParams is a postal address as accepted by the tools.
type AddressParams struct {
	Name    string `json:"name" binding:"max=100"`
	Company string `json:"company" binding:"max=100"`
	Street1 string `json:"street1" binding:"required,max=200"`
	Street2 string `json:"street2" binding:"max=200"`
	City    string `json:"city" binding:"required,max=100"`
	State   string `json:"state" binding:"max=50"`
	Zip     string `json:"zip" binding:"required,max=20"`
	Country string `json:"country" binding:"required,len=2"`
	Phone   string `json:"phone" binding:"max=50"`
	Email   string `json:"email" binding:"omitempty,email"`
}

func (a AddressParams) toDomain() domain.Address {
	return domain.Address{
		Name:    a.Name,
		Company: a.Company,
		Street1: a.Street1,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}

// ParcelParams holds dimensions in inches and weight in ounces.
type ParcelParams struct {
	Length float64 `json:"length" binding:"gte=0"`
	Width  float64 `json:"width" binding:"gte=0"`
	Height float64 `json:"height" binding:"gte=0"`
	Weight float64 `json:"weight" binding:"required,gt=0"`
}

// CustomsItemParams is one customs declaration line.
type CustomsItemParams struct {
	Description    string          `json:"description" binding:"required"`
	Quantity       int             `json:"quantity" binding:"required,gt=0"`
	Value          decimal.Decimal `json:"value"`
	Weight         float64         `json:"weight" binding:"required,gt=0"`
	HSTariffNumber string          `json:"hs_tariff_number"`
	OriginCountry  string          `json:"origin_country" binding:"required,len=2"`
}

// CustomsParams is the customs declaration for international shipments.
type CustomsParams struct {
	ContentsType string              `json:"contents_type" binding:"required,oneof=merchandise gift documents returned_goods sample other"`
	Signer       string              `json:"signer" binding:"required"`
	Items        []CustomsItemParams `json:"items" binding:"required,min=1,dive"`
}

// ShipmentParams describes the parcel to rate.
type ShipmentParams struct {
	From    AddressParams  `json:"from"`
	To      AddressParams  `json:"to"`
	Parcel  ParcelParams   `json:"parcel"`
	Carrier string         `json:"carrier"`
	Service string         `json:"service"`
	Customs *CustomsParams `json:"customs" binding:"omitempty"`
}

func (p ShipmentParams) toDomain() domain.ShipmentRequest {
	req := domain.ShipmentRequest{
		From:    p.From.toDomain(),
		To:      p.To.toDomain(),
		Parcel:  domain.Parcel(p.Parcel),
		Carrier: p.Carrier,
		Service: p.Service,
	}
	if p.Customs != nil {
		customs := &domain.CustomsInfo{ContentsType: p.Customs.ContentsType, Signer: p.Customs.Signer}
		for _, it := range p.Customs.Items {
			customs.Items = append(customs.Items, domain.CustomsItem(it))
		}
		req.Customs = customs
	}
	return req
}

// PreferencesParams narrows and orders compared rates.
type PreferencesParams struct {
	MaxCost         *decimal.Decimal `json:"max_cost"`
	MaxDeliveryDays *int             `json:"max_delivery_days" binding:"omitempty,gt=0"`
	Carriers        []string         `json:"carriers" binding:"omitempty,dive,required"`
	PrioritizeSpeed bool             `json:"prioritize_speed"`
	PrioritizeCost  bool             `json:"prioritize_cost"`
}

func (p *PreferencesParams) toDomain() *domain.Preferences {
	if p == nil {
		return nil
	}
	return &domain.Preferences{
		MaxCost:         p.MaxCost,
		MaxDeliveryDays: p.MaxDeliveryDays,
		Carriers:        p.Carriers,
		PrioritizeSpeed: p.PrioritizeSpeed,
		PrioritizeCost:  p.PrioritizeCost,
	}
}

// GetShippingRatesParams is the input of get_shipping_rates.
type GetShippingRatesParams struct {
	Shipment        ShipmentParams `json:"shipment"`
	CarrierAccounts []string       `json:"carrier_accounts" binding:"omitempty,dive,required"`
}

// CompareRatesParams is the input of compare_rates.
type CompareRatesParams struct {
	Shipment    ShipmentParams     `json:"shipment"`
	Preferences *PreferencesParams `json:"preferences" binding:"omitempty"`
}

// PurchaseLabelParams is the input of purchase_label.
type PurchaseLabelParams struct {
	ShipmentID string `json:"shipment_id" binding:"required"`
	RateID     string `json:"rate_id" binding:"required"`
}

// TrackPackageParams is the input of track_package.
type TrackPackageParams struct {
	TrackingCode string `json:"tracking_code" binding:"required"`
	Carrier      string `json:"carrier"`
}

// CustomerParams identifies the buyer.
type CustomerParams struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=50"`
}

// ItemParams is the single line item of a fulfilled order.
type ItemParams struct {
	SellableID string          `json:"sellable_id" binding:"required,numeric"`
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// FulfillOrderParams is the input of fulfill_order.
type FulfillOrderParams struct {
	Customer        CustomerParams `json:"customer"`
	ChannelID       string         `json:"channel_id" binding:"required,numeric"`
	Item            ItemParams     `json:"item"`
	DeliveryAddress AddressParams  `json:"delivery_address"`
}

// GetFulfillmentRunParams is the input of get_fulfillment_run.
type GetFulfillmentRunParams struct {
	RunID string `json:"run_id" binding:"required,uuid"`
}

// ListFulfillmentRunsParams is the input of list_fulfillment_runs.
type ListFulfillmentRunsParams struct {
	Status string `json:"status" binding:"required,oneof=running succeeded aborted"`
	Limit  int    `json:"limit" binding:"omitempty,gt=0,lte=100"`
}
