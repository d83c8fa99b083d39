package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is a postal address as both platforms understand it.
type Address struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Parcel holds dimensions in inches and weight in ounces.
type Parcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// CustomsItem is one line of a customs declaration.
type CustomsItem struct {
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	Value          decimal.Decimal `json:"value"`
	Weight         float64         `json:"weight"`
	HSTariffNumber string          `json:"hs_tariff_number,omitempty"`
	OriginCountry  string          `json:"origin_country"`
}

// CustomsInfo is required for international shipments.
type CustomsInfo struct {
	ContentsType string        `json:"contents_type"`
	Signer       string        `json:"signer"`
	Items        []CustomsItem `json:"items"`
}

// ShipmentRequest describes a parcel to be rated. It is built per call and never mutated.
type ShipmentRequest struct {
	From    Address      `json:"from"`
	To      Address      `json:"to"`
	Parcel  Parcel       `json:"parcel"`
	Carrier string       `json:"carrier,omitempty"`
	Service string       `json:"service,omitempty"`
	Customs *CustomsInfo `json:"customs,omitempty"`
}

// Label is the result of buying a rate.
type Label struct {
	ShipmentID   string          `json:"shipment_id"`
	RateID       string          `json:"rate_id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	Amount       decimal.Decimal `json:"amount"`
	TrackingCode string          `json:"tracking_code"`
	LabelURL     string          `json:"label_url"`
}

// TrackingEvent is one scan in a tracker history.
type TrackingEvent struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Location string    `json:"location,omitempty"`
	At       time.Time `json:"at"`
}

// Tracker is the current tracking state of a package.
type Tracker struct {
	ID              string          `json:"id"`
	TrackingCode    string          `json:"tracking_code"`
	Carrier         string          `json:"carrier"`
	Status          string          `json:"status"`
	EstDeliveryDate *time.Time      `json:"est_delivery_date,omitempty"`
	PublicURL       string          `json:"public_url,omitempty"`
	Events          []TrackingEvent `json:"events"`
}
