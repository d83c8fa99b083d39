package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Rate is one carrier/service price-and-speed offer returned by the shipping platform.
type Rate struct {
	ID           string           `json:"id"`
	Carrier      string           `json:"carrier"`
	Service      string           `json:"service"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	RetailAmount *decimal.Decimal `json:"retail_amount,omitempty"`
	DeliveryDays int              `json:"delivery_days"` // 0 = unknown
	Guaranteed   bool             `json:"guaranteed"`
	ShipmentID   string           `json:"shipment_id"`
}

// HasDeliveryDays reports whether the carrier published a transit estimate.
func (r Rate) HasDeliveryDays() bool {
	return r.DeliveryDays > 0
}

// SpeedKey orders rates by transit time, unknown estimates last.
func (r Rate) SpeedKey() int {
	if !r.HasDeliveryDays() {
		return math.MaxInt
	}
	return r.DeliveryDays
}

// Savings is the retail amount minus the negotiated amount, zero without a retail comparison.
func (r Rate) Savings() decimal.Decimal {
	if r.RetailAmount == nil {
		return decimal.Zero
	}
	return r.RetailAmount.Sub(r.Amount)
}

// CostPerDay is amount / max(days, 1).
func (r Rate) CostPerDay() decimal.Decimal {
	days := r.DeliveryDays
	if days < 1 {
		days = 1
	}
	return r.Amount.Div(decimal.NewFromInt(int64(days)))
}

// Preferences narrows and orders a rate collection.
type Preferences struct {
	MaxCost         *decimal.Decimal `json:"max_cost,omitempty"`
	MaxDeliveryDays *int             `json:"max_delivery_days,omitempty"`
	Carriers        []string         `json:"carriers,omitempty"`
	PrioritizeSpeed bool             `json:"prioritize_speed"`
	PrioritizeCost  bool             `json:"prioritize_cost"`
}

// BySpeed reports whether ranking should use delivery days as the primary key.
// Cost wins when neither or both flags are set.
func (p *Preferences) BySpeed() bool {
	return p != nil && p.PrioritizeSpeed && !p.PrioritizeCost
}
