package tools

import (
	"context"
	"errors"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/fulfillment"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/rates"
)

// Tool names.
const (
	GetShippingRates    = "get_shipping_rates"
	CompareRates        = "compare_rates"
	PurchaseLabel       = "purchase_label"
	TrackPackage        = "track_package"
	FulfillOrder        = "fulfill_order"
	GetFulfillmentRun   = "get_fulfillment_run"
	ListFulfillmentRuns = "list_fulfillment_runs"
)

const defaultRunLimit = 20

// ShippingGateway is the shipping-platform surface the tools need.
type ShippingGateway interface {
	QueryRates(ctx context.Context, req domain.ShipmentRequest, carrierAccounts []string) ([]domain.Rate, error)
	BuyLabel(ctx context.Context, shipmentID, rateID string) (*domain.Label, error)
	CreateTracker(ctx context.Context, trackingCode, carrier string) (*domain.Tracker, error)
}

// RateComparer ranks rates across carrier families.
type RateComparer interface {
	Aggregate(ctx context.Context, req domain.ShipmentRequest, prefs *domain.Preferences) (*rates.Result, error)
}

// Fulfiller runs and reports fulfillment sagas.
type Fulfiller interface {
	Run(ctx context.Context, req fulfillment.Request) (*fulfillment.State, error)
	GetRun(ctx context.Context, id string) (*storage.Run, error)
	ListRuns(ctx context.Context, status storage.RunStatus, limit int) ([]*storage.Run, error)
}

// RatesResult is the output of get_shipping_rates.
type RatesResult struct {
	Count int           `json:"count"`
	Rates []domain.Rate `json:"rates"`
}

// RunsResult is the output of list_fulfillment_runs.
type RunsResult struct {
	Count int            `json:"count"`
	Runs  []*storage.Run `json:"runs"`
}

// NewBridgeRegistry registers every bridge tool against its backends.
func NewBridgeRegistry(shipping ShippingGateway, comparer RateComparer, fulfiller Fulfiller) *Registry {
	r := NewRegistry()

	r.Register(GetShippingRates, "Quote a parcel on the shipping platform, optionally scoped to carrier accounts.",
		typed(func(ctx context.Context, p GetShippingRatesParams) (any, error) {
			found, err := shipping.QueryRates(ctx, p.Shipment.toDomain(), p.CarrierAccounts)
			if err != nil {
				return nil, err
			}
			if found == nil {
				found = []domain.Rate{}
			}
			return RatesResult{Count: len(found), Rates: found}, nil
		}))

	r.Register(CompareRates, "Compare rates across every carrier family and recommend the fastest, cheapest and best value.",
		typed(func(ctx context.Context, p CompareRatesParams) (any, error) {
			return comparer.Aggregate(ctx, p.Shipment.toDomain(), p.Preferences.toDomain())
		}))

	r.Register(PurchaseLabel, "Buy a label for a previously quoted rate.",
		typed(func(ctx context.Context, p PurchaseLabelParams) (any, error) {
			return shipping.BuyLabel(ctx, p.ShipmentID, p.RateID)
		}))

	r.Register(TrackPackage, "Return the tracking history of a package.",
		typed(func(ctx context.Context, p TrackPackageParams) (any, error) {
			return shipping.CreateTracker(ctx, p.TrackingCode, p.Carrier)
		}))

	r.Register(FulfillOrder, "Create a customer and order on the inventory platform and ship it.",
		typed(func(ctx context.Context, p FulfillOrderParams) (any, error) {
			return fulfiller.Run(ctx, fulfillment.Request{
				Customer: domain.CustomerInput{
					Email:     p.Customer.Email,
					FirstName: p.Customer.FirstName,
					LastName:  p.Customer.LastName,
					Phone:     p.Customer.Phone,
				},
				ChannelID: p.ChannelID,
				Item: domain.LineItem{
					SellableID: p.Item.SellableID,
					Quantity:   p.Item.Quantity,
					UnitPrice:  p.Item.UnitPrice,
				},
				DeliveryAddress: p.DeliveryAddress.toDomain(),
			})
		}))

	r.Register(GetFulfillmentRun, "Return the recorded steps of a fulfillment run.",
		typed(func(ctx context.Context, p GetFulfillmentRunParams) (any, error) {
			run, err := fulfiller.GetRun(ctx, p.RunID)
			if errors.Is(err, storage.ErrRunNotFound) {
				return nil, fault.New(fault.KindNotFound, "fulfillment run not found: "+p.RunID)
			}
			if err != nil {
				return nil, err
			}
			return run, nil
		}))

	r.Register(ListFulfillmentRuns, "List the newest fulfillment runs with a status.",
		typed(func(ctx context.Context, p ListFulfillmentRunsParams) (any, error) {
			limit := p.Limit
			if limit == 0 {
				limit = defaultRunLimit
			}
			runs, err := fulfiller.ListRuns(ctx, storage.RunStatus(p.Status), limit)
			if err != nil {
				return nil, err
			}
			if runs == nil {
				runs = []*storage.Run{}
			}
			return RunsResult{Count: len(runs), Runs: runs}, nil
		}))

	return r
}
