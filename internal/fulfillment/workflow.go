// Package fulfillment runs the cross-platform order fulfillment saga:
// customer, order, delivery address, quotes, shipment.
//
// Steps that succeed are never rolled back. Each run is persisted with its
// per-step outcome so customers and orders left behind by an aborted run can
// be found later.
package fulfillment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/shipbridge/internal/core/domain"
	"github.com/vietddude/shipbridge/internal/infra/events"
	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/infra/storage/memory"
	"github.com/vietddude/shipbridge/internal/metrics"
)

// Step names as recorded on a run.
const (
	StepCreateCustomer = "create_customer"
	StepCreateOrder    = "create_order"
	StepSetAddress     = "set_delivery_address"
	StepFetchQuotes    = "fetch_quotes"
	StepCreateShipment = "create_shipment"
	StepMarkShipped    = "mark_shipped"
)

// CompletedEvent is the event type published after a successful run.
const CompletedEvent = "fulfillment.completed"

// StatusSuccess is the only status a returned State carries.
const StatusSuccess = "success"

// DefaultFallbackCarrier is used on the fallback path when no quote names a carrier.
const DefaultFallbackCarrier = "USPS"

var errNoQuote = errors.New("no shipping quote available")

// InventoryGateway is the inventory-platform surface the saga needs.
type InventoryGateway interface {
	CreateCustomer(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error)
	CreateOrder(ctx context.Context, in domain.OrderInput) (*domain.Order, error)
	SetDeliveryAddress(ctx context.Context, orderID string, addr domain.Address) (*domain.Order, error)
	FetchQuotes(ctx context.Context, allocationID string) ([]domain.Quote, error)
	CreateShipment(ctx context.Context, orderID, allocationID string, quote domain.Quote) (*domain.Shipment, error)
	MarkShipped(ctx context.Context, orderID, carrier, trackingNumber string) (*domain.Order, error)
}

// Request is the input of one fulfillment run.
type Request struct {
	Customer        domain.CustomerInput `json:"customer"`
	ChannelID       string               `json:"channel_id"`
	Item            domain.LineItem      `json:"item"`
	DeliveryAddress domain.Address       `json:"delivery_address"`
}

// State accumulates what each step produced.
type State struct {
	RunID         string                `json:"run_id"`
	Customer      *domain.Customer      `json:"customer"`
	Order         *domain.Order         `json:"order"`
	UpdatedOrder  *domain.Order         `json:"updated_order"`
	Quotes        []domain.Quote        `json:"quotes"`
	SelectedQuote *domain.Quote         `json:"selected_quote,omitempty"`
	Shipment      *domain.Shipment      `json:"shipment"`
	Path          domain.ShipmentSource `json:"path"`
	Status        string                `json:"status"`
}

// Workflow executes the saga against an inventory gateway.
type Workflow struct {
	inventory       InventoryGateway
	runs            storage.RunRepository
	publisher       events.Publisher
	ranker          QuoteRanker
	trackingNumber  func() string
	fallbackCarrier string
	now             func() time.Time
	log             *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRunRepository persists runs to repo.
func WithRunRepository(repo storage.RunRepository) Option {
	return func(w *Workflow) { w.runs = repo }
}

// WithPublisher publishes completion events to p.
func WithPublisher(p events.Publisher) Option {
	return func(w *Workflow) { w.publisher = p }
}

// WithQuoteRanker replaces the default CheapestFirst ranking.
func WithQuoteRanker(r QuoteRanker) Option {
	return func(w *Workflow) { w.ranker = r }
}

// WithTrackingGenerator replaces the placeholder tracking number generator.
func WithTrackingGenerator(gen func() string) Option {
	return func(w *Workflow) { w.trackingNumber = gen }
}

// WithFallbackCarrier sets the carrier reported on the fallback path.
func WithFallbackCarrier(carrier string) Option {
	return func(w *Workflow) {
		if carrier != "" {
			w.fallbackCarrier = carrier
		}
	}
}

// NewWorkflow creates a workflow. Runs are kept in memory unless a repository is given.
func NewWorkflow(inventory InventoryGateway, opts ...Option) *Workflow {
	w := &Workflow{
		inventory:       inventory,
		publisher:       events.Noop{},
		ranker:          CheapestFirst,
		trackingNumber:  PlaceholderTrackingNumber,
		fallbackCarrier: DefaultFallbackCarrier,
		now:             time.Now,
		log:             slog.Default().With("component", "fulfillment"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.runs == nil {
		w.runs = memory.NewRunRepo(memory.NewMemoryStorage())
	}
	return w
}

// PlaceholderTrackingNumber returns a locally generated tracking number.
func PlaceholderTrackingNumber() string {
	return "SB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Run executes the saga. Failures in the first three steps abort the run and
// return the classified error with no state. Quote failures are tolerated and
// any preferred-path shipment failure falls back to marking the order shipped.
func (w *Workflow) Run(ctx context.Context, req Request) (*State, error) {
	st := &State{RunID: uuid.NewString()}
	run := &storage.Run{ID: st.RunID, Status: storage.RunRunning, CreatedAt: w.now()}
	log := w.log.With("run_id", st.RunID)

	customer, err := w.inventory.CreateCustomer(ctx, req.Customer)
	if err != nil {
		return nil, w.abort(ctx, run, StepCreateCustomer, err)
	}
	st.Customer = customer
	run.CustomerID = customer.ID
	w.stepDone(ctx, run, StepCreateCustomer, storage.StepOK, nil)

	order, err := w.inventory.CreateOrder(ctx, domain.OrderInput{
		ChannelID:  req.ChannelID,
		CustomerID: customer.ID,
		Item:       req.Item,
	})
	if err != nil {
		return nil, w.abort(ctx, run, StepCreateOrder, err)
	}
	st.Order = order
	run.OrderID = order.ID
	w.stepDone(ctx, run, StepCreateOrder, storage.StepOK, nil)

	updated, err := w.inventory.SetDeliveryAddress(ctx, order.ID, req.DeliveryAddress)
	if err != nil {
		return nil, w.abort(ctx, run, StepSetAddress, err)
	}
	st.UpdatedOrder = updated
	run.AllocationID = updated.AllocationID
	w.stepDone(ctx, run, StepSetAddress, storage.StepOK, nil)

	quotes, err := w.inventory.FetchQuotes(ctx, updated.AllocationID)
	if err != nil {
		log.Warn("quote fetch failed, continuing without quotes", "allocation_id", updated.AllocationID, "error", err)
		quotes = nil
		w.stepDone(ctx, run, StepFetchQuotes, storage.StepTolerated, err)
	} else {
		w.stepDone(ctx, run, StepFetchQuotes, storage.StepOK, nil)
	}
	st.Quotes = quotes
	st.SelectedQuote = SelectQuote(quotes, w.ranker)

	shipment, err := w.createFromQuote(ctx, st)
	if err == nil {
		w.stepDone(ctx, run, StepCreateShipment, storage.StepOK, nil)
	} else {
		log.Warn("quote-based shipment failed, using fallback", "order_id", order.ID, "error", err)
		w.stepDone(ctx, run, StepCreateShipment, storage.StepTolerated, err)

		shipment, err = w.markShipped(ctx, st)
		if err != nil {
			return nil, w.abort(ctx, run, StepMarkShipped, err)
		}
		w.stepDone(ctx, run, StepMarkShipped, storage.StepOK, nil)
	}

	st.Shipment = shipment
	st.Path = shipment.Source
	st.Status = StatusSuccess
	if st.SelectedQuote != nil {
		run.QuoteID = st.SelectedQuote.ID
	}
	w.complete(ctx, run, st)

	log.Info("fulfillment completed",
		"order_id", order.ID,
		"path", st.Path,
		"carrier", shipment.Carrier,
		"tracking_number", shipment.TrackingNumber,
	)
	return st, nil
}

// createFromQuote is the preferred shipment path.
func (w *Workflow) createFromQuote(ctx context.Context, st *State) (*domain.Shipment, error) {
	if st.SelectedQuote == nil {
		return nil, errNoQuote
	}
	return w.inventory.CreateShipment(ctx, st.UpdatedOrder.ID, st.UpdatedOrder.AllocationID, *st.SelectedQuote)
}

// markShipped is the fallback path: mark the order shipped with a placeholder
// tracking number and synthesize the shipment from the returned order.
func (w *Workflow) markShipped(ctx context.Context, st *State) (*domain.Shipment, error) {
	carrier := w.fallbackCarrier
	if st.SelectedQuote != nil && st.SelectedQuote.Carrier != "" {
		carrier = st.SelectedQuote.Carrier
	}
	tracking := w.trackingNumber()

	shipped, err := w.inventory.MarkShipped(ctx, st.UpdatedOrder.ID, carrier, tracking)
	if err != nil {
		return nil, err
	}
	st.UpdatedOrder = mergeOrder(st.UpdatedOrder, shipped)

	shp := &domain.Shipment{
		OrderID:        st.UpdatedOrder.ID,
		AllocationID:   st.UpdatedOrder.AllocationID,
		Carrier:        firstNonEmpty(shipped.Carrier, carrier),
		TrackingNumber: firstNonEmpty(shipped.TrackingNumber, tracking),
		Source:         domain.ShipmentFromFallback,
	}
	if st.SelectedQuote != nil {
		shp.Service = st.SelectedQuote.Service
		shp.Cost = st.SelectedQuote.TotalPrice
	}
	return shp, nil
}

// mergeOrder keeps fields the shipped response omits.
func mergeOrder(prev, next *domain.Order) *domain.Order {
	merged := *next
	if merged.ID == "" {
		merged.ID = prev.ID
	}
	if merged.AllocationID == "" {
		merged.AllocationID = prev.AllocationID
	}
	if merged.DeliveryAddress == nil {
		merged.DeliveryAddress = prev.DeliveryAddress
	}
	if merged.CustomerID == "" {
		merged.CustomerID = prev.CustomerID
	}
	return &merged
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (w *Workflow) stepDone(ctx context.Context, run *storage.Run, step string, status storage.StepStatus, err error) {
	rec := storage.StepRecord{Name: step, Status: status, At: w.now()}
	if err != nil {
		rec.Error = err.Error()
	}
	run.Steps = append(run.Steps, rec)
	w.save(ctx, run)
}

func (w *Workflow) abort(ctx context.Context, run *storage.Run, step string, err error) error {
	fe := fault.Classify(0, nil, err)
	run.Status = storage.RunAborted
	run.FailedStep = step
	run.Error = fe.Error()
	w.stepDone(ctx, run, step, storage.StepFailed, err)

	metrics.FulfillmentRunsTotal.WithLabelValues("aborted", "none").Inc()
	w.log.Error("fulfillment aborted",
		"run_id", run.ID,
		"step", step,
		"kind", fe.Kind,
		"customer_id", run.CustomerID,
		"order_id", run.OrderID,
		"error", err,
	)
	return err
}

func (w *Workflow) complete(ctx context.Context, run *storage.Run, st *State) {
	run.Status = storage.RunSucceeded
	run.Path = string(st.Path)
	run.ShipmentID = st.Shipment.ID
	run.TrackingNumber = st.Shipment.TrackingNumber
	w.save(ctx, run)

	metrics.FulfillmentRunsTotal.WithLabelValues("success", string(st.Path)).Inc()

	env := events.Envelope{Type: CompletedEvent, OccurredAt: w.now(), Payload: st}
	if err := w.publisher.Publish(ctx, run.ID, env); err != nil {
		w.log.Warn("completion event not published", "run_id", run.ID, "error", err)
	}
}

func (w *Workflow) save(ctx context.Context, run *storage.Run) {
	run.UpdatedAt = w.now()
	if err := w.runs.Save(ctx, run); err != nil {
		w.log.Warn("failed to persist run", "run_id", run.ID, "error", err)
	}
}

// GetRun returns a persisted run.
func (w *Workflow) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	return w.runs.Get(ctx, id)
}

// ListRuns returns the newest runs with status.
func (w *Workflow) ListRuns(ctx context.Context, status storage.RunStatus, limit int) ([]*storage.Run, error) {
	return w.runs.ListByStatus(ctx, status, limit)
}
