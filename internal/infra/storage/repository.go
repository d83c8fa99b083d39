package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRunNotFound is returned when a fulfillment run doesn't exist
	ErrRunNotFound = errors.New("fulfillment run not found")
)

// RunStatus is the lifecycle state of a fulfillment run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunAborted   RunStatus = "aborted"
)

// StepStatus is the outcome of one saga step.
type StepStatus string

const (
	StepOK        StepStatus = "ok"
	StepFailed    StepStatus = "failed"
	StepTolerated StepStatus = "tolerated"
)

// StepRecord is one executed saga step.
type StepRecord struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
	At     time.Time  `json:"at"`
}

// Run is the durable record of one fulfillment saga. Upstream identifiers
// created before an abort stay here so orphans can be found.
type Run struct {
	ID             string       `json:"id"`
	Status         RunStatus    `json:"status"`
	Path           string       `json:"path,omitempty"`
	FailedStep     string       `json:"failed_step,omitempty"`
	Error          string       `json:"error,omitempty"`
	CustomerID     string       `json:"customer_id,omitempty"`
	OrderID        string       `json:"order_id,omitempty"`
	AllocationID   string       `json:"allocation_id,omitempty"`
	QuoteID        string       `json:"quote_id,omitempty"`
	ShipmentID     string       `json:"shipment_id,omitempty"`
	TrackingNumber string       `json:"tracking_number,omitempty"`
	Steps          []StepRecord `json:"steps"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RunRepository handles fulfillment run storage operations
type RunRepository interface {
	// Save inserts or replaces a run
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by id
	Get(ctx context.Context, id string) (*Run, error)

	// ListByStatus returns the newest runs with status, at most limit
	ListByStatus(ctx context.Context, status RunStatus, limit int) ([]*Run, error)

	// DeleteFinishedBefore removes succeeded and aborted runs last updated
	// before t and reports how many were removed
	DeleteFinishedBefore(ctx context.Context, t time.Time) (int64, error)
}
