package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/storage"
)

// steps stores []StepRecord as JSONB.
type steps []storage.StepRecord

func (s steps) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]storage.StepRecord(s))
}

func (s *steps) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported steps column type %T", src)
	}
	return json.Unmarshal(data, (*[]storage.StepRecord)(s))
}

type runRow struct {
	ID             string    `db:"id"`
	Status         string    `db:"status"`
	Path           string    `db:"path"`
	FailedStep     string    `db:"failed_step"`
	Error          string    `db:"error"`
	CustomerID     string    `db:"customer_id"`
	OrderID        string    `db:"order_id"`
	AllocationID   string    `db:"allocation_id"`
	QuoteID        string    `db:"quote_id"`
	ShipmentID     string    `db:"shipment_id"`
	TrackingNumber string    `db:"tracking_number"`
	Steps          steps     `db:"steps"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func toRow(r *storage.Run) runRow {
	return runRow{
		ID:             r.ID,
		Status:         string(r.Status),
		Path:           r.Path,
		FailedStep:     r.FailedStep,
		Error:          r.Error,
		CustomerID:     r.CustomerID,
		OrderID:        r.OrderID,
		AllocationID:   r.AllocationID,
		QuoteID:        r.QuoteID,
		ShipmentID:     r.ShipmentID,
		TrackingNumber: r.TrackingNumber,
		Steps:          steps(r.Steps),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (row runRow) toRun() *storage.Run {
	return &storage.Run{
		ID:             row.ID,
		Status:         storage.RunStatus(row.Status),
		Path:           row.Path,
		FailedStep:     row.FailedStep,
		Error:          row.Error,
		CustomerID:     row.CustomerID,
		OrderID:        row.OrderID,
		AllocationID:   row.AllocationID,
		QuoteID:        row.QuoteID,
		ShipmentID:     row.ShipmentID,
		TrackingNumber: row.TrackingNumber,
		Steps:          []storage.StepRecord(row.Steps),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

const upsertRun = `
INSERT INTO fulfillment_runs (
    id, status, path, failed_step, error, customer_id, order_id, allocation_id,
    quote_id, shipment_id, tracking_number, steps, created_at, updated_at
) VALUES (
    :id, :status, :path, :failed_step, :error, :customer_id, :order_id, :allocation_id,
    :quote_id, :shipment_id, :tracking_number, :steps, :created_at, :updated_at
)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    path = EXCLUDED.path,
    failed_step = EXCLUDED.failed_step,
    error = EXCLUDED.error,
    customer_id = EXCLUDED.customer_id,
    order_id = EXCLUDED.order_id,
    allocation_id = EXCLUDED.allocation_id,
    quote_id = EXCLUDED.quote_id,
    shipment_id = EXCLUDED.shipment_id,
    tracking_number = EXCLUDED.tracking_number,
    steps = EXCLUDED.steps,
    updated_at = EXCLUDED.updated_at`

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) Save(ctx context.Context, run *storage.Run) error {
	if _, err := r.db.NamedExecContext(ctx, upsertRun, toRow(run)); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id string) (*storage.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM fulfillment_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return row.toRun(), nil
}

func (r *RunRepo) ListByStatus(ctx context.Context, status storage.RunStatus, limit int) ([]*storage.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM fulfillment_runs WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]*storage.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRun())
	}
	return out, nil
}

func (r *RunRepo) DeleteFinishedBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM fulfillment_runs WHERE status <> $1 AND updated_at < $2`,
		string(storage.RunRunning), t)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
