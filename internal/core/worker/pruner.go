package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/metrics"
)

// Pruner deletes finished fulfillment runs based on retention policy.
type Pruner struct {
	retention time.Duration
	runs      storage.RunRepository
	now       func() time.Time
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker. A zero retention keeps runs forever.
func NewPruner(retention time.Duration, runs storage.RunRepository) *Pruner {
	return &Pruner{
		retention: retention,
		runs:      runs,
		now:       time.Now,
		log:       slog.Default().With("component", "pruner"),
	}
}

// Interval is how often the pruner runs: a tenth of the retention period,
// clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, time.Hour)
	return max(interval, time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Initial prune
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune removes runs that finished before the retention threshold.
func (p *Pruner) Prune(ctx context.Context) int64 {
	threshold := p.now().Add(-p.retention)

	n, err := p.runs.DeleteFinishedBefore(ctx, threshold)
	if err != nil {
		p.log.Error("Failed to prune fulfillment runs", "error", err)
		return 0
	}
	if n > 0 {
		metrics.RunsPrunedTotal.Add(float64(n))
		p.log.Info("Pruned fulfillment runs", "count", n, "before", threshold.Format(time.RFC3339))
	}
	return n
}
