package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/storage"
)

// MemoryStorage keeps runs in process. Used when no database is configured.
type MemoryStorage struct {
	runs map[string]*storage.Run
	mu   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		runs: make(map[string]*storage.Run),
	}
}

// -----------------------------------------------------------------------------
// Run Repository
// -----------------------------------------------------------------------------

type RunRepo struct {
	store *MemoryStorage
}

func NewRunRepo(store *MemoryStorage) *RunRepo {
	return &RunRepo{store: store}
}

func (r *RunRepo) Save(ctx context.Context, run *storage.Run) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.runs[run.ID] = cloneRun(run)
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id string) (*storage.Run, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	run, ok := r.store.runs[id]
	if !ok {
		return nil, storage.ErrRunNotFound
	}
	return cloneRun(run), nil
}

func (r *RunRepo) ListByStatus(ctx context.Context, status storage.RunStatus, limit int) ([]*storage.Run, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*storage.Run
	for _, run := range r.store.runs {
		if run.Status == status {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RunRepo) DeleteFinishedBefore(ctx context.Context, t time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, run := range r.store.runs {
		if run.Status != storage.RunRunning && run.UpdatedAt.Before(t) {
			delete(r.store.runs, id)
			n++
		}
	}
	return n, nil
}

// cloneRun copies the step slice so callers can't mutate stored state.
func cloneRun(run *storage.Run) *storage.Run {
	c := *run
	c.Steps = append([]storage.StepRecord(nil), run.Steps...)
	return &c
}
