package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/storage"
	"github.com/vietddude/shipbridge/internal/infra/storage/memory"
)

func TestPruner_Interval(t *testing.T) {
	tests := []struct {
		retention time.Duration
		want      time.Duration
	}{
		{5 * time.Minute, time.Minute},
		{time.Hour, 6 * time.Minute},
		{72 * time.Hour, time.Hour},
	}
	for _, tt := range tests {
		if got := NewPruner(tt.retention, nil).Interval(); got != tt.want {
			t.Errorf("Interval(%v) = %v, want %v", tt.retention, got, tt.want)
		}
	}
}

func TestPruner_Prune(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRunRepo(memory.NewMemoryStorage())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = repo.Save(ctx, &storage.Run{ID: "stale", Status: storage.RunSucceeded, UpdatedAt: now.Add(-48 * time.Hour)})
	_ = repo.Save(ctx, &storage.Run{ID: "fresh", Status: storage.RunSucceeded, UpdatedAt: now.Add(-time.Hour)})
	_ = repo.Save(ctx, &storage.Run{ID: "stuck", Status: storage.RunRunning, UpdatedAt: now.Add(-48 * time.Hour)})

	p := NewPruner(24*time.Hour, repo)
	p.now = func() time.Time { return now }

	if n := p.Prune(ctx); n != 1 {
		t.Errorf("pruned %d runs, want 1", n)
	}
	if _, err := repo.Get(ctx, "stale"); err == nil {
		t.Error("stale run should be gone")
	}
	for _, id := range []string{"fresh", "stuck"} {
		if _, err := repo.Get(ctx, id); err != nil {
			t.Errorf("run %s should survive: %v", id, err)
		}
	}
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewPruner(0, nil).Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return when retention is disabled")
	}
}
