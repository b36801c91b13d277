package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/vgrebnev/duolink/internal/infra/adapters/memory"
)

// Reaper periodically deletes rooms that have been empty longer than the
// retention window. Normal operation deletes rooms eagerly when the last
// member departs; the reaper is a backstop for rooms that were created but
// never joined, or whose cleanup was missed.
type Reaper struct {
	registry  *memory.RoomRegistry
	interval  time.Duration
	retention time.Duration
}

func NewReaper(registry *memory.RoomRegistry, interval, retention time.Duration) *Reaper {
	return &Reaper{
		registry:  registry,
		interval:  interval,
		retention: retention,
	}
}

// Run blocks until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept := r.registry.SweepStale(r.retention); swept > 0 {
				slog.Info("reaper sweep finished", slog.Int("rooms_deleted", swept))
			}
		}
	}
}
