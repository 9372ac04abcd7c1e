package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rohanjain1648/whisper-thrillz/internal/store"
)

// Sweeper physically deletes logically-expired ephemeral messages and trims
// stale emotion history on a fixed cadence. Reads never depend on it: expired
// messages are already treated as absent by every read path.
type Sweeper struct {
	store     store.MessageStore
	interval  time.Duration
	retention time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

func NewSweeper(st store.MessageStore, interval, retention time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 365 * 24 * time.Hour
	}
	return &Sweeper{
		store:     st,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start runs the sweep loop; call with `go`.
func (s *Sweeper) Start() {
	slog.Info("expiration sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(context.Background()); err != nil {
				slog.Error("sweep failed", "error", err)
			}
		case <-s.stopChan:
			slog.Info("expiration sweeper stopped")
			return
		}
	}
}

// Stop shuts the loop down.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep is the idempotent entry point, callable from the timer or directly.
// It returns the number of messages removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now().UTC()

	removed, err := s.store.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("expired messages swept", "removed", removed)
	}

	trimmed, err := s.store.TrimEmotionLogs(ctx, now.Add(-s.retention))
	if err != nil {
		// message sweep already succeeded; report its count
		slog.Error("emotion log trim failed", "error", err)
		return removed, nil
	}
	if trimmed > 0 {
		slog.Info("stale emotion logs trimmed", "removed", trimmed)
	}
	return removed, nil
}
