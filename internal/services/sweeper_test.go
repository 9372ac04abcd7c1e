package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
)

func TestSweepRemovesExpiredEphemeral(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired := &models.Message{Content: "a", Longitude: 1, Latitude: 1, IsEphemeral: true, ExpiresAt: &past}
	alive := &models.Message{Content: "b", Longitude: 1, Latitude: 1, IsEphemeral: true, ExpiresAt: &future}
	persistent := &models.Message{Content: "c", Longitude: 1, Latitude: 1, IsEphemeral: false, ExpiresAt: &past}
	for _, m := range []*models.Message{expired, alive, persistent} {
		if err := st.InsertMessage(ctx, m); err != nil {
			t.Fatalf("InsertMessage: %v", err)
		}
	}

	sw := NewSweeper(st, time.Hour, 365*24*time.Hour)
	sw.now = func() time.Time { return now }

	removed, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := st.GetMessage(ctx, expired.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatal("expired ephemeral message survived the sweep")
	}
	if _, err := st.GetMessage(ctx, alive.ID); err != nil {
		t.Fatalf("live message swept: %v", err)
	}
	if _, err := st.GetMessage(ctx, persistent.ID); err != nil {
		t.Fatalf("non-ephemeral message swept: %v", err)
	}

	// idempotent: nothing further to remove
	removed, err = sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second sweep removed %d, want 0", removed)
	}
}

func TestSweepTrimsEmotionHistory(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	retention := 30 * 24 * time.Hour

	old := &models.EmotionLog{UserID: uuid.New(), CreatedAt: now.Add(-retention - time.Hour)}
	fresh := &models.EmotionLog{UserID: uuid.New(), CreatedAt: now.Add(-time.Hour)}
	for _, e := range []*models.EmotionLog{old, fresh} {
		if err := st.AppendEmotionLog(ctx, e); err != nil {
			t.Fatalf("AppendEmotionLog: %v", err)
		}
	}

	sw := NewSweeper(st, time.Hour, retention)
	sw.now = func() time.Time { return now }

	if _, err := sw.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	// only the fresh entry should remain
	if removed, _ := st.TrimEmotionLogs(ctx, now.Add(time.Hour)); removed != 1 {
		t.Fatalf("entries left after sweep = %d, want 1", removed)
	}
}

func TestSweeperStartStop(t *testing.T) {
	t.Parallel()

	sw := NewSweeper(store.NewMemoryStore(), 10*time.Millisecond, time.Hour)
	done := make(chan struct{})
	go func() {
		sw.Start()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	sw.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	// Stop is safe to call twice
	sw.Stop()
}
