package retention

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/models"
	"github.com/neume/monitor/internal/testutil"
)

func TestPruner_Disabled(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.InsertSession(t, db, "2000-01-01T00:00:00Z", "2000-01-01T01:00:00Z", models.StatusEnded)

	p := New(db, config.RetentionConfig{KeepDays: 0, Schedule: "0 3 * * *"})
	if p.Enabled() {
		t.Fatal("Enabled() = true, want false")
	}
	n, err := p.RunOnce(time.Now())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 0 {
		t.Errorf("pruned %d, want 0", n)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Errorf("Run disabled: %v", err)
	}
	if c := testutil.Count(t, db, &models.Session{}, ""); c != 1 {
		t.Errorf("sessions = %d, want 1", c)
	}
}

func TestPruner_Cutoff(t *testing.T) {
	p := New(nil, config.RetentionConfig{KeepDays: 30})
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	want := time.Date(2026, 9, 19, 12, 0, 0, 0, time.UTC)
	if got := p.Cutoff(now); !got.Equal(want) {
		t.Errorf("Cutoff() = %v, want %v", got, want)
	}
}

func TestPruner_RunOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	old := testutil.InsertSession(t, db, "2026-08-01T10:00:00Z", "2026-08-01T11:00:00Z", models.StatusEnded)
	testutil.InsertFocus(t, db, old.ID, "2026-08-01T10:30:00Z", 55)
	testutil.InsertSession(t, db, "2026-08-02T10:00:00Z", "", models.StatusRunning)
	testutil.InsertSession(t, db, "2026-10-18T10:00:00Z", "2026-10-18T10:20:00Z", models.StatusInterrupted)

	p := New(db, config.RetentionConfig{KeepDays: 30, Schedule: "0 3 * * *"})
	n, err := p.RunOnce(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if c := testutil.Count(t, db, &models.Session{}, ""); c != 2 {
		t.Errorf("sessions = %d, want 2", c)
	}
	if c := testutil.Count(t, db, &models.FocusLog{}, ""); c != 0 {
		t.Errorf("focus logs = %d, want 0", c)
	}
}

func TestPruner_RunStopsOnCancel(t *testing.T) {
	db := testutil.OpenDB(t)
	p := New(db, config.RetentionConfig{KeepDays: 7, Schedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPruner_RunInvalidSchedule(t *testing.T) {
	p := New(nil, config.RetentionConfig{KeepDays: 7, Schedule: "whenever"})
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if !strings.Contains(err.Error(), "parse schedule") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "parse schedule")
	}
}
