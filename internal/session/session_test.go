package session

import (
	"sync"
	"testing"
	"time"

	"github.com/neume/monitor/internal/models"
	"github.com/neume/monitor/internal/testutil"
	"github.com/neume/monitor/internal/timestamp"
	"gorm.io/gorm"
)

func TestStart(t *testing.T) {
	db := testutil.OpenDB(t)

	s, err := Start(db)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.ID != 1 {
		t.Errorf("ID = %d, want 1", s.ID)
	}
	if s.Status != models.StatusRunning {
		t.Errorf("Status = %q, want %q", s.Status, models.StatusRunning)
	}
	if s.EndTime != nil {
		t.Errorf("EndTime = %q, want nil", *s.EndTime)
	}
	if _, err := time.Parse(timestamp.Layout, s.StartTime); err != nil {
		t.Errorf("StartTime %q not canonical: %v", s.StartTime, err)
	}

	s2, err := Start(db)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if s2.ID <= s.ID {
		t.Errorf("second ID = %d, want > %d", s2.ID, s.ID)
	}
}

func TestEnd(t *testing.T) {
	tests := []struct {
		name        string
		interrupted bool
		want        string
	}{
		{"ended", false, models.StatusEnded},
		{"interrupted", true, models.StatusInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenDB(t)
			s, err := Start(db)
			if err != nil {
				t.Fatalf("Start: %v", err)
			}

			n, err := End(db, s.ID, tt.interrupted)
			if err != nil {
				t.Fatalf("End: %v", err)
			}
			if n != 1 {
				t.Errorf("rows affected = %d, want 1", n)
			}

			got, err := Get(db, s.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Status != tt.want {
				t.Errorf("Status = %q, want %q", got.Status, tt.want)
			}
			if got.EndTime == nil {
				t.Fatal("EndTime = nil, want set")
			}
			if *got.EndTime < got.StartTime {
				t.Errorf("EndTime %q before StartTime %q", *got.EndTime, got.StartTime)
			}
		})
	}
}

func TestEnd_UnknownSessionIsNoOp(t *testing.T) {
	db := testutil.OpenDB(t)

	n, err := End(db, 42, false)
	if err != nil {
		t.Fatalf("End unknown: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
	if c := testutil.Count(t, db, &models.Session{}, ""); c != 0 {
		t.Errorf("sessions = %d, want 0", c)
	}
}

func TestEnd_OnlyOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	s := testutil.InsertSession(t, db, "2026-01-01T10:00:00Z", "2026-01-01T10:30:00Z", models.StatusEnded)

	n, err := End(db, s.ID, true)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
	got, _ := Get(db, s.ID)
	if got.Status != models.StatusEnded || *got.EndTime != "2026-01-01T10:30:00Z" {
		t.Errorf("finished session changed: status=%q end=%q", got.Status, *got.EndTime)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	got, err := Get(db, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %+v, want nil", got)
	}
}

// seedSessions creates n sessions, each with two focus logs and one event.
func seedSessions(t *testing.T, n int) *gorm.DB {
	t.Helper()
	db := testutil.OpenDB(t)
	for i := 0; i < n; i++ {
		s := testutil.InsertSession(t, db, "2026-01-01T10:00:00Z", "", models.StatusRunning)
		testutil.InsertFocus(t, db, s.ID, "2026-01-01T10:01:00Z", 50)
		testutil.InsertFocus(t, db, s.ID, "2026-01-01T10:02:00Z", 60)
		testutil.InsertEvent(t, db, s.ID, "2026-01-01T10:03:00Z", models.EventMeltdown)
	}
	return db
}

func TestDeleteRange(t *testing.T) {
	db := seedSessions(t, 5)

	deleted, err := DeleteRange(db, 2, 4)
	if err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	if c := testutil.Count(t, db, &models.Session{}, ""); c != 2 {
		t.Errorf("sessions = %d, want 2", c)
	}
	if c := testutil.Count(t, db, &models.FocusLog{}, "session_id BETWEEN ? AND ?", 2, 4); c != 0 {
		t.Errorf("focus logs in range = %d, want 0", c)
	}
	if c := testutil.Count(t, db, &models.Event{}, "session_id BETWEEN ? AND ?", 2, 4); c != 0 {
		t.Errorf("events in range = %d, want 0", c)
	}
	if c := testutil.Count(t, db, &models.FocusLog{}, ""); c != 4 {
		t.Errorf("remaining focus logs = %d, want 4", c)
	}
	if c := testutil.Count(t, db, &models.Event{}, ""); c != 2 {
		t.Errorf("remaining events = %d, want 2", c)
	}
	for _, id := range []uint{1, 5} {
		if s, _ := Get(db, id); s == nil {
			t.Errorf("session %d deleted, want kept", id)
		}
	}
}

func TestDeleteRange_ReversedBoundsMatchForward(t *testing.T) {
	forward := seedSessions(t, 6)
	reversed := seedSessions(t, 6)

	nf, err := DeleteRange(forward, 2, 5)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	nr, err := DeleteRange(reversed, 5, 2)
	if err != nil {
		t.Fatalf("reversed: %v", err)
	}
	if nf != nr {
		t.Errorf("deleted forward=%d reversed=%d", nf, nr)
	}
	for _, model := range []interface{}{&models.Session{}, &models.FocusLog{}, &models.Event{}} {
		cf := testutil.Count(t, forward, model, "")
		cr := testutil.Count(t, reversed, model, "")
		if cf != cr {
			t.Errorf("%T: forward=%d reversed=%d", model, cf, cr)
		}
	}
}

func TestDeleteRange_EmptyRange(t *testing.T) {
	db := seedSessions(t, 2)

	deleted, err := DeleteRange(db, 10, 20)
	if err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if c := testutil.Count(t, db, &models.Session{}, ""); c != 2 {
		t.Errorf("sessions = %d, want 2", c)
	}
}

func TestDeleteRange_OrphanedRecords(t *testing.T) {
	db := testutil.OpenDB(t)
	// Samples for a session id that has no row are still cleaned up.
	testutil.InsertFocus(t, db, 3, "2026-01-01T10:00:00Z", 10)
	testutil.InsertEvent(t, db, 3, "2026-01-01T10:00:00Z", models.EventMeltdownCleared)

	deleted, err := DeleteRange(db, 1, 3)
	if err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if c := testutil.Count(t, db, &models.FocusLog{}, ""); c != 0 {
		t.Errorf("focus logs = %d, want 0", c)
	}
	if c := testutil.Count(t, db, &models.Event{}, ""); c != 0 {
		t.Errorf("events = %d, want 0", c)
	}
}

func TestPrune(t *testing.T) {
	db := testutil.OpenDB(t)
	old := testutil.InsertSession(t, db, "2026-01-01T10:00:00Z", "2026-01-01T11:00:00Z", models.StatusEnded)
	testutil.InsertFocus(t, db, old.ID, "2026-01-01T10:05:00Z", 70)
	testutil.InsertEvent(t, db, old.ID, "2026-01-01T10:06:00Z", models.EventMeltdown)
	oldRunning := testutil.InsertSession(t, db, "2026-01-02T10:00:00Z", "", models.StatusRunning)
	recent := testutil.InsertSession(t, db, "2026-03-01T10:00:00Z", "2026-03-01T10:10:00Z", models.StatusInterrupted)
	testutil.InsertFocus(t, db, recent.ID, "2026-03-01T10:05:00Z", 30)

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	deleted, err := Prune(db, cutoff)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if s, _ := Get(db, old.ID); s != nil {
		t.Error("old finished session was kept")
	}
	if s, _ := Get(db, oldRunning.ID); s == nil {
		t.Error("old running session was pruned")
	}
	if s, _ := Get(db, recent.ID); s == nil {
		t.Error("recent session was pruned")
	}
	if c := testutil.Count(t, db, &models.FocusLog{}, "session_id = ?", old.ID); c != 0 {
		t.Errorf("focus logs of pruned session = %d, want 0", c)
	}
	if c := testutil.Count(t, db, &models.Event{}, "session_id = ?", old.ID); c != 0 {
		t.Errorf("events of pruned session = %d, want 0", c)
	}
	if c := testutil.Count(t, db, &models.FocusLog{}, ""); c != 1 {
		t.Errorf("remaining focus logs = %d, want 1", c)
	}

	// Nothing left to prune.
	deleted, err = Prune(db, cutoff)
	if err != nil {
		t.Fatalf("second Prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("second prune deleted = %d, want 0", deleted)
	}
}

func TestCascadeDelete_RollsBackOnFailure(t *testing.T) {
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		run  func(db *gorm.DB) (int64, error)
	}{
		{"delete range", func(db *gorm.DB) (int64, error) { return DeleteRange(db, 1, 1) }},
		{"prune", func(db *gorm.DB) (int64, error) { return Prune(db, cutoff) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenDB(t)
			s := testutil.InsertSession(t, db, "2026-01-01T10:00:00Z", "2026-01-01T10:30:00Z", models.StatusEnded)
			testutil.InsertFocus(t, db, s.ID, "2026-01-01T10:01:00Z", 50)
			testutil.InsertEvent(t, db, s.ID, "2026-01-01T10:02:00Z", models.EventMeltdown)

			// Focus logs are deleted before events, so the failure lands
			// after the first delete inside the transaction.
			if err := db.Migrator().DropTable(&models.Event{}); err != nil {
				t.Fatalf("drop events: %v", err)
			}

			deleted, err := tt.run(db)
			if err == nil {
				t.Fatal("expected error with events table missing")
			}
			if deleted != 0 {
				t.Errorf("deleted = %d, want 0", deleted)
			}
			if c := testutil.Count(t, db, &models.FocusLog{}, ""); c != 1 {
				t.Errorf("focus logs = %d, want 1 after rollback", c)
			}
			if c := testutil.Count(t, db, &models.Session{}, ""); c != 1 {
				t.Errorf("sessions = %d, want 1 after rollback", c)
			}
		})
	}
}

func TestStart_Concurrent(t *testing.T) {
	db := testutil.OpenDB(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	ids := make(chan uint, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := Start(db)
			if err != nil {
				errs <- err
				return
			}
			ids <- s.ID
		}()
	}
	wg.Wait()
	close(errs)
	close(ids)

	for err := range errs {
		t.Errorf("concurrent Start: %v", err)
	}
	seen := make(map[uint]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate session id %d", id)
		}
		seen[id] = true
	}
	if c := testutil.Count(t, db, &models.Session{}, ""); c != n {
		t.Errorf("sessions = %d, want %d", c, n)
	}
}
