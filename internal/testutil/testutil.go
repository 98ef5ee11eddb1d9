// Package testutil provides record-store fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/db"
	"github.com/neume/monitor/internal/models"
	"gorm.io/gorm"
)

// OpenDB opens a migrated sqlite store in a per-test temp directory. A file
// is used rather than :memory: so every pooled connection sees the same data.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.Open(config.StoreConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(gormDB) })
	return gormDB
}

// InsertSession writes a session row with explicit times. end may be empty.
func InsertSession(t *testing.T, gormDB *gorm.DB, start, end, status string) models.Session {
	t.Helper()
	s := models.Session{StartTime: start, Status: status}
	if end != "" {
		s.EndTime = &end
	}
	if err := gormDB.Create(&s).Error; err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return s
}

// InsertFocus writes a focus sample for sessionID.
func InsertFocus(t *testing.T, gormDB *gorm.DB, sessionID uint, ts string, score int) models.FocusLog {
	t.Helper()
	f := models.FocusLog{SessionID: sessionID, Timestamp: ts, FocusScore: score}
	if err := gormDB.Create(&f).Error; err != nil {
		t.Fatalf("insert focus log: %v", err)
	}
	return f
}

// InsertEvent writes an event of eventType for sessionID.
func InsertEvent(t *testing.T, gormDB *gorm.DB, sessionID uint, ts, eventType string) models.Event {
	t.Helper()
	e := models.Event{SessionID: sessionID, Timestamp: ts, EventType: eventType}
	if err := gormDB.Create(&e).Error; err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return e
}

// Count returns the number of rows of model matching the optional condition.
func Count(t *testing.T, gormDB *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	q := gormDB.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
