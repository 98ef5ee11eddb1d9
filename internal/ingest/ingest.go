// Package ingest persists focus samples and meltdown events. Ingestion does
// not look at the parent session: samples that race a session ending are
// still recorded.
package ingest

import (
	"fmt"
	"strings"

	"github.com/neume/monitor/internal/models"
	"github.com/neume/monitor/internal/timestamp"
	"github.com/neume/monitor/internal/validate"
	"gorm.io/gorm"
)

// Focus score bounds, inclusive.
const (
	MinFocusScore = 0
	MaxFocusScore = 100
)

// CheckFocusScore rejects scores outside [MinFocusScore, MaxFocusScore].
func CheckFocusScore(score int64) error {
	if score < MinFocusScore || score > MaxFocusScore {
		return validate.Invalid("focus_score", "focus_score must be between %d and %d, got %d",
			MinFocusScore, MaxFocusScore, score)
	}
	return nil
}

// AddFocus records one focus sample. ts is the client-supplied timestamp;
// nil or unparseable values fall back to the current time.
func AddFocus(db *gorm.DB, sessionID uint, score int, ts *string) (*models.FocusLog, error) {
	if err := CheckFocusScore(int64(score)); err != nil {
		return nil, err
	}
	f := &models.FocusLog{
		SessionID:  sessionID,
		Timestamp:  timestamp.NormalizeOrNow(ts),
		FocusScore: score,
	}
	if err := db.Create(f).Error; err != nil {
		return nil, fmt.Errorf("ingest: add focus for session %d: %w", sessionID, err)
	}
	return f, nil
}

// LogMeltdown records a meltdown event. Blank notes are stored as NULL.
func LogMeltdown(db *gorm.DB, sessionID uint, ts, notes *string) (*models.Event, error) {
	e := &models.Event{
		SessionID: sessionID,
		Timestamp: timestamp.NormalizeOrNow(ts),
		EventType: models.EventMeltdown,
	}
	if notes != nil && strings.TrimSpace(*notes) != "" {
		n := *notes
		e.Notes = &n
	}
	if err := db.Create(e).Error; err != nil {
		return nil, fmt.Errorf("ingest: log meltdown for session %d: %w", sessionID, err)
	}
	return e, nil
}

// ClearMeltdown records that a meltdown was acknowledged. Clearing is a live
// action, so it is always stamped with the current time. Redundant clears
// are recorded like any other.
func ClearMeltdown(db *gorm.DB, sessionID uint) (*models.Event, error) {
	e := &models.Event{
		SessionID: sessionID,
		Timestamp: timestamp.Now(),
		EventType: models.EventMeltdownCleared,
	}
	if err := db.Create(e).Error; err != nil {
		return nil, fmt.Errorf("ingest: clear meltdown for session %d: %w", sessionID, err)
	}
	return e, nil
}
