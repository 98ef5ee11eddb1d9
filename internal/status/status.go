// Package status projects the dashboard's "current" view from stored
// sessions, focus logs and events. Nothing is cached; each call reads the
// store inside one transaction.
package status

import (
	"fmt"

	"github.com/neume/monitor/internal/models"
	"gorm.io/gorm"
)

// Current is the latest-status view. All pointer fields are nil and
// Meltdown is false when no session exists.
type Current struct {
	SessionID  *uint   `json:"session_id"`
	Status     *string `json:"status"`
	FocusScore *int    `json:"focus_score"`
	Meltdown   bool    `json:"meltdown"`
}

// Latest returns the status of the most recently created session, its most
// recent focus score, and whether a meltdown is active for it.
func Latest(db *gorm.DB) (*Current, error) {
	cur := &Current{}
	err := db.Transaction(func(tx *gorm.DB) error {
		var s models.Session
		res := tx.Order("id DESC").Limit(1).Find(&s)
		if res.Error != nil {
			return fmt.Errorf("latest session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		cur.SessionID = &s.ID
		cur.Status = &s.Status

		var f models.FocusLog
		res = tx.Where("session_id = ?", s.ID).Order("id DESC").Limit(1).Find(&f)
		if res.Error != nil {
			return fmt.Errorf("latest focus: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			cur.FocusScore = &f.FocusScore
		}

		active, err := MeltdownActive(tx, s.ID)
		if err != nil {
			return err
		}
		cur.Meltdown = active
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: latest: %w", err)
	}
	return cur, nil
}

// MeltdownActive reports whether the newest meltdown event for sessionID
// outranks the newest meltdown_cleared event. Events are ranked by ID
// (write order), never by their client-supplied timestamps.
func MeltdownActive(db *gorm.DB, sessionID uint) (bool, error) {
	meltdown, err := maxEventID(db, sessionID, models.EventMeltdown)
	if err != nil {
		return false, err
	}
	if meltdown == nil {
		return false, nil
	}
	cleared, err := maxEventID(db, sessionID, models.EventMeltdownCleared)
	if err != nil {
		return false, err
	}
	return cleared == nil || *meltdown > *cleared, nil
}

// maxEventID returns the highest event ID of eventType for sessionID, or
// nil if there is none.
func maxEventID(db *gorm.DB, sessionID uint, eventType string) (*uint, error) {
	type maxRow struct {
		MaxID *uint
	}
	var row maxRow
	if err := db.Model(&models.Event{}).
		Select("MAX(id) AS max_id").
		Where("session_id = ? AND event_type = ?", sessionID, eventType).
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("max %s event for session %d: %w", eventType, sessionID, err)
	}
	return row.MaxID, nil
}
