// Package session manages the monitoring session lifecycle: creation,
// termination, and cascading deletion.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/neume/monitor/internal/models"
	"github.com/neume/monitor/internal/timestamp"
	"gorm.io/gorm"
)

// Start inserts a new running session stamped with the current time.
func Start(db *gorm.DB) (*models.Session, error) {
	s := &models.Session{
		StartTime: timestamp.Now(),
		Status:    models.StatusRunning,
	}
	if err := db.Create(s).Error; err != nil {
		return nil, fmt.Errorf("session: start: %w", err)
	}
	return s, nil
}

// End stamps EndTime and moves a running session to ended, or interrupted
// when interrupted is set. Unknown or already finished sessions are left
// alone and reported as zero rows affected, not as an error.
func End(db *gorm.DB, id uint, interrupted bool) (int64, error) {
	status := models.StatusEnded
	if interrupted {
		status = models.StatusInterrupted
	}
	result := db.Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.StatusRunning).
		Updates(map[string]interface{}{
			"end_time": timestamp.Now(),
			"status":   status,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("session: end %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

// Get returns the session with id, or nil if it does not exist.
func Get(db *gorm.DB, id uint) (*models.Session, error) {
	var s models.Session
	if err := db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: get %d: %w", id, err)
	}
	return &s, nil
}

// DeleteRange deletes the sessions with IDs in [fromID, toID] along with
// their focus logs and events, in one transaction. Reversed bounds are
// swapped. Returns the number of sessions deleted.
func DeleteRange(db *gorm.DB, fromID, toID uint) (int64, error) {
	if fromID > toID {
		fromID, toID = toID, fromID
	}

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id BETWEEN ? AND ?", fromID, toID).
			Delete(&models.FocusLog{}).Error; err != nil {
			return fmt.Errorf("delete focus logs: %w", err)
		}
		if err := tx.Where("session_id BETWEEN ? AND ?", fromID, toID).
			Delete(&models.Event{}).Error; err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		result := tx.Where("id BETWEEN ? AND ?", fromID, toID).Delete(&models.Session{})
		if result.Error != nil {
			return fmt.Errorf("delete sessions: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session: delete range %d-%d: %w", fromID, toID, err)
	}
	return deleted, nil
}

// Prune deletes finished sessions that started before cutoff, with their
// focus logs and events, in one transaction. Running sessions are kept
// regardless of age.
func Prune(db *gorm.DB, cutoff time.Time) (int64, error) {
	before := timestamp.Format(cutoff)

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Session{}).
			Where("start_time < ? AND status <> ?", before, models.StatusRunning).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("select sessions: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&models.FocusLog{}).Error; err != nil {
			return fmt.Errorf("delete focus logs: %w", err)
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&models.Event{}).Error; err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Session{})
		if result.Error != nil {
			return fmt.Errorf("delete sessions: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session: prune before %s: %w", before, err)
	}
	return deleted, nil
}
