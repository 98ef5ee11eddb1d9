// Package history aggregates stored sessions into per-session durations,
// average focus and weekly counts. Everything is recomputed per call;
// running sessions report an in-progress duration.
package history

import (
	"fmt"
	"math"
	"time"

	"github.com/neume/monitor/internal/models"
	"github.com/neume/monitor/internal/timestamp"
	"gorm.io/gorm"
)

// DefaultLimit is the number of sessions returned when no limit is given.
const DefaultLimit = 100

// SessionRow is one session in the history view.
type SessionRow struct {
	SessionID       uint     `json:"session_id"`
	StartTime       string   `json:"start_time"`
	EndTime         *string  `json:"end_time"`
	DurationSeconds *int64   `json:"duration_seconds"`
	AvgFocus        *float64 `json:"avg_focus"`
	Status          string   `json:"status"`
	MeltdownCount   int      `json:"meltdown_count"`
}

// Report is the history view: recent sessions, newest first, plus counts
// for the current week window.
type Report struct {
	Sessions                   []SessionRow `json:"sessions"`
	SessionsThisWeek           int          `json:"sessions_this_week"`
	AvgDurationSecondsThisWeek *int64       `json:"avg_duration_seconds_this_week"`
	ComfortBreaksThisWeek      int          `json:"comfort_breaks_this_week"`
}

// Summary describes the most recently created session.
type Summary struct {
	SessionID          *uint    `json:"session_id"`
	Status             *string  `json:"status"`
	StartTime          *string  `json:"start_time"`
	EndTime            *string  `json:"end_time"`
	DurationSeconds    *int64   `json:"duration_seconds"`
	AvgFocus           *float64 `json:"avg_focus"`
	ComfortBreaksCount int      `json:"comfort_breaks_count"`
}

// WeekStart returns midnight UTC of the day seven days before now's day.
// Sessions starting at or after it count toward the week.
func WeekStart(now time.Time) time.Time {
	return timestamp.StartOfDay(now).AddDate(0, 0, -7)
}

// Build fetches up to limit of the most recent sessions and aggregates
// them. now anchors in-progress durations and the week window.
func Build(db *gorm.DB, limit int, now time.Time) (*Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	report := &Report{Sessions: []SessionRow{}}
	err := db.Transaction(func(tx *gorm.DB) error {
		var sessions []models.Session
		if err := tx.Order("id DESC").Limit(limit).Find(&sessions).Error; err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		rows, err := aggregate(tx, sessions, now)
		if err != nil {
			return err
		}
		report.Sessions = rows
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: build: %w", err)
	}

	weekStart := timestamp.Format(WeekStart(now))
	var durSum, durN int64
	for _, r := range report.Sessions {
		if r.StartTime < weekStart {
			continue
		}
		report.SessionsThisWeek++
		report.ComfortBreaksThisWeek += r.MeltdownCount
		if r.Status != models.StatusRunning && r.DurationSeconds != nil {
			durSum += *r.DurationSeconds
			durN++
		}
	}
	if durN > 0 {
		avg := int64(math.Round(float64(durSum) / float64(durN)))
		report.AvgDurationSecondsThisWeek = &avg
	}
	return report, nil
}

// LatestSummary aggregates the most recently created session. All fields
// are empty when there are no sessions.
func LatestSummary(db *gorm.DB, now time.Time) (*Summary, error) {
	sum := &Summary{}
	err := db.Transaction(func(tx *gorm.DB) error {
		var sessions []models.Session
		if err := tx.Order("id DESC").Limit(1).Find(&sessions).Error; err != nil {
			return fmt.Errorf("latest session: %w", err)
		}
		if len(sessions) == 0 {
			return nil
		}
		rows, err := aggregate(tx, sessions, now)
		if err != nil {
			return err
		}
		r := rows[0]
		sum.SessionID = &r.SessionID
		sum.Status = &r.Status
		sum.StartTime = &r.StartTime
		sum.EndTime = r.EndTime
		sum.DurationSeconds = r.DurationSeconds
		sum.AvgFocus = r.AvgFocus
		sum.ComfortBreaksCount = r.MeltdownCount
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: summary: %w", err)
	}
	return sum, nil
}

// Duration returns the session length in whole seconds: end minus start for
// finished sessions, now minus start for running ones. It returns nil when
// the start time cannot be parsed.
func Duration(s models.Session, now time.Time) *int64 {
	start, ok := timestamp.Parse(s.StartTime)
	if !ok {
		return nil
	}
	end := now.UTC().Truncate(time.Second)
	if s.EndTime != nil {
		e, ok := timestamp.Parse(*s.EndTime)
		if !ok {
			return nil
		}
		end = e
	}
	d := int64(end.Sub(start) / time.Second)
	if d < 0 {
		d = 0
	}
	return &d
}

// RoundFocus rounds an average focus score to one decimal place.
func RoundFocus(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// aggregate builds history rows for sessions, preserving their order.
func aggregate(tx *gorm.DB, sessions []models.Session, now time.Time) ([]SessionRow, error) {
	rows := make([]SessionRow, 0, len(sessions))
	if len(sessions) == 0 {
		return rows, nil
	}

	ids := make([]uint, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}

	type focusAvg struct {
		SessionID uint
		AvgFocus  float64
	}
	var focus []focusAvg
	if err := tx.Model(&models.FocusLog{}).
		Select("session_id, AVG(focus_score) AS avg_focus").
		Where("session_id IN ?", ids).
		Group("session_id").
		Scan(&focus).Error; err != nil {
		return nil, fmt.Errorf("average focus: %w", err)
	}
	avgByID := make(map[uint]float64, len(focus))
	for _, f := range focus {
		avgByID[f.SessionID] = RoundFocus(f.AvgFocus)
	}

	type meltdownCount struct {
		SessionID uint
		Meltdowns int
	}
	var meltdowns []meltdownCount
	if err := tx.Model(&models.Event{}).
		Select("session_id, COUNT(*) AS meltdowns").
		Where("session_id IN ? AND event_type = ?", ids, models.EventMeltdown).
		Group("session_id").
		Scan(&meltdowns).Error; err != nil {
		return nil, fmt.Errorf("meltdown counts: %w", err)
	}
	meltdownsByID := make(map[uint]int, len(meltdowns))
	for _, m := range meltdowns {
		meltdownsByID[m.SessionID] = m.Meltdowns
	}

	for _, s := range sessions {
		row := SessionRow{
			SessionID:       s.ID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationSeconds: Duration(s, now),
			Status:          s.Status,
			MeltdownCount:   meltdownsByID[s.ID],
		}
		if avg, ok := avgByID[s.ID]; ok {
			row.AvgFocus = &avg
		}
		rows = append(rows, row)
	}
	return rows, nil
}
