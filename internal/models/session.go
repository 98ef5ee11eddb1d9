package models

// Session statuses.
const (
	StatusRunning     = "running"
	StatusEnded       = "ended"
	StatusInterrupted = "interrupted"
)

// Session is one supervised monitoring interval. StartTime and EndTime hold
// canonical UTC timestamps (see internal/timestamp). EndTime is nil while
// the session is running.
type Session struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	StartTime string  `gorm:"size:20;not null"`
	EndTime   *string `gorm:"size:20"`
	Status    string  `gorm:"size:16;not null;default:running;index"` // running, ended, interrupted

	FocusLogs []FocusLog `gorm:"foreignKey:SessionID"`
	Events    []Event    `gorm:"foreignKey:SessionID"`
}

// Finished reports whether the session has been ended or interrupted.
func (s Session) Finished() bool {
	return s.Status == StatusEnded || s.Status == StatusInterrupted
}
