package models

// Event types.
const (
	EventMeltdown        = "meltdown"
	EventMeltdownCleared = "meltdown_cleared"
)

// Event is a discrete behavioral occurrence attached to a session. The
// current meltdown state is never stored; it is projected from the highest
// IDs of each event type.
type Event struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	SessionID uint    `gorm:"not null;index:idx_event_session_type"`
	Timestamp string  `gorm:"size:20;not null"`
	EventType string  `gorm:"size:32;not null;index:idx_event_session_type"` // meltdown, meltdown_cleared
	Notes     *string `gorm:"type:text"`

	Session Session `gorm:"foreignKey:SessionID"`
}
