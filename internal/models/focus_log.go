package models

// FocusLog is one point-in-time attention score for a session.
type FocusLog struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionID  uint   `gorm:"not null;index"`
	Timestamp  string `gorm:"size:20;not null"`
	FocusScore int    `gorm:"not null"`

	Session Session `gorm:"foreignKey:SessionID"`
}
