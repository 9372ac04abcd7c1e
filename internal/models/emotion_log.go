package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmotionLog keeps one classified mood per authored message for trend history.
// Rows older than the retention window are trimmed by the sweeper.
type EmotionLog struct {
	ID        uuid.UUID                      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID                      `gorm:"type:uuid;not null;index" json:"user_id"`
	Mood      datatypes.JSONType[MoodVector] `gorm:"type:jsonb" json:"mood"`
	CreatedAt time.Time                      `gorm:"not null;index" json:"created_at"`
}
