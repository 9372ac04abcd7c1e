package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Review priorities, ordered from least to most urgent.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Queue status values for a moderation record.
const (
	QueuePending   = "pending"
	QueueReviewing = "reviewing"
	QueueApproved  = "approved"
	QueueRejected  = "rejected"
)

// PriorityRank maps a priority to a sortable weight (higher = more urgent).
var PriorityRank = map[string]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// ModerationRecord is one queued classification outcome awaiting (or past)
// human review.
type ModerationRecord struct {
	ID            uuid.UUID                           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MessageID     uuid.UUID                           `gorm:"type:uuid;not null;index" json:"message_id"`
	Flagged       bool                                `gorm:"not null" json:"flagged"`
	Categories    datatypes.JSONType[map[string]bool] `gorm:"type:jsonb" json:"categories"`
	Scores        datatypes.JSONType[map[string]float64] `gorm:"type:jsonb" json:"scores"`
	Degraded      bool                                `gorm:"default:false" json:"degraded"`
	Priority      string                              `gorm:"size:20;not null;index" json:"priority"`
	QueueStatus   string                              `gorm:"size:20;not null;default:'pending';index" json:"queue_status"`
	ReviewerID    *uuid.UUID                          `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewerNotes string                              `gorm:"size:1000" json:"reviewer_notes,omitempty"`
	CreatedAt     time.Time                           `json:"created_at"`
	UpdatedAt     time.Time                           `json:"updated_at"`
}

// Report reasons a user may choose from.
var ReportReasons = []string{
	"spam", "harassment", "hate_speech", "violence",
	"sexual_content", "self_harm", "misinformation", "other",
}

// Report status values.
const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportActioned  = "actioned"
	ReportDismissed = "dismissed"
)

// Report is a user-filed complaint against a message. Reports are only ever
// created by user action and always escalate the target to high priority.
type Report struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MessageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	ReporterID  uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reason      string    `gorm:"size:50;not null" json:"reason"`
	Description string    `gorm:"size:1000" json:"description,omitempty"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNote   string    `gorm:"size:1000" json:"admin_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidReportReason checks membership in the fixed reason set.
func ValidReportReason(reason string) bool {
	for _, r := range ReportReasons {
		if r == reason {
			return true
		}
	}
	return false
}
