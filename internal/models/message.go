package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Moderation status values for a message.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// ReactionKinds is the fixed set of reactions a user may leave on a message.
var ReactionKinds = []string{"heart", "hug", "laugh", "cry", "wow", "fire"}

// Message represents a location-anchored whisper.
type Message struct {
	ID               uuid.UUID                      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Content          string                         `gorm:"type:text;not null" json:"content"`
	Longitude        float64                        `gorm:"not null;index:idx_messages_location,priority:1" json:"longitude"`
	Latitude         float64                        `gorm:"not null;index:idx_messages_location,priority:2" json:"latitude"`
	Mood             datatypes.JSONType[MoodVector] `gorm:"type:jsonb" json:"mood"`
	AuthorID         *uuid.UUID                     `gorm:"type:uuid;index" json:"-"`
	IsAnonymous      bool                           `gorm:"default:true" json:"is_anonymous"`
	IsEphemeral      bool                           `gorm:"default:true" json:"is_ephemeral"`
	ExpiresAt        *time.Time                     `gorm:"index" json:"expires_at,omitempty"`
	ModerationStatus string                         `gorm:"size:20;not null;default:'pending';index:idx_messages_status_created,priority:1" json:"moderation_status"`
	CreatedAt        time.Time                      `gorm:"index:idx_messages_status_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt                 `gorm:"index" json:"-"`

	Reactions   []MessageReaction  `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
	Discoveries []MessageDiscovery `gorm:"foreignKey:MessageID" json:"-"`
}

// Expired reports whether an ephemeral message is past its horizon. Read paths
// must treat an expired message as absent even before the sweeper runs.
func (m *Message) Expired(now time.Time) bool {
	return m.IsEphemeral && m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

// DiscoveredBy reports whether the user already discovered this message.
func (m *Message) DiscoveredBy(userID uuid.UUID) bool {
	for _, d := range m.Discoveries {
		if d.UserID == userID {
			return true
		}
	}
	return false
}

// MessageReaction stores one reaction per (message, user). A later reaction by
// the same user replaces the earlier one.
type MessageReaction struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_message_user,priority:1" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_message_user,priority:2" json:"user_id"`
	Kind      string    `gorm:"size:20;not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// MessageDiscovery records that a user's proximity query returned a message.
// The unique index makes discovery idempotent.
type MessageDiscovery struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_discovery_message_user,priority:1" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_discovery_message_user,priority:2" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidReactionKind checks membership in the fixed reaction set.
func ValidReactionKind(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}
