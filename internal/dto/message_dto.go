package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CreateMessageRequest struct {
	Content         string   `json:"content"`
	Location        Location `json:"location"`
	IsAnonymous     *bool    `json:"is_anonymous,omitempty"`
	IsEphemeral     *bool    `json:"is_ephemeral,omitempty"`
	ExpirationHours int      `json:"expiration_hours,omitempty"`
}

type ReactionRequest struct {
	Kind string `json:"kind"`
}

type ReportMessageRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
}

// MessageResponse is the external message shape. AuthorID is stripped for
// anonymous messages.
type MessageResponse struct {
	ID               uuid.UUID            `json:"id"`
	Content          string               `json:"content"`
	Location         Location             `json:"location"`
	Mood             models.MoodVector    `json:"mood"`
	AuthorID         *uuid.UUID           `json:"author_id,omitempty"`
	IsAnonymous      bool                 `json:"is_anonymous"`
	IsEphemeral      bool                 `json:"is_ephemeral"`
	ExpiresAt        *time.Time           `json:"expires_at,omitempty"`
	DiscoveredBy     []uuid.UUID          `json:"discovered_by"`
	Reactions        map[string]string    `json:"reactions"`
	ModerationStatus string               `json:"moderation_status"`
	CreatedAt        time.Time            `json:"created_at"`
}

func NewMessageResponse(m *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:               m.ID,
		Content:          m.Content,
		Location:         Location{Lat: m.Latitude, Lng: m.Longitude},
		Mood:             m.Mood.Data(),
		IsAnonymous:      m.IsAnonymous,
		IsEphemeral:      m.IsEphemeral,
		ExpiresAt:        m.ExpiresAt,
		DiscoveredBy:     make([]uuid.UUID, 0, len(m.Discoveries)),
		Reactions:        make(map[string]string, len(m.Reactions)),
		ModerationStatus: m.ModerationStatus,
		CreatedAt:        m.CreatedAt,
	}
	if !m.IsAnonymous {
		resp.AuthorID = m.AuthorID
	}
	for _, d := range m.Discoveries {
		resp.DiscoveredBy = append(resp.DiscoveredBy, d.UserID)
	}
	for _, r := range m.Reactions {
		resp.Reactions[r.UserID.String()] = r.Kind
	}
	return resp
}

func NewMessageResponses(msgs []models.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i := range msgs {
		out[i] = NewMessageResponse(&msgs[i])
	}
	return out
}
