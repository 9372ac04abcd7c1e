// Package store is the single source of truth for messages, their moderation
// state, reports, and emotion history. Discovery and lifecycle services never
// cache anything it owns beyond a single request.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
)

var ErrNotFound = errors.New("record not found")

// NearbyQuery describes one point-radius lookup.
type NearbyQuery struct {
	Longitude    float64
	Latitude     float64
	RadiusMeters float64

	// ModerationStatus filters results; empty means any status.
	ModerationStatus string
	// IncludeExpired keeps logically-expired ephemeral messages in the result.
	// Non-ephemeral messages are always included.
	IncludeExpired bool
	Limit          int
	Now            time.Time
}

// MessageStore is the persistence boundary for the whisper lifecycle.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	FindNearby(ctx context.Context, q NearbyQuery) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	SetModerationStatus(ctx context.Context, id uuid.UUID, status string) error

	// UpsertReaction replaces any prior reaction by the same user.
	UpsertReaction(ctx context.Context, messageID, userID uuid.UUID, kind string) error
	// AddDiscovery is idempotent; re-adding an existing user is a no-op.
	AddDiscovery(ctx context.Context, messageID, userID uuid.UUID) error

	// SweepExpired deletes ephemeral messages whose horizon has passed and
	// returns how many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	EnqueueModeration(ctx context.Context, rec *models.ModerationRecord) error
	GetModerationRecord(ctx context.Context, id uuid.UUID) (*models.ModerationRecord, error)
	// OpenModerationForMessage returns the oldest still-open record for a
	// message, or ErrNotFound.
	OpenModerationForMessage(ctx context.Context, messageID uuid.UUID) (*models.ModerationRecord, error)
	UpdateModerationRecord(ctx context.Context, rec *models.ModerationRecord) error
	// PendingModeration lists open records, most urgent first, oldest first
	// within a priority.
	PendingModeration(ctx context.Context, limit, offset int) ([]models.ModerationRecord, int64, error)

	CreateReport(ctx context.Context, report *models.Report) error
	ListReports(ctx context.Context, status string, limit, offset int) ([]models.Report, int64, error)
	ActionReport(ctx context.Context, id uuid.UUID, status, note string) error

	AppendEmotionLog(ctx context.Context, entry *models.EmotionLog) error
	TrimEmotionLogs(ctx context.Context, cutoff time.Time) (int64, error)
}
