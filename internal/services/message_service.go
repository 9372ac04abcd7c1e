package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"github.com/rohanjain1648/whisper-thrillz/internal/ratelimit"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
	"gorm.io/datatypes"
)

const (
	rateWindow      = 5 * time.Minute
	minExpiryHours  = 1
	maxExpiryHours  = 168
	maxContentRunes = 1000
)

// MessageService orchestrates message creation, reactions, discovery marking,
// and reporting. It is the top-level entry point other components call into.
type MessageService struct {
	store      store.MessageStore
	mood       MoodClassifier
	moderation *ModerationService
	limiter    *ratelimit.Limiter

	createLimit        int
	reportLimit        int
	defaultExpiryHours int

	now func() time.Time
}

func NewMessageService(st store.MessageStore, mood MoodClassifier, moderation *ModerationService, limiter *ratelimit.Limiter, createLimit, reportLimit, defaultExpiryHours int) *MessageService {
	if createLimit <= 0 {
		createLimit = 10
	}
	if reportLimit <= 0 {
		reportLimit = 5
	}
	if defaultExpiryHours <= 0 {
		defaultExpiryHours = 24
	}
	return &MessageService{
		store:              st,
		mood:               mood,
		moderation:         moderation,
		limiter:            limiter,
		createLimit:        createLimit,
		reportLimit:        reportLimit,
		defaultExpiryHours: defaultExpiryHours,
		now:                time.Now,
	}
}

// CreateMessageInput carries the caller boundary shape for creation.
type CreateMessageInput struct {
	Content     string
	Longitude   float64
	Latitude    float64
	AuthorID    *uuid.UUID
	IsAnonymous bool
	IsEphemeral bool
	// ExpirationHours of 0 means the configured default; otherwise clamped to
	// [1h, 168h].
	ExpirationHours int
}

// CreateMessage validates, classifies mood, persists with a pending moderation
// status, and schedules asynchronous classification. The caller is never
// blocked on the moderation outcome; a fresh message is not discoverable until
// moderation approves it.
func (s *MessageService) CreateMessage(ctx context.Context, in CreateMessageInput) (*models.Message, error) {
	if in.AuthorID != nil {
		if allowed, wait := s.limiter.Check(in.AuthorID.String(), "create", s.createLimit, rateWindow); !allowed {
			return nil, &RateLimitError{Err: ErrRateLimited, RetryAfter: wait}
		}
	}

	content := strings.TrimSpace(in.Content)
	if n := utf8.RuneCountInString(content); n < 1 || n > maxContentRunes {
		return nil, ErrInvalidContent
	}
	if !store.ValidCoordinates(in.Longitude, in.Latitude) {
		return nil, ErrInvalidLocation
	}

	mood := ResolveMood(ctx, s.mood, content)

	now := s.now().UTC()
	msg := &models.Message{
		Content:          content,
		Longitude:        in.Longitude,
		Latitude:         in.Latitude,
		Mood:             datatypes.NewJSONType(mood.Vector),
		IsAnonymous:      in.IsAnonymous,
		IsEphemeral:      in.IsEphemeral,
		ModerationStatus: models.ModerationPending,
		CreatedAt:        now,
	}
	if !in.IsAnonymous {
		msg.AuthorID = in.AuthorID
	}
	if in.IsEphemeral {
		hours := in.ExpirationHours
		if hours == 0 {
			hours = s.defaultExpiryHours
		}
		if hours < minExpiryHours {
			hours = minExpiryHours
		}
		if hours > maxExpiryHours {
			hours = maxExpiryHours
		}
		expiresAt := now.Add(time.Duration(hours) * time.Hour)
		msg.ExpiresAt = &expiresAt
	}

	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	if in.AuthorID != nil && !mood.Degraded {
		entry := &models.EmotionLog{
			UserID:    *in.AuthorID,
			Mood:      datatypes.NewJSONType(mood.Vector),
			CreatedAt: now,
		}
		if err := s.store.AppendEmotionLog(ctx, entry); err != nil {
			// history is best-effort; the message itself is already persisted
			return msg, nil
		}
	}

	s.moderation.Enqueue(msg.ID, content, "")
	return msg, nil
}

// getLive fetches a message and applies the shared read gates: absent, then
// logically expired, then not yet approved.
func (s *MessageService) getLive(ctx context.Context, messageID uuid.UUID) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if msg.Expired(s.now().UTC()) {
		return nil, ErrExpired
	}
	if msg.ModerationStatus != models.ModerationApproved {
		return nil, ErrNotApproved
	}
	return msg, nil
}

// AddReaction replaces any prior reaction by the same user; last write wins.
func (s *MessageService) AddReaction(ctx context.Context, messageID, userID uuid.UUID, kind string) (*models.Message, error) {
	if !models.ValidReactionKind(kind) {
		return nil, ErrInvalidReaction
	}
	if _, err := s.getLive(ctx, messageID); err != nil {
		return nil, err
	}
	if err := s.store.UpsertReaction(ctx, messageID, userID, kind); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.store.GetMessage(ctx, messageID)
}

// MarkDiscovered is idempotent: re-adding an already-present user succeeds and
// returns the current state.
func (s *MessageService) MarkDiscovered(ctx context.Context, messageID, userID uuid.UUID) (*models.Message, error) {
	if _, err := s.getLive(ctx, messageID); err != nil {
		return nil, err
	}
	if err := s.store.AddDiscovery(ctx, messageID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.store.GetMessage(ctx, messageID)
}

// ReportMessage files a report and escalates the target to high-priority
// re-classification regardless of the classifier's own severity assessment.
func (s *MessageService) ReportMessage(ctx context.Context, messageID, reporterID uuid.UUID, reason, description string) (*models.Report, error) {
	if allowed, wait := s.limiter.Check(reporterID.String(), "report", s.reportLimit, rateWindow); !allowed {
		return nil, &RateLimitError{Err: ErrTooManyReports, RetryAfter: wait}
	}
	if !models.ValidReportReason(reason) {
		return nil, ErrInvalidReason
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// an expired ephemeral message is logically gone
	if msg.Expired(s.now().UTC()) {
		return nil, ErrNotFound
	}

	report := &models.Report{
		MessageID:   messageID,
		ReporterID:  reporterID,
		Reason:      reason,
		Description: description,
		Status:      models.ReportPending,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	s.moderation.Enqueue(messageID, msg.Content, models.PriorityHigh)
	return report, nil
}
