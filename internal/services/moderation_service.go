package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
	"gorm.io/datatypes"
)

// Review decisions accepted from a human reviewer.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type moderationJob struct {
	MessageID uuid.UUID
	Content   string
	// MinPriority floors the computed priority; report-driven jobs always run
	// at high regardless of the classifier's own assessment.
	MinPriority string
}

// ModerationService classifies content, assigns priority, and drives the
// per-message moderation state machine. Classification runs on a small worker
// pool so the create path never blocks on the classifier.
type ModerationService struct {
	store      store.MessageStore
	classifier ContentClassifier
	policy     *ModerationPolicy

	keywordRegexps map[string][]*regexp.Regexp

	jobs      chan moderationJob
	workers   int
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	timeout time.Duration
}

func NewModerationService(st store.MessageStore, classifier ContentClassifier, policy *ModerationPolicy, timeout time.Duration) *ModerationService {
	if policy == nil {
		policy = DefaultModerationPolicy()
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ms := &ModerationService{
		store:      st,
		classifier: classifier,
		policy:     policy,
		jobs:       make(chan moderationJob, 256),
		workers:    4,
		timeout:    timeout,
	}
	ms.compilePatterns()
	return ms
}

func (ms *ModerationService) compilePatterns() {
	ms.keywordRegexps = make(map[string][]*regexp.Regexp, len(ms.policy.Keywords))
	for category, words := range ms.policy.Keywords {
		for _, word := range words {
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
			if err != nil {
				continue
			}
			ms.keywordRegexps[category] = append(ms.keywordRegexps[category], re)
		}
	}
}

// Start launches the classification workers.
func (ms *ModerationService) Start() {
	ms.startOnce.Do(func() {
		for i := 0; i < ms.workers; i++ {
			ms.wg.Add(1)
			go ms.workerLoop()
		}
	})
}

// Stop drains queued jobs and waits for workers to finish.
func (ms *ModerationService) Stop() {
	ms.stopOnce.Do(func() {
		close(ms.jobs)
		ms.wg.Wait()
	})
}

func (ms *ModerationService) workerLoop() {
	defer ms.wg.Done()
	for job := range ms.jobs {
		ms.process(job)
	}
}

// Enqueue schedules asynchronous classification. When the queue is saturated
// the job is dropped with a warning; the message simply stays pending until an
// operator re-runs classification.
func (ms *ModerationService) Enqueue(messageID uuid.UUID, content, minPriority string) {
	select {
	case ms.jobs <- moderationJob{MessageID: messageID, Content: content, MinPriority: minPriority}:
	default:
		slog.Warn("moderation queue full, message stays pending", "message_id", messageID)
	}
}

func (ms *ModerationService) process(job moderationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), ms.timeout+2*time.Second)
	defer cancel()

	verdict := ms.Classify(ctx, job.Content)
	priority := ms.PriorityFor(verdict)
	if models.PriorityRank[job.MinPriority] > models.PriorityRank[priority] {
		priority = job.MinPriority
	}

	if err := ms.ApplyDecision(ctx, job.MessageID, priority, verdict); err != nil {
		slog.Error("moderation decision failed", "message_id", job.MessageID, "error", err)
	}
}

// Classify runs the external classifier and degrades to the local keyword
// filter on any failure. It never returns an error to the caller.
func (ms *ModerationService) Classify(ctx context.Context, content string) Verdict {
	if ms.classifier != nil {
		verdict, err := ms.classifier.Moderate(ctx, content)
		if err == nil {
			return verdict
		}
		slog.Warn("content classifier degraded to local filter", "error", err)
	}
	return ms.LocalVerdict(content)
}

// LocalVerdict is the keyword-based fallback filter. Scores are all zero;
// flagged means a keyword hit.
func (ms *ModerationService) LocalVerdict(content string) Verdict {
	verdict := Verdict{
		Categories: make(map[string]bool),
		Scores:     make(map[string]float64),
		Degraded:   true,
	}
	for category, regexps := range ms.keywordRegexps {
		for _, re := range regexps {
			if re.MatchString(content) {
				verdict.Categories[category] = true
				verdict.Flagged = true
				break
			}
		}
	}
	return verdict
}

// PriorityFor applies the deterministic rule table.
func (ms *ModerationService) PriorityFor(v Verdict) string {
	for _, category := range ms.policy.Severe {
		if v.Categories[category] {
			return models.PriorityCritical
		}
	}

	maxScore := 0.0
	for _, score := range v.Scores {
		if score > maxScore {
			maxScore = score
		}
	}

	for _, category := range ms.policy.High {
		if v.Categories[category] {
			return models.PriorityHigh
		}
	}
	if maxScore > ms.policy.HighScore {
		return models.PriorityHigh
	}

	for _, category := range ms.policy.Medium {
		if v.Categories[category] {
			return models.PriorityMedium
		}
	}
	if maxScore > ms.policy.MediumScore {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// ApplyDecision advances the state machine for one classified message:
// critical rejects immediately, any other flagged verdict queues a record for
// human review, and a clean verdict approves.
//
// A flagged re-classification of an already-approved message does not demote
// it back to pending; the message stays discoverable until a reviewer rejects
// it (see DESIGN.md).
func (ms *ModerationService) ApplyDecision(ctx context.Context, messageID uuid.UUID, priority string, verdict Verdict) error {
	if priority == models.PriorityCritical {
		if err := ms.store.SetModerationStatus(ctx, messageID, models.ModerationRejected); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	}

	if verdict.Flagged {
		record := &models.ModerationRecord{
			MessageID:   messageID,
			Flagged:     true,
			Categories:  datatypes.NewJSONType(verdict.Categories),
			Scores:      datatypes.NewJSONType(verdict.Scores),
			Degraded:    verdict.Degraded,
			Priority:    priority,
			QueueStatus: models.QueuePending,
		}
		return ms.store.EnqueueModeration(ctx, record)
	}

	err := ms.store.SetModerationStatus(ctx, messageID, models.ModerationApproved)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ReviewMessage is the human path: it sets the terminal status directly and
// closes any open queue record for the message.
func (ms *ModerationService) ReviewMessage(ctx context.Context, messageID, reviewerID uuid.UUID, decision, notes string) (*models.Message, error) {
	var status, queueStatus string
	switch decision {
	case DecisionApprove:
		status, queueStatus = models.ModerationApproved, models.QueueApproved
	case DecisionReject:
		status, queueStatus = models.ModerationRejected, models.QueueRejected
	default:
		return nil, errors.New("decision must be approve or reject")
	}

	if err := ms.store.SetModerationStatus(ctx, messageID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if record, err := ms.store.OpenModerationForMessage(ctx, messageID); err == nil {
		record.QueueStatus = queueStatus
		record.ReviewerID = &reviewerID
		record.ReviewerNotes = notes
		if err := ms.store.UpdateModerationRecord(ctx, record); err != nil {
			slog.Error("failed to close moderation record", "message_id", messageID, "error", err)
		}
	}

	return ms.store.GetMessage(ctx, messageID)
}

// Reclassify is the manual operator path: the message returns to pending
// first, then goes back through classification.
func (ms *ModerationService) Reclassify(ctx context.Context, messageID uuid.UUID) error {
	msg, err := ms.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := ms.store.SetModerationStatus(ctx, messageID, models.ModerationPending); err != nil {
		return err
	}
	ms.Enqueue(messageID, msg.Content, "")
	return nil
}

// Queue lists open moderation records, most urgent first.
func (ms *ModerationService) Queue(ctx context.Context, limit, offset int) ([]models.ModerationRecord, int64, error) {
	return ms.store.PendingModeration(ctx, limit, offset)
}

// ClaimRecord marks a queue record as being reviewed.
func (ms *ModerationService) ClaimRecord(ctx context.Context, recordID, reviewerID uuid.UUID) error {
	record, err := ms.store.GetModerationRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	record.QueueStatus = models.QueueReviewing
	record.ReviewerID = &reviewerID
	return ms.store.UpdateModerationRecord(ctx, record)
}

// ListReports exposes the report queue to reviewers.
func (ms *ModerationService) ListReports(ctx context.Context, status string, limit, offset int) ([]models.Report, int64, error) {
	return ms.store.ListReports(ctx, status, limit, offset)
}

// ActionReport records a reviewer's decision on a report.
func (ms *ModerationService) ActionReport(ctx context.Context, reportID uuid.UUID, status, note string) error {
	switch status {
	case models.ReportReviewed, models.ReportActioned, models.ReportDismissed:
	default:
		return errors.New("status must be reviewed, actioned, or dismissed")
	}
	err := ms.store.ActionReport(ctx, reportID, status, note)
	if errors.Is(err, store.ErrNotFound) {
		return ErrReportNotFound
	}
	return err
}
