package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
	"gorm.io/datatypes"
)

type stubContentClassifier struct {
	verdict Verdict
	err     error
}

func (s stubContentClassifier) Moderate(context.Context, string) (Verdict, error) {
	return s.verdict, s.err
}

func newTestModeration(st store.MessageStore, classifier ContentClassifier) *ModerationService {
	return NewModerationService(st, classifier, DefaultModerationPolicy(), time.Second)
}

func seedPending(t *testing.T, st *store.MemoryStore, content string) *models.Message {
	t.Helper()
	msg := &models.Message{
		Content:          content,
		Longitude:        -74.0060,
		Latitude:         40.7128,
		Mood:             datatypes.NewJSONType(models.NeutralMood()),
		ModerationStatus: models.ModerationPending,
	}
	if err := st.InsertMessage(context.Background(), msg); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}
	return msg
}

func TestLocalVerdict(t *testing.T) {
	t.Parallel()

	ms := newTestModeration(store.NewMemoryStore(), nil)

	v := ms.LocalVerdict("honestly you should kys")
	if !v.Flagged {
		t.Fatal("keyword hit not flagged")
	}
	if !v.Categories["harassment"] {
		t.Fatalf("categories = %v, want harassment", v.Categories)
	}
	if !v.Degraded {
		t.Fatal("local verdict not marked degraded")
	}

	clean := ms.LocalVerdict("lovely sunset over the bridge tonight")
	if clean.Flagged {
		t.Fatalf("clean text flagged: %v", clean.Categories)
	}

	// word-boundary match, not substring
	if v := ms.LocalVerdict("the skyscraper"); v.Flagged {
		t.Fatalf("substring matched inside a larger word: %v", v.Categories)
	}
}

func TestClassifyFallsBackOnClassifierError(t *testing.T) {
	t.Parallel()

	ms := newTestModeration(store.NewMemoryStore(), stubContentClassifier{err: errors.New("upstream down")})
	v := ms.Classify(context.Background(), "want to die")
	if !v.Degraded {
		t.Fatal("fallback verdict not marked degraded")
	}
	if !v.Categories["self-harm"] {
		t.Fatalf("categories = %v, want self-harm from local filter", v.Categories)
	}
}

func TestPriorityFor(t *testing.T) {
	t.Parallel()

	ms := newTestModeration(store.NewMemoryStore(), nil)

	cases := []struct {
		name string
		v    Verdict
		want string
	}{
		{"severe category", Verdict{Categories: map[string]bool{"sexual/minors": true}}, models.PriorityCritical},
		{"high category", Verdict{Categories: map[string]bool{"harassment": true}}, models.PriorityHigh},
		{"high score", Verdict{Scores: map[string]float64{"violence": 0.85}}, models.PriorityHigh},
		{"medium category", Verdict{Categories: map[string]bool{"sexual": true}}, models.PriorityMedium},
		{"medium score", Verdict{Scores: map[string]float64{"sexual": 0.6}}, models.PriorityMedium},
		{"clean", Verdict{}, models.PriorityLow},
		{"score at high threshold stays medium", Verdict{Scores: map[string]float64{"hate": 0.7}}, models.PriorityMedium},
		{"severe beats high", Verdict{Categories: map[string]bool{"hate": true, "hate/threatening": true}}, models.PriorityCritical},
	}
	for _, tc := range cases {
		if got := ms.PriorityFor(tc.v); got != tc.want {
			t.Errorf("%s: PriorityFor = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestApplyDecisionCriticalRejectsImmediately(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")

	verdict := Verdict{Flagged: true, Categories: map[string]bool{"sexual/minors": true}}
	if err := ms.ApplyDecision(context.Background(), msg.ID, models.PriorityCritical, verdict); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	got, err := st.GetMessage(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.ModerationStatus != models.ModerationRejected {
		t.Fatalf("status = %q, want rejected without review", got.ModerationStatus)
	}

	// critical skips the human queue entirely
	_, total, err := st.PendingModeration(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("PendingModeration: %v", err)
	}
	if total != 0 {
		t.Fatalf("queue has %d records, want 0", total)
	}
}

func TestApplyDecisionFlaggedQueuesForReview(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")

	verdict := Verdict{Flagged: true, Categories: map[string]bool{"harassment": true}}
	if err := ms.ApplyDecision(context.Background(), msg.ID, models.PriorityHigh, verdict); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	got, _ := st.GetMessage(context.Background(), msg.ID)
	if got.ModerationStatus != models.ModerationPending {
		t.Fatalf("status = %q, want still pending while queued", got.ModerationStatus)
	}

	open, total, err := st.PendingModeration(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("PendingModeration: %v", err)
	}
	if total != 1 {
		t.Fatalf("queue has %d records, want 1", total)
	}
	if open[0].Priority != models.PriorityHigh || !open[0].Flagged {
		t.Fatalf("record = %+v, want flagged high priority", open[0])
	}
}

func TestApplyDecisionCleanApproves(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")

	if err := ms.ApplyDecision(context.Background(), msg.ID, models.PriorityLow, Verdict{}); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
	got, _ := st.GetMessage(context.Background(), msg.ID)
	if got.ModerationStatus != models.ModerationApproved {
		t.Fatalf("status = %q, want approved", got.ModerationStatus)
	}
}

func TestApplyDecisionDoesNotDemoteApproved(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")
	if err := st.SetModerationStatus(context.Background(), msg.ID, models.ModerationApproved); err != nil {
		t.Fatalf("SetModerationStatus: %v", err)
	}

	// a report-driven flagged re-check queues a record but leaves the message up
	verdict := Verdict{Flagged: true, Categories: map[string]bool{"harassment": true}}
	if err := ms.ApplyDecision(context.Background(), msg.ID, models.PriorityHigh, verdict); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	got, _ := st.GetMessage(context.Background(), msg.ID)
	if got.ModerationStatus != models.ModerationApproved {
		t.Fatalf("status = %q, want approved until a reviewer rejects", got.ModerationStatus)
	}
	_, total, _ := st.PendingModeration(context.Background(), 10, 0)
	if total != 1 {
		t.Fatalf("queue has %d records, want 1", total)
	}
}

func TestProcessFloorsPriorityForReportedMessages(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	classifier := stubContentClassifier{verdict: Verdict{
		Flagged:    true,
		Categories: map[string]bool{"sexual": true},
	}}
	ms := newTestModeration(st, classifier)
	msg := seedPending(t, st, "x")

	ms.process(moderationJob{MessageID: msg.ID, Content: msg.Content, MinPriority: models.PriorityHigh})

	open, _, err := st.PendingModeration(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("PendingModeration: %v", err)
	}
	if len(open) != 1 || open[0].Priority != models.PriorityHigh {
		t.Fatalf("record priority = %v, want floored to high", open)
	}
}

func TestReviewMessage(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")
	reviewer := uuid.New()

	verdict := Verdict{Flagged: true, Categories: map[string]bool{"harassment": true}}
	if err := ms.ApplyDecision(context.Background(), msg.ID, models.PriorityHigh, verdict); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	got, err := ms.ReviewMessage(context.Background(), msg.ID, reviewer, DecisionReject, "threatening tone")
	if err != nil {
		t.Fatalf("ReviewMessage: %v", err)
	}
	if got.ModerationStatus != models.ModerationRejected {
		t.Fatalf("status = %q, want rejected", got.ModerationStatus)
	}

	// the open queue record is closed with the reviewer's identity
	_, total, _ := st.PendingModeration(context.Background(), 10, 0)
	if total != 0 {
		t.Fatalf("queue still has %d open records", total)
	}

	if _, err := ms.ReviewMessage(context.Background(), uuid.New(), reviewer, DecisionApprove, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("review of missing message = %v, want ErrNotFound", err)
	}
	if _, err := ms.ReviewMessage(context.Background(), msg.ID, reviewer, "maybe", ""); err == nil {
		t.Fatal("bogus decision accepted")
	}
}

func TestClaimRecord(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")
	reviewer := uuid.New()

	verdict := Verdict{Flagged: true, Categories: map[string]bool{"harassment": true}}
	if err := ms.ApplyDecision(context.Background(), msg.ID, models.PriorityMedium, verdict); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
	open, _, _ := st.PendingModeration(context.Background(), 10, 0)

	if err := ms.ClaimRecord(context.Background(), open[0].ID, reviewer); err != nil {
		t.Fatalf("ClaimRecord: %v", err)
	}
	rec, err := st.GetModerationRecord(context.Background(), open[0].ID)
	if err != nil {
		t.Fatalf("GetModerationRecord: %v", err)
	}
	if rec.QueueStatus != models.QueueReviewing {
		t.Fatalf("queue status = %q, want reviewing", rec.QueueStatus)
	}
	if rec.ReviewerID == nil || *rec.ReviewerID != reviewer {
		t.Fatal("reviewer not recorded on claim")
	}

	if err := ms.ClaimRecord(context.Background(), uuid.New(), reviewer); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("claim of missing record = %v, want ErrRecordNotFound", err)
	}
}

func TestReclassifyResetsToPending(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)
	msg := seedPending(t, st, "x")
	if err := st.SetModerationStatus(context.Background(), msg.ID, models.ModerationApproved); err != nil {
		t.Fatalf("SetModerationStatus: %v", err)
	}

	if err := ms.Reclassify(context.Background(), msg.ID); err != nil {
		t.Fatalf("Reclassify: %v", err)
	}
	got, _ := st.GetMessage(context.Background(), msg.ID)
	if got.ModerationStatus != models.ModerationPending {
		t.Fatalf("status = %q, want pending after manual reclassify", got.ModerationStatus)
	}

	if err := ms.Reclassify(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reclassify of missing message = %v, want ErrNotFound", err)
	}
}

func TestActionReportValidatesStatus(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, nil)

	report := &models.Report{MessageID: uuid.New(), ReporterID: uuid.New(), Reason: "spam", Status: models.ReportPending}
	if err := st.CreateReport(context.Background(), report); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	if err := ms.ActionReport(context.Background(), report.ID, "escalated", ""); err == nil {
		t.Fatal("unknown status accepted")
	}
	if err := ms.ActionReport(context.Background(), report.ID, models.ReportActioned, "removed"); err != nil {
		t.Fatalf("ActionReport: %v", err)
	}
	if err := ms.ActionReport(context.Background(), uuid.New(), models.ReportDismissed, ""); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("action on missing report = %v, want ErrReportNotFound", err)
	}
}

func TestStartAndStopProcessQueuedJobs(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	ms := newTestModeration(st, stubContentClassifier{verdict: Verdict{}})
	msg := seedPending(t, st, "a perfectly fine whisper")

	ms.Start()
	ms.Enqueue(msg.ID, msg.Content, "")
	ms.Stop() // drains the queue before returning

	got, err := st.GetMessage(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.ModerationStatus != models.ModerationApproved {
		t.Fatalf("status = %q, want approved after worker drain", got.ModerationStatus)
	}
}
