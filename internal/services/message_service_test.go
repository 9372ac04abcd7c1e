package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"github.com/rohanjain1648/whisper-thrillz/internal/ratelimit"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
)

type stubMoodClassifier struct {
	vector models.MoodVector
	err    error
}

func (s stubMoodClassifier) Classify(context.Context, string) (models.MoodVector, error) {
	return s.vector, s.err
}

func newTestMessageService(st store.MessageStore, mood MoodClassifier) *MessageService {
	moderation := newTestModeration(st, nil)
	return NewMessageService(st, mood, moderation, ratelimit.NewLimiter(), 10, 5, 24)
}

func happyMood() models.MoodVector {
	m := models.NeutralMood()
	m.Emotions["joy"] = 0.9
	m.Sentiment = 0.8
	m.Intensity = 0.7
	return m
}

func TestCreateMessageValidation(t *testing.T) {
	t.Parallel()

	svc := newTestMessageService(store.NewMemoryStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateMessageInput
		want error
	}{
		{"empty content", CreateMessageInput{Content: "", Longitude: 1, Latitude: 1}, ErrInvalidContent},
		{"whitespace only", CreateMessageInput{Content: "   \n\t ", Longitude: 1, Latitude: 1}, ErrInvalidContent},
		{"too long", CreateMessageInput{Content: strings.Repeat("a", 1001), Longitude: 1, Latitude: 1}, ErrInvalidContent},
		{"null island", CreateMessageInput{Content: "hi", Longitude: 0, Latitude: 0}, ErrInvalidLocation},
		{"latitude out of range", CreateMessageInput{Content: "hi", Longitude: 1, Latitude: 91}, ErrInvalidLocation},
	}
	for _, tc := range cases {
		if _, err := svc.CreateMessage(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	// exactly at the limit is fine
	if _, err := svc.CreateMessage(ctx, CreateMessageInput{
		Content: strings.Repeat("a", 1000), Longitude: 1, Latitude: 1, IsAnonymous: true, IsEphemeral: true,
	}); err != nil {
		t.Fatalf("1000-rune content rejected: %v", err)
	}
}

func TestCreateMessageDefaults(t *testing.T) {
	t.Parallel()

	svc := newTestMessageService(store.NewMemoryStore(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		Content: "evening walk by the river", Longitude: -74.0060, Latitude: 40.7128,
		IsAnonymous: true, IsEphemeral: true,
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.ModerationStatus != models.ModerationPending {
		t.Fatalf("status = %q, want pending before classification", msg.ModerationStatus)
	}
	if msg.ExpiresAt == nil {
		t.Fatal("ephemeral message has no expiry")
	}
	if want := now.Add(24 * time.Hour); !msg.ExpiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want default 24h (%v)", msg.ExpiresAt, want)
	}
	// classifier absent, so the neutral fingerprint applies
	mood := msg.Mood.Data()
	if mood.Emotions["joy"] != 0.5 || mood.Sentiment != 0 {
		t.Fatalf("mood = %+v, want neutral fallback", mood)
	}
}

func TestCreateMessageExpiryClamp(t *testing.T) {
	t.Parallel()

	svc := newTestMessageService(store.NewMemoryStore(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	cases := []struct {
		hours int
		want  time.Duration
	}{
		{0, 24 * time.Hour},
		{5, 5 * time.Hour},
		{200, 168 * time.Hour},
		{-3, 1 * time.Hour},
		{168, 168 * time.Hour},
	}
	for _, tc := range cases {
		msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
			Content: "x", Longitude: 1, Latitude: 1,
			IsAnonymous: true, IsEphemeral: true, ExpirationHours: tc.hours,
		})
		if err != nil {
			t.Fatalf("CreateMessage(%d): %v", tc.hours, err)
		}
		if got := msg.ExpiresAt.Sub(now); got != tc.want {
			t.Errorf("hours=%d: expiry after %v, want %v", tc.hours, got, tc.want)
		}
	}
}

func TestCreateMessageNonEphemeralNeverExpires(t *testing.T) {
	t.Parallel()

	svc := newTestMessageService(store.NewMemoryStore(), nil)
	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		Content: "carved into the bench", Longitude: 1, Latitude: 1,
		IsAnonymous: true, IsEphemeral: false, ExpirationHours: 48,
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.ExpiresAt != nil {
		t.Fatalf("non-ephemeral message got expiry %v", msg.ExpiresAt)
	}
}

func TestCreateMessageAnonymousHidesAuthor(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	author := uuid.New()

	msg, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		Content: "x", Longitude: 1, Latitude: 1,
		AuthorID: &author, IsAnonymous: true, IsEphemeral: true,
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.AuthorID != nil {
		t.Fatal("anonymous message retained its author")
	}

	named, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		Content: "x", Longitude: 1, Latitude: 1,
		AuthorID: &author, IsAnonymous: false, IsEphemeral: true,
	})
	if err != nil {
		t.Fatalf("CreateMessage named: %v", err)
	}
	if named.AuthorID == nil || *named.AuthorID != author {
		t.Fatal("non-anonymous message lost its author")
	}
}

func TestCreateMessageRateLimit(t *testing.T) {
	t.Parallel()

	svc := newTestMessageService(store.NewMemoryStore(), nil)
	author := uuid.New()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := svc.CreateMessage(ctx, CreateMessageInput{
			Content: "x", Longitude: 1, Latitude: 1,
			AuthorID: &author, IsAnonymous: true, IsEphemeral: true,
		}); err != nil {
			t.Fatalf("create %d: %v", i+1, err)
		}
	}

	_, err := svc.CreateMessage(ctx, CreateMessageInput{
		Content: "x", Longitude: 1, Latitude: 1,
		AuthorID: &author, IsAnonymous: true, IsEphemeral: true,
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("11th create err = %v, want ErrRateLimited", err)
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfter <= 0 {
		t.Fatalf("err = %v, want RateLimitError with positive RetryAfter", err)
	}

	// unauthenticated creation is not subject to the per-author limit
	if _, err := svc.CreateMessage(ctx, CreateMessageInput{
		Content: "x", Longitude: 1, Latitude: 1, IsAnonymous: true, IsEphemeral: true,
	}); err != nil {
		t.Fatalf("anonymous create blocked: %v", err)
	}
}

func TestCreateMessageEmotionHistory(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, stubMoodClassifier{vector: happyMood()})
	author := uuid.New()
	ctx := context.Background()

	if _, err := svc.CreateMessage(ctx, CreateMessageInput{
		Content: "x", Longitude: 1, Latitude: 1,
		AuthorID: &author, IsAnonymous: true, IsEphemeral: true,
	}); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	future := time.Now().Add(time.Hour)
	if removed, _ := st.TrimEmotionLogs(ctx, future); removed != 1 {
		t.Fatalf("emotion log entries = %d, want 1", removed)
	}
}

func TestCreateMessageDegradedMoodSkipsHistory(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, stubMoodClassifier{err: errors.New("timeout")})
	author := uuid.New()
	ctx := context.Background()

	msg, err := svc.CreateMessage(ctx, CreateMessageInput{
		Content: "x", Longitude: 1, Latitude: 1,
		AuthorID: &author, IsAnonymous: true, IsEphemeral: true,
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	// creation succeeds with the neutral fallback
	if msg.Mood.Data().Intensity != 0.3 {
		t.Fatalf("mood = %+v, want neutral fallback", msg.Mood.Data())
	}

	future := time.Now().Add(time.Hour)
	if removed, _ := st.TrimEmotionLogs(ctx, future); removed != 0 {
		t.Fatalf("degraded mood logged %d history entries, want 0", removed)
	}
}

func approve(t *testing.T, st *store.MemoryStore, id uuid.UUID) {
	t.Helper()
	if err := st.SetModerationStatus(context.Background(), id, models.ModerationApproved); err != nil {
		t.Fatalf("SetModerationStatus: %v", err)
	}
}

func TestAddReaction(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	msg := seedPending(t, st, "x")
	approve(t, st, msg.ID)
	user := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddReaction(ctx, msg.ID, user, "salute"); !errors.Is(err, ErrInvalidReaction) {
		t.Fatalf("unknown kind err = %v, want ErrInvalidReaction", err)
	}

	got, err := svc.AddReaction(ctx, msg.ID, user, "heart")
	if err != nil {
		t.Fatalf("AddReaction: %v", err)
	}
	if len(got.Reactions) != 1 || got.Reactions[0].Kind != "heart" {
		t.Fatalf("reactions = %+v, want single heart", got.Reactions)
	}

	got, err = svc.AddReaction(ctx, msg.ID, user, "hug")
	if err != nil {
		t.Fatalf("AddReaction replace: %v", err)
	}
	if len(got.Reactions) != 1 || got.Reactions[0].Kind != "hug" {
		t.Fatalf("reactions = %+v, want replaced with hug", got.Reactions)
	}

	if _, err := svc.AddReaction(ctx, uuid.New(), user, "heart"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reaction on missing message = %v, want ErrNotFound", err)
	}
}

func TestReadGates(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	user := uuid.New()
	ctx := context.Background()

	pending := seedPending(t, st, "pending")
	if _, err := svc.AddReaction(ctx, pending.ID, user, "heart"); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("pending message err = %v, want ErrNotApproved", err)
	}

	past := now.Add(-time.Minute)
	expired := seedPending(t, st, "expired")
	expired.IsEphemeral = true
	expired.ExpiresAt = &past
	if err := st.InsertMessage(ctx, expired); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}
	approve(t, st, expired.ID)
	if _, err := svc.MarkDiscovered(ctx, expired.ID, user); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired message err = %v, want ErrExpired", err)
	}
}

func TestMarkDiscoveredIdempotent(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	msg := seedPending(t, st, "x")
	approve(t, st, msg.ID)
	user := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.MarkDiscovered(ctx, msg.ID, user)
		if err != nil {
			t.Fatalf("MarkDiscovered call %d: %v", i+1, err)
		}
		if !got.DiscoveredBy(user) {
			t.Fatal("discovery not recorded")
		}
		if len(got.Discoveries) != 1 {
			t.Fatalf("discoveries = %d, want 1", len(got.Discoveries))
		}
	}
}

func TestReportMessage(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	msg := seedPending(t, st, "x")
	approve(t, st, msg.ID)
	reporter := uuid.New()
	ctx := context.Background()

	if _, err := svc.ReportMessage(ctx, msg.ID, reporter, "because", ""); !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("bogus reason err = %v, want ErrInvalidReason", err)
	}

	report, err := svc.ReportMessage(ctx, msg.ID, reporter, "harassment", "aimed at my neighbor")
	if err != nil {
		t.Fatalf("ReportMessage: %v", err)
	}
	if report.Status != models.ReportPending {
		t.Fatalf("report status = %q, want pending", report.Status)
	}

	if _, err := svc.ReportMessage(ctx, uuid.New(), reporter, "spam", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("report on missing message = %v, want ErrNotFound", err)
	}
}

func TestReportMessageExpiredIsGone(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	past := now.Add(-time.Minute)
	msg := seedPending(t, st, "x")
	msg.IsEphemeral = true
	msg.ExpiresAt = &past
	if err := st.InsertMessage(ctx, msg); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	if _, err := svc.ReportMessage(ctx, msg.ID, uuid.New(), "spam", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("report on expired message = %v, want ErrNotFound", err)
	}
}

func TestReportMessageRateLimit(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := newTestMessageService(st, nil)
	reporter := uuid.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		msg := seedPending(t, st, "x")
		approve(t, st, msg.ID)
		if _, err := svc.ReportMessage(ctx, msg.ID, reporter, "spam", ""); err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
	}

	msg := seedPending(t, st, "x")
	approve(t, st, msg.ID)
	_, err := svc.ReportMessage(ctx, msg.ID, reporter, "spam", "")
	if !errors.Is(err, ErrTooManyReports) {
		t.Fatalf("6th report err = %v, want ErrTooManyReports", err)
	}
	var rle *RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfter <= 0 {
		t.Fatalf("err = %v, want RateLimitError with positive RetryAfter", err)
	}
}
