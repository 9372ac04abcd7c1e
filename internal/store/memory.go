package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
)

// MemoryStore is an in-memory MessageStore used by tests and local runs.
type MemoryStore struct {
	mu          sync.RWMutex
	messages    map[uuid.UUID]*models.Message
	reactions   map[uuid.UUID]map[uuid.UUID]models.MessageReaction
	discoveries map[uuid.UUID]map[uuid.UUID]models.MessageDiscovery
	records     map[uuid.UUID]*models.ModerationRecord
	reports     map[uuid.UUID]*models.Report
	emotions    []models.EmotionLog
}

var _ MessageStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:    make(map[uuid.UUID]*models.Message),
		reactions:   make(map[uuid.UUID]map[uuid.UUID]models.MessageReaction),
		discoveries: make(map[uuid.UUID]map[uuid.UUID]models.MessageDiscovery),
		records:     make(map[uuid.UUID]*models.ModerationRecord),
		reports:     make(map[uuid.UUID]*models.Report),
	}
}

func (s *MemoryStore) InsertMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	copied := *msg
	s.messages[msg.ID] = &copied
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *msg
	s.attach(&out)
	return &out, nil
}

// attach copies reactions and discoveries onto the message. Caller holds the lock.
func (s *MemoryStore) attach(msg *models.Message) {
	msg.Reactions = nil
	for _, r := range s.reactions[msg.ID] {
		msg.Reactions = append(msg.Reactions, r)
	}
	msg.Discoveries = nil
	for _, d := range s.discoveries[msg.ID] {
		msg.Discoveries = append(msg.Discoveries, d)
	}
}

func (s *MemoryStore) FindNearby(_ context.Context, q NearbyQuery) ([]models.Message, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.Message
	for _, msg := range s.messages {
		if q.ModerationStatus != "" && msg.ModerationStatus != q.ModerationStatus {
			continue
		}
		if !q.IncludeExpired && msg.Expired(now) {
			continue
		}
		if Haversine(q.Longitude, q.Latitude, msg.Longitude, msg.Latitude) > q.RadiusMeters {
			continue
		}
		out := *msg
		s.attach(&out)
		results = append(results, out)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (s *MemoryStore) DeleteMessage(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	delete(s.reactions, id)
	delete(s.discoveries, id)
	return nil
}

func (s *MemoryStore) SetModerationStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.ModerationStatus = status
	msg.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) UpsertReaction(_ context.Context, messageID, userID uuid.UUID, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return ErrNotFound
	}
	if s.reactions[messageID] == nil {
		s.reactions[messageID] = make(map[uuid.UUID]models.MessageReaction)
	}
	s.reactions[messageID][userID] = models.MessageReaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) AddDiscovery(_ context.Context, messageID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[messageID]; !ok {
		return ErrNotFound
	}
	if s.discoveries[messageID] == nil {
		s.discoveries[messageID] = make(map[uuid.UUID]models.MessageDiscovery)
	}
	if _, ok := s.discoveries[messageID][userID]; ok {
		return nil
	}
	s.discoveries[messageID][userID] = models.MessageDiscovery{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, msg := range s.messages {
		if msg.Expired(now) {
			delete(s.messages, id)
			delete(s.reactions, id)
			delete(s.discoveries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) EnqueueModeration(_ context.Context, rec *models.ModerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	copied := *rec
	s.records[rec.ID] = &copied
	return nil
}

func (s *MemoryStore) GetModerationRecord(_ context.Context, id uuid.UUID) (*models.ModerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) OpenModerationForMessage(_ context.Context, messageID uuid.UUID) (*models.ModerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest *models.ModerationRecord
	for _, rec := range s.records {
		if rec.MessageID != messageID {
			continue
		}
		if rec.QueueStatus != models.QueuePending && rec.QueueStatus != models.QueueReviewing {
			continue
		}
		if oldest == nil || rec.CreatedAt.Before(oldest.CreatedAt) {
			oldest = rec
		}
	}
	if oldest == nil {
		return nil, ErrNotFound
	}
	out := *oldest
	return &out, nil
}

func (s *MemoryStore) UpdateModerationRecord(_ context.Context, rec *models.ModerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return ErrNotFound
	}
	rec.UpdatedAt = time.Now().UTC()
	copied := *rec
	s.records[rec.ID] = &copied
	return nil
}

func (s *MemoryStore) PendingModeration(_ context.Context, limit, offset int) ([]models.ModerationRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []models.ModerationRecord
	for _, rec := range s.records {
		if rec.QueueStatus == models.QueuePending || rec.QueueStatus == models.QueueReviewing {
			open = append(open, *rec)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		ri, rj := models.PriorityRank[open[i].Priority], models.PriorityRank[open[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})

	total := int64(len(open))
	if offset >= len(open) {
		return nil, total, nil
	}
	open = open[offset:]
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, total, nil
}

func (s *MemoryStore) CreateReport(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	copied := *report
	s.reports[report.ID] = &copied
	return nil
}

func (s *MemoryStore) ListReports(_ context.Context, status string, limit, offset int) ([]models.Report, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Report
	for _, r := range s.reports {
		if status == "" || r.Status == status {
			matched = append(matched, *r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *MemoryStore) ActionReport(_ context.Context, id uuid.UUID, status, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	report.Status = status
	report.AdminNote = note
	report.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) AppendEmotionLog(_ context.Context, entry *models.EmotionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.emotions = append(s.emotions, *entry)
	return nil
}

func (s *MemoryStore) TrimEmotionLogs(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.emotions[:0]
	var removed int64
	for _, e := range s.emotions {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.emotions = kept
	return removed, nil
}
