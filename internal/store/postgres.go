package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore implements MessageStore on top of GORM. The nearby query drops
// to SQL built with squirrel: a bounding-box prefilter hits the location index
// and the exact great-circle check runs on the narrowed set.
type PostgresStore struct {
	db *gorm.DB
}

var _ MessageStore = (*PostgresStore)(nil)

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Preload("Reactions").
		Preload("Discoveries").
		First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *PostgresStore) FindNearby(ctx context.Context, q NearbyQuery) ([]models.Message, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	minLat, maxLat, minLng, maxLng := BoundingBox(q.Latitude, q.Longitude, q.RadiusMeters)

	sb := sq.Select(
		"id", "content", "longitude", "latitude", "mood", "author_id",
		"is_anonymous", "is_ephemeral", "expires_at", "moderation_status",
		"created_at", "updated_at",
	).
		From("messages").
		Where("deleted_at IS NULL").
		Where(sq.GtOrEq{"latitude": minLat}).
		Where(sq.LtOrEq{"latitude": maxLat}).
		Where(sq.GtOrEq{"longitude": minLng}).
		Where(sq.LtOrEq{"longitude": maxLng}).
		OrderBy("created_at DESC")

	if q.ModerationStatus != "" {
		sb = sb.Where(sq.Eq{"moderation_status": q.ModerationStatus})
	}
	if !q.IncludeExpired {
		sb = sb.Where(sq.Or{
			sq.Eq{"is_ephemeral": false},
			sq.Eq{"expires_at": nil},
			sq.Gt{"expires_at": now},
		})
	}

	query, args, err := sb.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build nearby query: %w", err)
	}

	var candidates []models.Message
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&candidates).Error; err != nil {
		return nil, fmt.Errorf("nearby query: %w", err)
	}

	results := make([]models.Message, 0, len(candidates))
	for _, m := range candidates {
		if Haversine(q.Longitude, q.Latitude, m.Longitude, m.Latitude) <= q.RadiusMeters {
			results = append(results, m)
		}
		if q.Limit > 0 && len(results) >= q.Limit {
			break
		}
	}

	if err := s.loadAssociations(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PostgresStore) loadAssociations(ctx context.Context, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(msgs))
	index := make(map[uuid.UUID]int, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
		index[m.ID] = i
	}

	var reactions []models.MessageReaction
	if err := s.db.WithContext(ctx).Where("message_id IN ?", ids).Find(&reactions).Error; err != nil {
		return err
	}
	for _, r := range reactions {
		i := index[r.MessageID]
		msgs[i].Reactions = append(msgs[i].Reactions, r)
	}

	var discoveries []models.MessageDiscovery
	if err := s.db.WithContext(ctx).Where("message_id IN ?", ids).Find(&discoveries).Error; err != nil {
		return err
	}
	for _, d := range discoveries {
		i := index[d.MessageID]
		msgs[i].Discoveries = append(msgs[i].Discoveries, d)
	}
	return nil
}

func (s *PostgresStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id).Error
}

func (s *PostgresStore) SetModerationStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Update("moderation_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpsertReaction(ctx context.Context, messageID, userID uuid.UUID, kind string) error {
	reaction := models.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Kind:      kind,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}).Create(&reaction).Error
}

func (s *PostgresStore) AddDiscovery(ctx context.Context, messageID, userID uuid.UUID) error {
	discovery := models.MessageDiscovery{
		MessageID: messageID,
		UserID:    userID,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&discovery).Error
}

func (s *PostgresStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_ephemeral = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}

func (s *PostgresStore) EnqueueModeration(ctx context.Context, rec *models.ModerationRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *PostgresStore) GetModerationRecord(ctx context.Context, id uuid.UUID) (*models.ModerationRecord, error) {
	var rec models.ModerationRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) OpenModerationForMessage(ctx context.Context, messageID uuid.UUID) (*models.ModerationRecord, error) {
	var rec models.ModerationRecord
	err := s.db.WithContext(ctx).
		Where("message_id = ? AND queue_status IN ?", messageID, []string{models.QueuePending, models.QueueReviewing}).
		Order("created_at ASC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) UpdateModerationRecord(ctx context.Context, rec *models.ModerationRecord) error {
	return s.db.WithContext(ctx).Save(rec).Error
}

func (s *PostgresStore) PendingModeration(ctx context.Context, limit, offset int) ([]models.ModerationRecord, int64, error) {
	open := []string{models.QueuePending, models.QueueReviewing}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.ModerationRecord{}).
		Where("queue_status IN ?", open).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query, args, err := sq.Select("*").
		From("moderation_records").
		Where(sq.Eq{"queue_status": open}).
		OrderBy(
			"CASE priority WHEN 'critical' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END DESC",
			"created_at ASC",
		).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build queue query: %w", err)
	}

	var records []models.ModerationRecord
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, report *models.Report) error {
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *PostgresStore) ListReports(ctx context.Context, status string, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *PostgresStore) ActionReport(ctx context.Context, id uuid.UUID, status, note string) error {
	result := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"admin_note": note,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendEmotionLog(ctx context.Context, entry *models.EmotionLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *PostgresStore) TrimEmotionLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.EmotionLog{})
	return result.RowsAffected, result.Error
}
