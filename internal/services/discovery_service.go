package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
	"github.com/rohanjain1648/whisper-thrillz/internal/store"
)

const (
	defaultDiscoveryLimit = 50
	maxDiscoveryLimit     = 100
	insightsFetchCap      = 500
)

// MoodFilter narrows discovery results by sentiment range and/or acceptable
// dominant emotions. Bounds are inclusive.
type MoodFilter struct {
	MinSentiment *float64
	MaxSentiment *float64
	Emotions     []string
}

// DiscoveryOptions tunes one nearby query.
type DiscoveryOptions struct {
	Limit          int
	IncludeExpired bool
	// ExcludeDiscoveredBy drops messages this user already discovered.
	ExcludeDiscoveredBy *uuid.UUID
	Mood                *MoodFilter
	// ModerationStatus may only be set by privileged callers; everyone else
	// sees approved messages.
	ModerationStatus string
	Privileged       bool
}

// HourBucket is one creation-hour frequency entry (UTC).
type HourBucket struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// LocationInsights aggregates the emotional character of an area. The
// zero-state (no messages) is well-defined and never an error.
type LocationInsights struct {
	MessageCount     int          `json:"message_count"`
	AverageSentiment float64      `json:"average_sentiment"`
	AverageIntensity float64      `json:"average_intensity"`
	DominantEmotion  string       `json:"dominant_emotion"`
	TopHours         []HourBucket `json:"top_hours"`
}

// DiscoveryService runs proximity queries with moderation, expiry, seen-set,
// and mood post-filtering.
type DiscoveryService struct {
	store store.MessageStore
	now   func() time.Time
}

func NewDiscoveryService(st store.MessageStore) *DiscoveryService {
	return &DiscoveryService{store: st, now: time.Now}
}

// FindNearbyMessages validates the location and returns approved, unexpired
// messages within the radius, newest first.
func (s *DiscoveryService) FindNearbyMessages(ctx context.Context, longitude, latitude, radiusMeters float64, opts DiscoveryOptions) ([]models.Message, error) {
	if !store.ValidCoordinates(longitude, latitude) {
		return nil, ErrInvalidLocation
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultDiscoveryLimit
	}
	if limit > maxDiscoveryLimit {
		limit = maxDiscoveryLimit
	}

	status := models.ModerationApproved
	includeExpired := false
	if opts.Privileged {
		status = opts.ModerationStatus
		includeExpired = opts.IncludeExpired
	}

	// post-filters only shrink the set, so fetch a padded candidate window
	candidates, err := s.store.FindNearby(ctx, store.NearbyQuery{
		Longitude:        longitude,
		Latitude:         latitude,
		RadiusMeters:     radiusMeters,
		ModerationStatus: status,
		IncludeExpired:   includeExpired,
		Limit:            limit * 5,
		Now:              s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	results := make([]models.Message, 0, limit)
	for _, msg := range candidates {
		if opts.ExcludeDiscoveredBy != nil && msg.DiscoveredBy(*opts.ExcludeDiscoveredBy) {
			continue
		}
		if opts.Mood != nil && !matchesMood(msg.Mood.Data(), opts.Mood) {
			continue
		}
		results = append(results, msg)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func matchesMood(mood models.MoodVector, filter *MoodFilter) bool {
	if filter.MinSentiment != nil && mood.Sentiment < *filter.MinSentiment {
		return false
	}
	if filter.MaxSentiment != nil && mood.Sentiment > *filter.MaxSentiment {
		return false
	}
	if len(filter.Emotions) > 0 {
		dominant := mood.DominantEmotion()
		found := false
		for _, e := range filter.Emotions {
			if e == dominant {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetLocationInsights aggregates sentiment, dominant emotion, and the top
// creation-hour buckets (UTC, top 3 by frequency) over approved messages in
// the radius.
func (s *DiscoveryService) GetLocationInsights(ctx context.Context, longitude, latitude, radiusMeters float64) (*LocationInsights, error) {
	if !store.ValidCoordinates(longitude, latitude) {
		return nil, ErrInvalidLocation
	}

	messages, err := s.store.FindNearby(ctx, store.NearbyQuery{
		Longitude:        longitude,
		Latitude:         latitude,
		RadiusMeters:     radiusMeters,
		ModerationStatus: models.ModerationApproved,
		Limit:            insightsFetchCap,
		Now:              s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	insights := &LocationInsights{TopHours: []HourBucket{}}
	if len(messages) == 0 {
		return insights, nil
	}

	var sentimentSum, intensitySum float64
	emotionSums := make(map[string]float64, len(models.EmotionOrder))
	hourCounts := make(map[int]int)

	for _, msg := range messages {
		mood := msg.Mood.Data()
		sentimentSum += mood.Sentiment
		intensitySum += mood.Intensity
		for _, name := range models.EmotionOrder {
			emotionSums[name] += mood.Emotions[name]
		}
		hourCounts[msg.CreatedAt.UTC().Hour()]++
	}

	count := float64(len(messages))
	insights.MessageCount = len(messages)
	insights.AverageSentiment = math.Round(sentimentSum/count*100) / 100
	insights.AverageIntensity = math.Round(intensitySum/count*100) / 100

	// argmax over the averaged emotion map; ties break by enumeration order
	best := -1.0
	for _, name := range models.EmotionOrder {
		if emotionSums[name] > best {
			best = emotionSums[name]
			insights.DominantEmotion = name
		}
	}

	buckets := make([]HourBucket, 0, len(hourCounts))
	for hour, n := range hourCounts {
		buckets = append(buckets, HourBucket{Hour: hour, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Hour < buckets[j].Hour
	})
	if len(buckets) > 3 {
		buckets = buckets[:3]
	}
	insights.TopHours = buckets

	return insights, nil
}
