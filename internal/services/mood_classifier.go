package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rohanjain1648/whisper-thrillz/internal/config"
	"github.com/rohanjain1648/whisper-thrillz/internal/models"
)

// MoodClassifier computes an emotional fingerprint for a piece of text. It may
// fail or time out; callers must substitute a neutral default.
type MoodClassifier interface {
	Classify(ctx context.Context, text string) (models.MoodVector, error)
}

// MoodResult carries the resolved vector plus whether the fallback was taken,
// so the degraded path is inspectable rather than hidden behind recovery.
type MoodResult struct {
	Vector   models.MoodVector
	Degraded bool
}

// ResolveMood runs the classifier and falls back to the neutral vector on any
// failure. Message creation is never blocked by classifier unavailability.
func ResolveMood(ctx context.Context, classifier MoodClassifier, text string) MoodResult {
	if classifier == nil {
		return MoodResult{Vector: models.NeutralMood(), Degraded: true}
	}
	vector, err := classifier.Classify(ctx, text)
	if err != nil {
		slog.Warn("mood classification degraded to neutral", "error", err)
		return MoodResult{Vector: models.NeutralMood(), Degraded: true}
	}
	return MoodResult{Vector: vector.Clamped()}
}

const moodSystemPrompt = `You are an emotion analyst. Score the text on the eight emotions joy, trust, fear, surprise, sadness, disgust, anger, anticipation, each 0 to 1, plus overall sentiment (-1 to 1) and intensity (0 to 1).
Return your analysis as a JSON object with these exact fields:
{"emotions":{"joy":0,"trust":0,"fear":0,"surprise":0,"sadness":0,"disgust":0,"anger":0,"anticipation":0},"sentiment":0,"intensity":0}
Return ONLY the JSON object, no extra text.`

type moodChatRequest struct {
	Model       string            `json:"model"`
	Messages    []moodChatMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
}

type moodChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type moodChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPMoodClassifier calls an OpenAI-compatible chat completion endpoint with
// a strict JSON prompt and decodes the result into a typed vector at the
// boundary.
type HTTPMoodClassifier struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

var _ MoodClassifier = (*HTTPMoodClassifier)(nil)

func NewHTTPMoodClassifier(cfg *config.Config) *HTTPMoodClassifier {
	timeout := cfg.ClassifierTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPMoodClassifier{
		apiURL: cfg.MoodAPIURL,
		apiKey: cfg.MoodAPIKey,
		model:  cfg.MoodModel,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPMoodClassifier) Classify(ctx context.Context, text string) (models.MoodVector, error) {
	if c.apiKey == "" {
		return models.MoodVector{}, fmt.Errorf("%w: no API key configured", ErrClassifierUnavailable)
	}

	payload, err := json.Marshal(moodChatRequest{
		Model: c.model,
		Messages: []moodChatMessage{
			{Role: "system", Content: moodSystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return models.MoodVector{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return models.MoodVector{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return models.MoodVector{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.MoodVector{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.MoodVector{}, fmt.Errorf("%w: status %d", ErrClassifierUnavailable, resp.StatusCode)
	}

	var completion moodChatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return models.MoodVector{}, err
	}
	if len(completion.Choices) == 0 {
		return models.MoodVector{}, errors.New("no response from classifier")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var vector models.MoodVector
	if err := json.Unmarshal([]byte(content), &vector); err != nil {
		return models.MoodVector{}, fmt.Errorf("decode mood vector: %w", err)
	}
	return vector.Clamped(), nil
}
