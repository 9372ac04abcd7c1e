package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohanjain1648/whisper-thrillz/internal/config"
)

// Verdict is the typed classification outcome. Degraded marks verdicts
// produced by the local keyword filter instead of the external classifier.
type Verdict struct {
	Flagged    bool               `json:"flagged"`
	Categories map[string]bool    `json:"categories"`
	Scores     map[string]float64 `json:"scores"`
	Degraded   bool               `json:"degraded"`
}

// ContentClassifier checks text against the content policy. It may fail; the
// moderation engine falls back to the local filter.
type ContentClassifier interface {
	Moderate(ctx context.Context, text string) (Verdict, error)
}

type moderationAPIResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// HTTPContentClassifier calls an OpenAI-compatible moderation endpoint.
type HTTPContentClassifier struct {
	apiURL string
	apiKey string
	client *http.Client
}

var _ ContentClassifier = (*HTTPContentClassifier)(nil)

func NewHTTPContentClassifier(cfg *config.Config) *HTTPContentClassifier {
	timeout := cfg.ClassifierTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPContentClassifier{
		apiURL: cfg.ModerationAPIURL,
		apiKey: cfg.ModerationAPIKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPContentClassifier) Moderate(ctx context.Context, text string) (Verdict, error) {
	if c.apiKey == "" {
		return Verdict{}, fmt.Errorf("%w: no API key configured", ErrClassifierUnavailable)
	}

	payload, err := json.Marshal(map[string]string{"input": text})
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Verdict{}, fmt.Errorf("%w: status %d", ErrClassifierUnavailable, resp.StatusCode)
	}

	var decoded moderationAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Verdict{}, err
	}
	if len(decoded.Results) == 0 {
		return Verdict{}, errors.New("empty moderation response")
	}

	result := decoded.Results[0]
	return Verdict{
		Flagged:    result.Flagged,
		Categories: result.Categories,
		Scores:     result.CategoryScores,
	}, nil
}
