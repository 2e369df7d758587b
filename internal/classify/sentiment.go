// Package classify holds the two external inference clients: sentiment
// scoring via a Hugging Face inference endpoint and category selection via
// an OpenAI-compatible chat endpoint. Both make a single bounded attempt per
// message and report failure as a returned error; the decision policy
// upstream absorbs those failures.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jlwainwright/email-categorization/pkg/models"
)

// HuggingFaceConfig configures the sentiment client.
type HuggingFaceConfig struct {
	BaseURL string // e.g. https://api-inference.huggingface.co/models
	Model   string
	APIKey  string
	Timeout time.Duration
	// CallInterval is the minimum spacing between outbound calls; zero
	// disables throttling.
	CallInterval time.Duration
}

// HuggingFace calls the sentiment inference endpoint.
type HuggingFace struct {
	url        string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHuggingFace creates a sentiment client.
func NewHuggingFace(cfg HuggingFaceConfig) *HuggingFace {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HuggingFace{
		url:        strings.TrimSuffix(cfg.BaseURL, "/") + "/" + cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newCallLimiter(cfg.CallInterval),
	}
}

type sentimentRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends the sentiment-capped text to the inference endpoint and
// returns the highest-score label. One attempt, bounded by the client
// timeout; every anomaly is an error for the caller to absorb.
func (h *HuggingFace) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return models.Sentiment{}, err
	}

	payload, err := json.Marshal(sentimentRequest{Inputs: text})
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("encode sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("build sentiment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("sentiment request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("read sentiment response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Sentiment{}, fmt.Errorf("sentiment endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scores, err := parseSentimentScores(body)
	if err != nil {
		return models.Sentiment{}, err
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	return models.Sentiment{Label: normalizeLabel(best.Label), Score: best.Score}, nil
}

// parseSentimentScores accepts both response shapes the endpoint produces:
// a nested [[{label,score}...]] array and a flat [{label,score}...] one.
func parseSentimentScores(body []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	return nil, fmt.Errorf("malformed sentiment response: %s", strings.TrimSpace(string(body)))
}

func normalizeLabel(label string) string {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case models.SentimentPositive, "LABEL_1":
		return models.SentimentPositive
	case models.SentimentNegative, "LABEL_0":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func newCallLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
