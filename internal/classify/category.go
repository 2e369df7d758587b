package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jlwainwright/email-categorization/pkg/models"
)

// ErrInvalidCategory marks a completion that is not an exact member of the
// fixed category set (hallucinated or malformed). It is never substituted
// with a best guess here; the decision policy applies the fallback.
var ErrInvalidCategory = errors.New("category response outside the fixed set")

// Decoding parameters chosen for determinism: low temperature, short output.
const (
	categoryTemperature = 0.1
	categoryMaxTokens   = 50
)

// OpenAIConfig configures the category client.
type OpenAIConfig struct {
	BaseURL      string // e.g. https://api.openai.com/v1
	Model        string
	APIKey       string
	Timeout      time.Duration
	CallInterval time.Duration
}

// OpenAI calls the chat-completions endpoint to pick one category.
type OpenAI struct {
	url        string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOpenAI creates a category client.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &OpenAI{
		url:        strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newCallLimiter(cfg.CallInterval),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify builds a structured prompt from the extracted fields plus the
// sentiment context and validates the completion against the fixed category
// set. One attempt, bounded by the client timeout.
func (o *OpenAI) Classify(ctx context.Context, subject, sender, body string, sentiment models.Sentiment) (models.Category, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return models.CategoryFallback, err
	}

	payload, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: userPrompt(subject, sender, body, sentiment)},
		},
		Temperature: categoryTemperature,
		MaxTokens:   categoryMaxTokens,
	})
	if err != nil {
		return models.CategoryFallback, fmt.Errorf("encode category request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	if err != nil {
		return models.CategoryFallback, fmt.Errorf("build category request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return models.CategoryFallback, fmt.Errorf("category request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.CategoryFallback, fmt.Errorf("read category response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.CategoryFallback, fmt.Errorf("category endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.CategoryFallback, fmt.Errorf("malformed category response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return models.CategoryFallback, fmt.Errorf("category response has no choices")
	}

	answer := cleanCompletion(parsed.Choices[0].Message.Content)
	category, err := models.ParseCategory(answer)
	if err != nil {
		return models.CategoryFallback, fmt.Errorf("%w: %q", ErrInvalidCategory, answer)
	}
	return category, nil
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an email categorization assistant for a business mailbox. ")
	b.WriteString("Categorize the email into exactly ONE of the following categories:\n\n")
	for i, name := range models.CategoryNames() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	b.WriteString("\nRespond with only the category name, nothing else.")
	return b.String()
}

func userPrompt(subject, sender, body string, sentiment models.Sentiment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EMAIL FROM: %s\n", sender)
	fmt.Fprintf(&b, "EMAIL SUBJECT: %s\n", subject)
	fmt.Fprintf(&b, "EMAIL CONTENT: %s\n", body)
	fmt.Fprintf(&b, "SENTIMENT: %s (score %.2f)\n", sentiment.Label, sentiment.Score)
	return b.String()
}

// cleanCompletion strips the quoting and punctuation chat models like to
// wrap short answers in before exact-match validation.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
