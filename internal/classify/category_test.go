package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlwainwright/email-categorization/pkg/models"
)

func chatCompletion(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func categoryClient(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI(OpenAIConfig{
		BaseURL: srv.URL,
		Model:   "gpt-3.5-turbo",
		APIKey:  "test-key",
	})
}

func TestCategoryClassify_ExactMatch(t *testing.T) {
	var gotReq chatRequest

	c := categoryClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatCompletion("Invoices & Payments")))
	})

	got, err := c.Classify(context.Background(),
		"Invoice 1042 overdue", "billing@vendor.example", "please settle the attached invoice",
		models.Sentiment{Label: models.SentimentNegative, Score: 0.78})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryInvoicesPayments, got)

	assert.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	assert.InDelta(t, 0.1, gotReq.Temperature, 1e-9)
	assert.Equal(t, 50, gotReq.MaxTokens)

	require.Len(t, gotReq.Messages, 2)
	system := gotReq.Messages[0]
	assert.Equal(t, "system", system.Role)
	for _, name := range models.CategoryNames() {
		assert.Contains(t, system.Content, name)
	}
	assert.Contains(t, system.Content, "only the category name")

	user := gotReq.Messages[1]
	assert.Equal(t, "user", user.Role)
	assert.Contains(t, user.Content, "EMAIL FROM: billing@vendor.example")
	assert.Contains(t, user.Content, "EMAIL SUBJECT: Invoice 1042 overdue")
	assert.Contains(t, user.Content, "EMAIL CONTENT: please settle the attached invoice")
	assert.Contains(t, user.Content, "SENTIMENT: NEGATIVE (score 0.78)")
}

func TestCategoryClassify_ToleratesCompletionWrapping(t *testing.T) {
	tests := []string{
		"General Inquiries",
		" General Inquiries \n",
		`"General Inquiries"`,
		"General Inquiries.",
		"general inquiries",
	}

	for _, completion := range tests {
		c := categoryClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatCompletion(completion)))
		})
		got, err := c.Classify(context.Background(), "s", "f", "b", models.NeutralSentiment())
		require.NoError(t, err, "completion %q", completion)
		assert.Equal(t, models.CategoryGeneralInquiries, got)
	}
}

func TestCategoryClassify_RejectsHallucinatedCategory(t *testing.T) {
	tests := []string{
		"client comms",
		"Client Communications",
		"Spam",
		"None of the above",
		"",
	}

	for _, completion := range tests {
		c := categoryClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatCompletion(completion)))
		})
		_, err := c.Classify(context.Background(), "s", "f", "b", models.NeutralSentiment())
		assert.ErrorIs(t, err, ErrInvalidCategory, "completion %q", completion)
	}
}

func TestCategoryClassify_LegacyNameStillAccepted(t *testing.T) {
	c := categoryClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletion("Client_Communication")))
	})

	got, err := c.Classify(context.Background(), "s", "f", "b", models.NeutralSentiment())
	require.NoError(t, err)
	assert.Equal(t, models.CategoryClientCommunicationLegacy, got)
}

func TestCategoryClassify_NonOKStatus(t *testing.T) {
	c := categoryClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := c.Classify(context.Background(), "s", "f", "b", models.NeutralSentiment())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCategoryClassify_MalformedResponse(t *testing.T) {
	for _, body := range []string{`not json`, `{"choices":[]}`} {
		c := categoryClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		_, err := c.Classify(context.Background(), "s", "f", "b", models.NeutralSentiment())
		assert.Error(t, err, "body %q", body)
	}
}

func TestCleanCompletion(t *testing.T) {
	assert.Equal(t, "Follow-Up Required", cleanCompletion(`"Follow-Up Required."`))
	assert.Equal(t, "Spam & Unwanted", cleanCompletion("  'Spam & Unwanted'  "))
	assert.Equal(t, "", cleanCompletion("  "))
}
