package pipeline

import "github.com/jlwainwright/email-categorization/pkg/models"

// Decide combines the outcomes of the two classifier calls into the single
// target-folder decision. It is pure and total: every combination of
// success and failure produces a Decision.
//
// Category failure of any kind (transport error, invalid completion) applies
// the fallback category. Sentiment failure alone never does: sentiment is
// informational context for categorization, not a filing criterion.
func Decide(category models.Category, categoryErr error, sentiment models.Sentiment, sentimentErr error) models.Decision {
	decision := models.Decision{
		Sentiment:    sentiment,
		HasSentiment: sentimentErr == nil,
	}
	if sentimentErr != nil {
		decision.Sentiment = models.NeutralSentiment()
	}

	if categoryErr != nil || !category.Valid() {
		decision.Category = models.CategoryFallback
		decision.Fallback = true
		return decision
	}

	decision.Category = category
	return decision
}
