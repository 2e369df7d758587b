package models

// Decision is the single target-folder decision derived for one message.
// It is produced by the decision policy and consumed immediately by the
// relocation step; it is never persisted as-is.
type Decision struct {
	Category  Category
	Sentiment Sentiment
	// HasSentiment is false when sentiment inference failed; the category
	// prompt then ran without sentiment context.
	HasSentiment bool
	// Fallback marks that category inference failed (or returned a value
	// outside the fixed set) and the default category was applied.
	Fallback bool
}
