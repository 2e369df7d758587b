package models

// Sentiment labels as produced by the inference endpoint.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Sentiment is the result of a successful sentiment inference call.
type Sentiment struct {
	Label string  // POSITIVE, NEGATIVE or NEUTRAL
	Score float64 // model confidence in [0,1]
}

// NeutralSentiment is the value reported when sentiment inference failed and
// the pipeline proceeds without it.
func NeutralSentiment() Sentiment {
	return Sentiment{Label: SentimentNeutral, Score: 0.5}
}
