package models

import "time"

// ProcessedEmail is the persisted record of one classified message.
type ProcessedEmail struct {
	ID            int64     `db:"id"`
	UID           uint32    `db:"uid"`            // IMAP UID in the source folder
	Subject       string    `db:"subject"`        // decoded subject
	Sender        string    `db:"sender"`         // decoded From header
	Category      string    `db:"category"`       // decided category name
	Sentiment     string    `db:"sentiment"`      // sentiment label, empty if inference failed
	Score         float64   `db:"score"`          // sentiment confidence
	Fallback      bool      `db:"fallback"`       // default category was applied
	Preview       bool      `db:"preview"`        // dry run, nothing relocated
	ProcessingMS  int64     `db:"processing_ms"`  // wall time for the message
	ContentLength int       `db:"content_length"` // extracted body length
	ProcessedAt   time.Time `db:"processed_at"`
}

// CategoryCount is one row of the per-category aggregation.
type CategoryCount struct {
	Category string `db:"category"`
	Count    int64  `db:"count"`
}
