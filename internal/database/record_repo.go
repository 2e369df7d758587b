package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jlwainwright/email-categorization/pkg/models"
)

// RecordProcessed inserts the record of one classified message.
func (db *DB) RecordProcessed(ctx context.Context, rec *models.ProcessedEmail) error {
	query := `
		INSERT INTO processed_emails (uid, subject, sender, category, sentiment, score, fallback, preview, processing_ms, content_length, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		rec.UID,
		rec.Subject,
		rec.Sender,
		rec.Category,
		rec.Sentiment,
		rec.Score,
		rec.Fallback,
		rec.Preview,
		rec.ProcessingMS,
		rec.ContentLength,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to record processed email: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	rec.ProcessedAt = now
	return nil
}

// Stats aggregates processing statistics over the trailing window.
type Stats struct {
	Total           int64
	Fallbacks       int64
	Previews        int64
	AvgProcessingMS float64
	ByCategory      []models.CategoryCount
}

// GetStats aggregates the processed-email records of the last N days.
func (db *DB) GetStats(ctx context.Context, days int) (*Stats, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats := &Stats{}
	totals := struct {
		Total     int64   `db:"total"`
		Fallbacks int64   `db:"fallbacks"`
		Previews  int64   `db:"previews"`
		AvgMS     float64 `db:"avg_ms"`
	}{}

	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(fallback), 0) AS fallbacks,
		       COALESCE(SUM(preview), 0) AS previews,
		       COALESCE(AVG(processing_ms), 0) AS avg_ms
		FROM processed_emails
		WHERE processed_at >= ?
	`
	if err := db.GetContext(ctx, &totals, query, since); err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}
	stats.Total = totals.Total
	stats.Fallbacks = totals.Fallbacks
	stats.Previews = totals.Previews
	stats.AvgProcessingMS = totals.AvgMS

	byCategory := `
		SELECT category, COUNT(*) AS count
		FROM processed_emails
		WHERE processed_at >= ?
		GROUP BY category
		ORDER BY count DESC
	`
	if err := db.SelectContext(ctx, &stats.ByCategory, byCategory, since); err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}

	return stats, nil
}
