// Package pipeline drives one full classification pass over a mailbox:
// connect, enumerate, and for each message extract, classify, decide and
// relocate. Messages are processed strictly sequentially; the only
// message-level abort is a fetch failure, everything else degrades to the
// fallback decision.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jlwainwright/email-categorization/internal/extract"
	"github.com/jlwainwright/email-categorization/internal/mailbox"
	"github.com/jlwainwright/email-categorization/pkg/models"
)

// Mailbox is the session surface the pass drives. *mailbox.Client satisfies
// it; tests substitute fakes.
type Mailbox interface {
	SelectFolder(name string) error
	Enumerate(crit mailbox.Criteria) ([]uint32, error)
	Fetch(uid uint32) (mailbox.RawMessage, error)
	Relocate(uid uint32, folder string) error
	MarkSeen(uid uint32) error
	Logout() error
}

// SentimentClassifier scores truncated body text.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}

// CategoryClassifier picks one category for the message.
type CategoryClassifier interface {
	Classify(ctx context.Context, subject, sender, body string, sentiment models.Sentiment) (models.Category, error)
}

// Recorder persists the outcome of each decided message. Optional.
type Recorder interface {
	RecordProcessed(ctx context.Context, rec *models.ProcessedEmail) error
}

// Options wires a Pipeline.
type Options struct {
	// Connect opens the session for one pass. Called once per Run; the
	// session is torn down before Run returns on every exit path.
	Connect   func(ctx context.Context) (Mailbox, error)
	Extractor *extract.Extractor
	Sentiment SentimentClassifier
	Category  CategoryClassifier
	Recorder  Recorder // nil disables processing records

	// Folders maps each category to its destination folder; defaults to the
	// category display names.
	Folders      map[models.Category]string
	SourceFolder string // defaults to INBOX

	// Preview classifies and logs the intended relocation without mutating
	// mailbox state. MarkSeen additionally flags previewed messages as read
	// so repeated previews do not reprocess the same backlog.
	Preview  bool
	MarkSeen bool

	Logger *slog.Logger
}

// Summary is the pass-level accounting reported at end of pass.
type Summary struct {
	Enumerated     int
	Processed      int
	Relocated      int
	Previewed      int
	Fallbacks      int
	SkippedFetch   int
	RelocateErrors int
	SentimentFails int
	CategoryFails  int
	Duration       time.Duration
}

// Pipeline runs classification passes.
type Pipeline struct {
	connect   func(ctx context.Context) (Mailbox, error)
	extractor *extract.Extractor
	sentiment SentimentClassifier
	category  CategoryClassifier
	recorder  Recorder
	folders   map[models.Category]string
	source    string
	preview   bool
	markSeen  bool
	logger    *slog.Logger
}

// New creates a Pipeline from Options.
func New(opts Options) *Pipeline {
	folders := opts.Folders
	if folders == nil {
		folders = models.DefaultFolderMapping()
	}
	source := opts.SourceFolder
	if source == "" {
		source = "INBOX"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		connect:   opts.Connect,
		extractor: opts.Extractor,
		sentiment: opts.Sentiment,
		category:  opts.Category,
		recorder:  opts.Recorder,
		folders:   folders,
		source:    source,
		preview:   opts.Preview,
		markSeen:  opts.MarkSeen,
		logger:    logger,
	}
}

// Run executes one complete pass. A pass that cannot connect or select the
// source folder aborts immediately with nothing relocated; after that point
// every per-message failure is absorbed and the pass completes normally.
func (p *Pipeline) Run(ctx context.Context, crit mailbox.Criteria) (Summary, error) {
	started := time.Now()
	var sum Summary

	session, err := p.connect(ctx)
	if err != nil {
		return sum, fmt.Errorf("pass aborted: %w", err)
	}
	defer func() {
		if err := session.Logout(); err != nil {
			p.logger.Warn("logout failed", "error", err)
		}
	}()

	if err := session.SelectFolder(p.source); err != nil {
		return sum, fmt.Errorf("pass aborted: %w", err)
	}

	uids, err := session.Enumerate(crit)
	if err != nil {
		return sum, fmt.Errorf("pass aborted: %w", err)
	}
	sum.Enumerated = len(uids)
	p.logger.Info("pass started", "criteria", crit.String(), "messages", len(uids), "preview", p.preview)

	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(started)
			return sum, err
		}
		p.processMessage(ctx, session, uid, &sum)
	}

	sum.Duration = time.Since(started)
	p.logger.Info("pass completed",
		"processed", sum.Processed,
		"relocated", sum.Relocated,
		"previewed", sum.Previewed,
		"fallbacks", sum.Fallbacks,
		"skipped", sum.SkippedFetch,
		"errors", sum.RelocateErrors,
		"duration", sum.Duration)
	return sum, nil
}

// processMessage runs the full per-message state sequence: fetch, extract,
// classify, decide, relocate (or preview log). The message's pipeline
// completes before the next begins.
func (p *Pipeline) processMessage(ctx context.Context, session Mailbox, uid uint32, sum *Summary) {
	msgStart := time.Now()
	logger := p.logger.With("uid", uid)

	raw, err := session.Fetch(uid)
	if err != nil {
		if errors.Is(err, mailbox.ErrFetch) {
			logger.Warn("message vanished before fetch, skipping", "error", err)
			sum.SkippedFetch++
			return
		}
		logger.Warn("fetch failed, skipping", "error", err)
		sum.SkippedFetch++
		return
	}

	content := p.extractor.Extract(raw.Raw)
	logger = logger.With("subject", content.Subject)

	sentiment, sentErr := p.sentiment.Classify(ctx, content.SentimentText)
	if sentErr != nil {
		logger.Warn("sentiment inference failed, continuing without it", "error", sentErr)
		sum.SentimentFails++
	}

	promptSentiment := sentiment
	if sentErr != nil {
		promptSentiment = models.NeutralSentiment()
	}

	category, catErr := p.category.Classify(ctx, content.Subject, content.Sender, content.CategoryText, promptSentiment)
	if catErr != nil {
		logger.Warn("category inference failed, applying fallback", "error", catErr)
		sum.CategoryFails++
	}

	decision := Decide(category, catErr, sentiment, sentErr)
	if decision.Fallback {
		sum.Fallbacks++
	}

	folder := p.folders[decision.Category]
	sum.Processed++

	if p.preview {
		logger.Info("preview: would relocate",
			"category", decision.Category.String(),
			"folder", folder,
			"sentiment", decision.Sentiment.Label,
			"fallback", decision.Fallback)
		sum.Previewed++
		if p.markSeen {
			if err := session.MarkSeen(uid); err != nil {
				logger.Warn("mark seen failed", "error", err)
			}
		}
	} else {
		if err := session.Relocate(uid, folder); err != nil {
			logger.Error("relocate failed", "folder", folder, "error", err)
			sum.RelocateErrors++
			return
		}
		logger.Info("message relocated",
			"category", decision.Category.String(),
			"sentiment", decision.Sentiment.Label,
			"fallback", decision.Fallback)
		sum.Relocated++
	}

	p.record(ctx, raw.UID, content, decision, msgStart)
}

func (p *Pipeline) record(ctx context.Context, uid uint32, content extract.Content, decision models.Decision, started time.Time) {
	if p.recorder == nil {
		return
	}

	rec := &models.ProcessedEmail{
		UID:           uid,
		Subject:       content.Subject,
		Sender:        content.Sender,
		Category:      decision.Category.String(),
		Score:         decision.Sentiment.Score,
		Fallback:      decision.Fallback,
		Preview:       p.preview,
		ProcessingMS:  time.Since(started).Milliseconds(),
		ContentLength: len(content.Body),
	}
	if decision.HasSentiment {
		rec.Sentiment = decision.Sentiment.Label
	}

	if err := p.recorder.RecordProcessed(ctx, rec); err != nil {
		p.logger.Warn("failed to record processed message", "uid", uid, "error", err)
	}
}
