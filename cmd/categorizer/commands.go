package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlwainwright/email-categorization/internal/classify"
	"github.com/jlwainwright/email-categorization/internal/config"
	"github.com/jlwainwright/email-categorization/internal/database"
	"github.com/jlwainwright/email-categorization/internal/extract"
	"github.com/jlwainwright/email-categorization/internal/mailbox"
	"github.com/jlwainwright/email-categorization/internal/pipeline"
	"github.com/jlwainwright/email-categorization/pkg/models"
)

func newRunCmd() *cobra.Command {
	var criteria string
	var count int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one classification pass and relocate messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			crit, err := mailbox.ParseCriteria(criteria, count)
			if err != nil {
				return err
			}

			p, cleanup, err := buildPipeline(cfg, logger, false, false)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = p.Run(cmd.Context(), crit)
			return err
		},
	}

	cmd.Flags().StringVar(&criteria, "criteria", "unseen", "message selection: all, unseen or recent")
	cmd.Flags().IntVar(&count, "count", 0, "message count for the recent criteria")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var criteria string
	var count int
	var markSeen bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Classify messages and log intended relocations without moving anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			crit, err := mailbox.ParseCriteria(criteria, count)
			if err != nil {
				return err
			}

			p, cleanup, err := buildPipeline(cfg, logger, true, markSeen)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = p.Run(cmd.Context(), crit)
			return err
		},
	}

	cmd.Flags().StringVar(&criteria, "criteria", "unseen", "message selection: all, unseen or recent")
	cmd.Flags().IntVar(&count, "count", 0, "message count for the recent criteria")
	cmd.Flags().BoolVar(&markSeen, "mark-seen", false, "flag previewed messages as read so later previews skip them")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var criteria string
	var count int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run classification passes continuously on a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}
			crit, err := mailbox.ParseCriteria(criteria, count)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.PollInterval
			}

			p, cleanup, err := buildPipeline(cfg, logger, false, false)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := pipeline.NewRunner(p, interval, logger)
			return runner.Watch(ctx, crit)
		},
	}

	cmd.Flags().StringVar(&criteria, "criteria", "unseen", "message selection: all, unseen or recent")
	cmd.Flags().IntVar(&count, "count", 0, "message count for the recent criteria")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval, defaults to POLL_INTERVAL")
	return cmd
}

func newCheckFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-folders",
		Short: "Verify that every category folder exists in the mail store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			client, err := dial(cfg, logger)
			if err != nil {
				return err
			}
			defer client.Logout()

			existing, err := client.ListFolders()
			if err != nil {
				return err
			}

			missing := mailbox.MissingFolders(existing, models.CategoryNames(), cfg.FolderPrefix)
			for _, name := range models.CategoryNames() {
				found := true
				for _, m := range missing {
					if m == name {
						found = false
						break
					}
				}
				if found {
					fmt.Printf("  ✓ %s\n", name)
				} else {
					fmt.Printf("  ✗ %s (missing)\n", name)
				}
			}

			if len(missing) > 0 {
				fmt.Printf("\n%d of %d category folders missing; create them before running the pipeline\n",
					len(missing), len(models.CategoryNames()))
			} else {
				fmt.Println("\nall category folders present")
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report processing statistics from the local records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadEnv()
			if err != nil {
				return err
			}

			db, err := database.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			stats, err := db.GetStats(ctx, days)
			if err != nil {
				return err
			}

			fmt.Printf("processed:   %d (last %d days)\n", stats.Total, days)
			fmt.Printf("fallbacks:   %d\n", stats.Fallbacks)
			fmt.Printf("previews:    %d\n", stats.Previews)
			fmt.Printf("avg time:    %.0f ms\n", stats.AvgProcessingMS)
			if len(stats.ByCategory) > 0 {
				fmt.Println("\nby category:")
				for _, c := range stats.ByCategory {
					fmt.Printf("  %-28s %d\n", c.Category, c.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "trailing window in days")
	return cmd
}

// dial opens the single IMAP session for a pass, resolving the server from
// the account's mail domain when none is configured.
func dial(cfg *config.Config, logger *slog.Logger) (*mailbox.Client, error) {
	addr := cfg.ServerAddr()
	if cfg.IMAPServer == "" {
		resolved, err := mailbox.ResolveServer(cfg.IMAPUsername)
		if err != nil {
			return nil, fmt.Errorf("no IMAP_SERVER configured and autodiscovery failed: %w", err)
		}
		logger.Info("resolved IMAP server from mail domain", "server", resolved)
		addr = resolved
	}

	return mailbox.Dial(mailbox.ClientConfig{
		Addr:         addr,
		Username:     cfg.IMAPUsername,
		Password:     cfg.IMAPPassword,
		FolderPrefix: cfg.FolderPrefix,
		DialTimeout:  cfg.DialTimeout,
	}, logger)
}

// buildPipeline wires the pass components from configuration. The processing
// record store is best-effort: a database failure disables recording but
// never blocks classification.
func buildPipeline(cfg *config.Config, logger *slog.Logger, preview, markSeen bool) (*pipeline.Pipeline, func(), error) {
	extractor := extract.New(extract.Options{
		SentimentMaxChars: cfg.SentimentMaxChars,
		CategoryMaxChars:  cfg.CategoryMaxChars,
		FallbackCharset:   cfg.FallbackCharset,
	})

	sentiment := classify.NewHuggingFace(classify.HuggingFaceConfig{
		BaseURL:      cfg.HuggingFaceBaseURL,
		Model:        cfg.HuggingFaceModel,
		APIKey:       cfg.HuggingFaceAPIKey,
		Timeout:      cfg.HuggingFaceTimeout,
		CallInterval: cfg.APICallInterval,
	})

	category := classify.NewOpenAI(classify.OpenAIConfig{
		BaseURL:      cfg.OpenAIBaseURL,
		Model:        cfg.OpenAIModel,
		APIKey:       cfg.OpenAIAPIKey,
		Timeout:      cfg.OpenAITimeout,
		CallInterval: cfg.APICallInterval,
	})

	cleanup := func() {}
	var recorder pipeline.Recorder
	if db, err := database.New(cfg.DatabasePath); err != nil {
		logger.Warn("processing records disabled", "error", err)
	} else if err := db.Migrate(context.Background()); err != nil {
		logger.Warn("processing records disabled", "error", err)
		db.Close()
	} else {
		recorder = db
		cleanup = func() { db.Close() }
	}

	p := pipeline.New(pipeline.Options{
		Connect: func(ctx context.Context) (pipeline.Mailbox, error) {
			return dial(cfg, logger)
		},
		Extractor: extractor,
		Sentiment: sentiment,
		Category:  category,
		Recorder:  recorder,
		Preview:   preview,
		MarkSeen:  markSeen,
		Logger:    logger,
	})

	return p, cleanup, nil
}
