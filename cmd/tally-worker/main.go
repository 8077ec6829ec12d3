package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/log"
	"tally/internal/services"
	gsheet "tally/internal/sheets/google"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting tally-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	rules := cli.LoadRulebook(logger, cfg.RulebookPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Recurring templates materialize into the local store; the sync sweep
	// carries them to the spreadsheet like any other write.
	reports := services.NewReportService(repo, rules, cfg.Channels)
	entries := services.NewEntryService(repo, rules, reports, cfg.Channels)
	recurring := services.NewRecurringProcessor(repo, entries)
	g.Go(func() error {
		return recurring.Run(ctx, cfg.RecurringInterval)
	})

	// The spreadsheet sync pipeline is optional: without a spreadsheet ID the
	// worker only materializes recurring templates.
	if cfg.GoogleSpreadsheetID != "" {
		if cfg.AMQPURL == "" {
			logger.Error("AMQP_URL is required when spreadsheet sync is enabled")
			os.Exit(1)
		}
		sheetsClient, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}

		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize)

		logger.Info("Performing startup sync check...")
		if err := syncWorker.StartupSyncCheck(ctx); err != nil {
			// Not fatal: the periodic sweep retries.
			logger.Error("Startup sync check failed", "error", err)
		}

		g.Go(func() error {
			return syncWorker.Run(ctx, amqpClient, cfg.SyncInterval)
		})
	} else {
		logger.Info("Spreadsheet sync disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
