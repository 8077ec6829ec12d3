package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/sheets/google"
	"tally/internal/sheets/memory"
	"tally/internal/storage"
)

// New builds the backend described by cfg.
func New(ctx context.Context, cfg Config) (*BackendResult, error) {
	switch cfg.Type {
	case BackendSQLite:
		return createSQLiteBackend(ctx, cfg)
	case BackendSheets:
		return createSheetsBackend(ctx)
	case BackendMemory:
		return createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func createSQLiteBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("creating sqlite repository: %w", err)
	}

	// Without AMQP the repository still records writes in the sync queue so a
	// worker sweep can pick them up later.
	if cfg.AMQPURL == "" {
		slog.InfoContext(ctx, "sqlite backend ready without sync publishing")
		return &BackendResult{
			Backend:   repo,
			Recurring: repo,
			Cleanup:   repo.Close,
		}, nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("connecting to amqp: %w", err)
	}

	slog.InfoContext(ctx, "sqlite backend ready with sync publishing",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	return &BackendResult{
		Backend:   newSyncedStore(repo, client),
		Recurring: repo,
		Cleanup: func() error {
			if err := client.Close(); err != nil {
				slog.Warn("closing amqp client", "error", err)
			}
			return repo.Close()
		},
	}, nil
}

func createSheetsBackend(ctx context.Context) (*BackendResult, error) {
	client, err := google.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	return &BackendResult{
		Backend: client,
		Cleanup: func() error { return nil },
	}, nil
}

func createMemoryBackend() (*BackendResult, error) {
	return &BackendResult{
		Backend: memory.New(),
		Cleanup: func() error { return nil },
	}, nil
}
