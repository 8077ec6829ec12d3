// Package worker mirrors locally stored transactions to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets"
	"tally/internal/storage"
)

// RemoteStore is the spreadsheet side of the sync pipeline.
type RemoteStore interface {
	sheets.ExpenseAppender
	sheets.ExpenseUpdater
	sheets.ExpenseDeleter
	sheets.IncomeAppender
	sheets.IncomeUpdater
	sheets.IncomeDeleter
}

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	remote    RemoteStore
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, remote RemoteStore, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		remote:    remote,
		batchSize: batchSize,
	}
}

// Run consumes the sync queue and periodically sweeps the pending table as a
// backup for lost messages. It blocks until ctx ends or one side fails.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, sweepInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
			return w.HandleSyncMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPendingTransactions(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			slog.WarnContext(ctx, "Transaction vanished before sync, dropping message", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	// A later write produced its own message; let that one carry the row.
	if tx.Version > msg.Version {
		slog.InfoContext(ctx, "Skipping stale sync message",
			"id", msg.ID,
			"message_version", msg.Version,
			"stored_version", tx.Version)
		return nil
	}

	return w.syncTransaction(ctx, tx)
}

// ProcessPendingTransactions sweeps transactions that never got synced.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains the pending backlog accumulated during downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	synced := 0
	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, "error", err)
			if markErr := w.storage.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
			}
			continue
		}
		if err := w.syncTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sweep completed", "total", len(pending), "synced", synced)
	return nil
}

// syncTransaction mirrors one stored row to the spreadsheet: deletes remove
// the remote row, first syncs append, later syncs update in place.
func (w *SyncWorker) syncTransaction(ctx context.Context, tx storage.Transaction) error {
	switch {
	case tx.Deleted:
		return w.syncDelete(ctx, tx)
	case tx.SheetRow == "":
		return w.syncAppend(ctx, tx)
	default:
		return w.syncUpdate(ctx, tx)
	}
}

func (w *SyncWorker) syncAppend(ctx context.Context, tx storage.Transaction) error {
	var (
		ref string
		err error
	)
	if tx.Kind == core.KindIncome {
		ref, err = w.remote.AppendIncome(ctx, tx.Channel, tx.Income())
	} else {
		ref, err = w.remote.AppendExpense(ctx, tx.Channel, tx.Expense())
	}
	if err != nil {
		w.markError(ctx, tx.ID)
		return fmt.Errorf("append to spreadsheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, tx.ID, ref); err != nil {
		// The sync itself worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction appended to spreadsheet",
		"id", tx.ID,
		"channel", tx.Channel,
		"kind", tx.Kind,
		"sheet_row", ref)
	return nil
}

func (w *SyncWorker) syncUpdate(ctx context.Context, tx storage.Transaction) error {
	var err error
	if tx.Kind == core.KindIncome {
		err = w.remote.UpdateIncome(ctx, tx.Channel, tx.SheetRow, tx.Income())
	} else {
		err = w.remote.UpdateExpense(ctx, tx.Channel, tx.SheetRow, tx.Expense())
	}
	if errors.Is(err, sheets.ErrRowNotFound) {
		// The remote row is gone (manual cleanup); fall back to append.
		slog.WarnContext(ctx, "Remote row missing on update, appending instead",
			"id", tx.ID, "sheet_row", tx.SheetRow)
		return w.syncAppend(ctx, tx)
	}
	if err != nil {
		w.markError(ctx, tx.ID)
		return fmt.Errorf("update spreadsheet row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, tx.ID, ""); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction updated on spreadsheet",
		"id", tx.ID,
		"channel", tx.Channel,
		"kind", tx.Kind,
		"sheet_row", tx.SheetRow)
	return nil
}

func (w *SyncWorker) syncDelete(ctx context.Context, tx storage.Transaction) error {
	if tx.SheetRow == "" {
		// Never reached the spreadsheet; nothing to remove remotely.
		if err := w.storage.MarkSynced(ctx, tx.ID, ""); err != nil {
			slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
		}
		return nil
	}

	var err error
	if tx.Kind == core.KindIncome {
		err = w.remote.DeleteIncome(ctx, tx.Channel, tx.SheetRow)
	} else {
		err = w.remote.DeleteExpense(ctx, tx.Channel, tx.SheetRow)
	}
	if err != nil && !errors.Is(err, sheets.ErrRowNotFound) {
		w.markError(ctx, tx.ID)
		return fmt.Errorf("delete spreadsheet row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, tx.ID, ""); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction deleted from spreadsheet",
		"id", tx.ID,
		"channel", tx.Channel,
		"kind", tx.Kind,
		"sheet_row", tx.SheetRow)
	return nil
}

func (w *SyncWorker) markError(ctx context.Context, id int64) {
	if err := w.storage.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}
