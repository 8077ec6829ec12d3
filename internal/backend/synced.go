package backend

import (
	"context"
	"log/slog"
	"strconv"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

// syncedStore wraps the SQLite repository and publishes a sync message after
// every successful write. Publishing is best effort: the repository's pending
// queue already holds the row, so a failed publish only delays the sync until
// the worker's next sweep.
type syncedStore struct {
	repo   *storage.SQLiteRepository
	client *amqp.Client
}

var _ Backend = (*syncedStore)(nil)

func newSyncedStore(repo *storage.SQLiteRepository, client *amqp.Client) *syncedStore {
	return &syncedStore{repo: repo, client: client}
}

func (s *syncedStore) AppendExpense(ctx context.Context, ch core.Channel, e core.Expense) (string, error) {
	rowID, err := s.repo.AppendExpense(ctx, ch, e)
	if err != nil {
		return "", err
	}
	s.publishByRowID(ctx, rowID, 1)
	return rowID, nil
}

func (s *syncedStore) AppendIncome(ctx context.Context, ch core.Channel, in core.Income) (string, error) {
	rowID, err := s.repo.AppendIncome(ctx, ch, in)
	if err != nil {
		return "", err
	}
	s.publishByRowID(ctx, rowID, 1)
	return rowID, nil
}

func (s *syncedStore) ListExpenses(ctx context.Context, ch core.Channel) ([]core.Expense, error) {
	return s.repo.ListExpenses(ctx, ch)
}

func (s *syncedStore) ListIncome(ctx context.Context, ch core.Channel) ([]core.Income, error) {
	return s.repo.ListIncome(ctx, ch)
}

func (s *syncedStore) UpdateExpense(ctx context.Context, ch core.Channel, rowID string, e core.Expense) error {
	if err := s.repo.UpdateExpense(ctx, ch, rowID, e); err != nil {
		return err
	}
	s.publishCurrent(ctx, rowID)
	return nil
}

func (s *syncedStore) UpdateIncome(ctx context.Context, ch core.Channel, rowID string, in core.Income) error {
	if err := s.repo.UpdateIncome(ctx, ch, rowID, in); err != nil {
		return err
	}
	s.publishCurrent(ctx, rowID)
	return nil
}

func (s *syncedStore) DeleteExpense(ctx context.Context, ch core.Channel, rowID string) error {
	if err := s.repo.DeleteExpense(ctx, ch, rowID); err != nil {
		return err
	}
	s.publishCurrent(ctx, rowID)
	return nil
}

func (s *syncedStore) DeleteIncome(ctx context.Context, ch core.Channel, rowID string) error {
	if err := s.repo.DeleteIncome(ctx, ch, rowID); err != nil {
		return err
	}
	s.publishCurrent(ctx, rowID)
	return nil
}

func (s *syncedStore) publishByRowID(ctx context.Context, rowID string, version int64) {
	id, err := strconv.ParseInt(rowID, 10, 64)
	if err != nil {
		slog.WarnContext(ctx, "skipping sync publish for unparsable row id", "row_id", rowID)
		return
	}
	if err := s.client.PublishTransactionSync(ctx, id, version); err != nil {
		slog.WarnContext(ctx, "sync publish failed, row stays queued for sweep",
			"transaction_id", id,
			"error", err)
	}
}

// publishCurrent reads the row's stored version after an update or delete so
// the message carries the version the write produced, not a stale one.
func (s *syncedStore) publishCurrent(ctx context.Context, rowID string) {
	id, err := strconv.ParseInt(rowID, 10, 64)
	if err != nil {
		slog.WarnContext(ctx, "skipping sync publish for unparsable row id", "row_id", rowID)
		return
	}
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "reading transaction for sync publish", "transaction_id", id, "error", err)
		return
	}
	if err := s.client.PublishTransactionSync(ctx, id, tx.Version); err != nil {
		slog.WarnContext(ctx, "sync publish failed, row stays queued for sweep",
			"transaction_id", id,
			"error", err)
	}
}
