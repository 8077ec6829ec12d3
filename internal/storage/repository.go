// Package storage persists transactions in SQLite. It implements the sheets
// ports on a single transactions table partitioned by channel and kind, and
// keeps a sync queue so a worker can mirror local writes to the spreadsheet.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tally/internal/core"
	ports "tally/internal/sheets"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// Ensure interface conformance
var (
	_ ports.ExpenseAppender = (*SQLiteRepository)(nil)
	_ ports.IncomeAppender  = (*SQLiteRepository)(nil)
	_ ports.ExpenseLister   = (*SQLiteRepository)(nil)
	_ ports.IncomeLister    = (*SQLiteRepository)(nil)
	_ ports.ExpenseUpdater  = (*SQLiteRepository)(nil)
	_ ports.ExpenseDeleter  = (*SQLiteRepository)(nil)
	_ ports.IncomeUpdater   = (*SQLiteRepository)(nil)
	_ ports.IncomeDeleter   = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) AppendExpense(ctx context.Context, ch core.Channel, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (channel, kind, date, amount_cents, store, category, payment_option, card)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ch), string(core.KindExpenses), e.Date.String(), e.Amount.Cents,
		e.Store, e.Category, e.PaymentOption, e.Card)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"channel", ch,
		"store", e.Store,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)

	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) AppendIncome(ctx context.Context, ch core.Channel, in core.Income) (string, error) {
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (channel, kind, date, amount_cents, source, payment_option)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(ch), string(core.KindIncome), in.Date.String(), in.Amount.Cents,
		in.Source, in.PaymentOption)
	if err != nil {
		return "", fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("insert income id: %w", err)
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		"id", id,
		"channel", ch,
		"source", in.Source,
		"amount_cents", in.Amount.Cents)

	return strconv.FormatInt(id, 10), nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, ch core.Channel) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, amount_cents, store, category, payment_option, card
		FROM transactions
		WHERE channel = ? AND kind = ? AND deleted = 0
		ORDER BY id`,
		string(ch), string(core.KindExpenses))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			id      int64
			rawDate string
			e       core.Expense
		)
		if err := rows.Scan(&id, &rawDate, &e.Amount.Cents, &e.Store, &e.Category, &e.PaymentOption, &e.Card); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		date, err := core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("expense %d has invalid date %q: %w", id, rawDate, err)
		}
		e.RowID = strconv.FormatInt(id, 10)
		e.Date = date
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListIncome(ctx context.Context, ch core.Channel) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, amount_cents, source, payment_option
		FROM transactions
		WHERE channel = ? AND kind = ? AND deleted = 0
		ORDER BY id`,
		string(ch), string(core.KindIncome))
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			id      int64
			rawDate string
			in      core.Income
		)
		if err := rows.Scan(&id, &rawDate, &in.Amount.Cents, &in.Source, &in.PaymentOption); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		date, err := core.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("income %d has invalid date %q: %w", id, rawDate, err)
		}
		in.RowID = strconv.FormatInt(id, 10)
		in.Date = date
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, ch core.Channel, rowID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	id, err := parseID(rowID)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount_cents = ?, store = ?, category = ?, payment_option = ?, card = ?,
		    version = version + 1, synced = 0, sync_error = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND channel = ? AND kind = ? AND deleted = 0`,
		e.Date.String(), e.Amount.Cents, e.Store, e.Category, e.PaymentOption, e.Card,
		id, string(ch), string(core.KindExpenses))
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, ch core.Channel, rowID string, in core.Income) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	id, err := parseID(rowID)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount_cents = ?, source = ?, payment_option = ?,
		    version = version + 1, synced = 0, sync_error = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND channel = ? AND kind = ? AND deleted = 0`,
		in.Date.String(), in.Amount.Cents, in.Source, in.PaymentOption,
		id, string(ch), string(core.KindIncome))
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ch core.Channel, rowID string) error {
	return r.softDelete(ctx, ch, core.KindExpenses, rowID)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, ch core.Channel, rowID string) error {
	return r.softDelete(ctx, ch, core.KindIncome, rowID)
}

// softDelete keeps the row so the sync worker can still propagate the delete
// to the spreadsheet before the record disappears from every view.
func (r *SQLiteRepository) softDelete(ctx context.Context, ch core.Channel, kind core.Kind, rowID string) error {
	id, err := parseID(rowID)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET deleted = 1, version = version + 1, synced = 0, sync_error = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND channel = ? AND kind = ? AND deleted = 0`,
		id, string(ch), string(kind))
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// Transaction is the raw stored row, used by the sync worker.
type Transaction struct {
	ID            int64
	Channel       core.Channel
	Kind          core.Kind
	Date          core.Date
	Amount        core.Money
	Store         string
	Category      string
	Source        string
	PaymentOption string
	Card          string
	Version       int64
	SheetRow      string
	Deleted       bool
	CreatedAt     time.Time
}

// Expense converts the row into the core record the spreadsheet stores.
func (t Transaction) Expense() core.Expense {
	return core.Expense{
		RowID:         t.SheetRow,
		Date:          t.Date,
		Amount:        t.Amount,
		Store:         t.Store,
		Category:      t.Category,
		PaymentOption: t.PaymentOption,
		Card:          t.Card,
	}
}

func (t Transaction) Income() core.Income {
	return core.Income{
		RowID:         t.SheetRow,
		Date:          t.Date,
		Amount:        t.Amount,
		Source:        t.Source,
		PaymentOption: t.PaymentOption,
	}
}

// GetTransaction retrieves a single stored row by ID, deleted rows included.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, channel, kind, date, amount_cents, store, category, source,
		       payment_option, card, version, sheet_row, deleted, created_at
		FROM transactions WHERE id = ?`, id)

	var (
		t       Transaction
		rawDate string
		deleted int64
	)
	err := row.Scan(&t.ID, &t.Channel, &t.Kind, &rawDate, &t.Amount.Cents,
		&t.Store, &t.Category, &t.Source, &t.PaymentOption, &t.Card,
		&t.Version, &t.SheetRow, &deleted, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrRowNotFound)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.Deleted = deleted != 0
	if t.Date, err = core.ParseDate(rawDate); err != nil {
		return Transaction{}, fmt.Errorf("transaction %d has invalid date %q: %w", id, rawDate, err)
	}
	return t, nil
}

// PendingSync is the minimal row shape queued for spreadsheet sync.
type PendingSync struct {
	ID        int64
	Channel   core.Channel
	Kind      core.Kind
	Version   int64
	Deleted   bool
	CreatedAt time.Time
}

// GetPendingSync returns transactions not yet mirrored to the spreadsheet,
// oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, channel, kind, version, deleted, created_at
		FROM transactions
		WHERE synced = 0 AND sync_error = 0
		ORDER BY id
		LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var (
			p       PendingSync
			deleted int64
		)
		if err := rows.Scan(&p.ID, &p.Channel, &p.Kind, &p.Version, &deleted, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		p.Deleted = deleted != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records the spreadsheet row a transaction landed in. An empty
// sheetRow keeps the previously stored one (updates reuse the existing row).
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, sheetRow string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET synced = 1, sync_error = 0,
		    sheet_row = CASE WHEN ? = '' THEN sheet_row ELSE ? END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, sheetRow, sheetRow, id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "sheet_row", sheetRow)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_error = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func parseID(rowID string) (int64, error) {
	id, err := strconv.ParseInt(rowID, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("row id %q: %w", rowID, ports.ErrRowNotFound)
	}
	return id, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ports.ErrRowNotFound
	}
	return nil
}
