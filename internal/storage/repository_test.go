package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testExpense(day int) core.Expense {
	return core.Expense{
		Date:          core.NewDate(2025, 6, day),
		Amount:        core.Money{Cents: 1250},
		Store:         "Supermarket",
		Category:      "Food",
		PaymentOption: "Debit Card",
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.AppendExpense(ctx, "user1", testExpense(15))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	list, err := repo.ListExpenses(ctx, "user1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(list))
	}
	got := list[0]
	if got.RowID != id || got.Amount.Cents != 1250 || got.Store != "Supermarket" || got.Category != "Food" {
		t.Fatalf("unexpected expense: %+v", got)
	}
	if got.Date.Day() != 15 || got.Date.Month() != 6 || got.Date.Year() != 2025 {
		t.Fatalf("date did not survive the round trip: %v", got.Date)
	}

	// Other channels see nothing.
	if other, _ := repo.ListExpenses(ctx, "shared"); len(other) != 0 {
		t.Fatalf("channel isolation broken: %+v", other)
	}
}

func TestUpdateBumpsVersionAndRequeues(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.AppendExpense(ctx, "user1", testExpense(1))
	if err := repo.MarkSynced(ctx, mustID(t, id), "7"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if pending, _ := repo.GetPendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected empty sync queue after MarkSynced, got %+v", pending)
	}

	updated := testExpense(1)
	updated.Amount = core.Money{Cents: 9900}
	if err := repo.UpdateExpense(ctx, "user1", id, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	tx, err := repo.GetTransaction(ctx, mustID(t, id))
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if tx.Version != 2 || tx.SheetRow != "7" || tx.Amount.Cents != 9900 {
		t.Fatalf("unexpected transaction after update: %+v", tx)
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("get pending sync: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tx.ID || pending[0].Deleted {
		t.Fatalf("expected the update back in the sync queue, got %+v", pending)
	}
}

func TestDeleteIsSoftAndQueued(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.AppendExpense(ctx, "user1", testExpense(1))
	if err := repo.DeleteExpense(ctx, "user1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if list, _ := repo.ListExpenses(ctx, "user1"); len(list) != 0 {
		t.Fatalf("deleted expense still listed: %+v", list)
	}
	tx, err := repo.GetTransaction(ctx, mustID(t, id))
	if err != nil {
		t.Fatalf("deleted row must stay readable for the sync worker: %v", err)
	}
	if !tx.Deleted {
		t.Fatalf("expected deleted flag set: %+v", tx)
	}

	if err := repo.DeleteExpense(ctx, "user1", id); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound on double delete, got %v", err)
	}
}

func TestRowNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpdateExpense(ctx, "user1", "42", testExpense(1)); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("update: expected ErrRowNotFound, got %v", err)
	}
	if err := repo.DeleteIncome(ctx, "user1", "abc"); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("delete with bad id: expected ErrRowNotFound, got %v", err)
	}
	if _, err := repo.GetTransaction(ctx, 42); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("get: expected ErrRowNotFound, got %v", err)
	}
}

func TestIncomeRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := core.Income{
		Date:          core.NewDate(2025, 6, 1),
		Amount:        core.Money{Cents: 150000},
		Source:        "Salary",
		PaymentOption: "Bank Transfer",
	}
	id, err := repo.AppendIncome(ctx, "shared", in)
	if err != nil {
		t.Fatalf("append income: %v", err)
	}
	list, err := repo.ListIncome(ctx, "shared")
	if err != nil {
		t.Fatalf("list income: %v", err)
	}
	if len(list) != 1 || list[0].RowID != id || list[0].Source != "Salary" {
		t.Fatalf("unexpected income list: %+v", list)
	}
	// The income row must not leak into the expense partition.
	if exp, _ := repo.ListExpenses(ctx, "shared"); len(exp) != 0 {
		t.Fatalf("kind isolation broken: %+v", exp)
	}
}

func TestPendingSyncOrderAndErrorParking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, _ := repo.AppendExpense(ctx, "user1", testExpense(1))
	second, _ := repo.AppendExpense(ctx, "user2", testExpense(2))

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("get pending sync: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != mustID(t, first) || pending[1].ID != mustID(t, second) {
		t.Fatalf("expected oldest-first queue, got %+v", pending)
	}

	// Rows parked with a sync error leave the queue until the next write.
	if err := repo.MarkSyncError(ctx, mustID(t, first)); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}
	pending, _ = repo.GetPendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].ID != mustID(t, second) {
		t.Fatalf("expected errored row out of the queue, got %+v", pending)
	}
}

func TestRecurringTemplateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tpl := core.RecurringTemplate{
		Channel:   "user1",
		Amount:    core.Money{Cents: 4500},
		Store:     "Gym",
		Category:  "Sport",
		Frequency: core.FrequencyMonthly,
		StartDate: core.NewDate(2025, 1, 5),
		EndDate:   core.NewDate(2025, 12, 5),
		Active:    true,
	}
	id, err := repo.CreateRecurringTemplate(ctx, tpl)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	got, err := repo.GetRecurringTemplate(ctx, id)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if got.Store != "Gym" || got.Amount.Cents != 4500 || got.Frequency != core.FrequencyMonthly {
		t.Fatalf("unexpected template: %+v", got)
	}
	if got.StartDate.String() != "05-01-2025" || got.EndDate.String() != "05-12-2025" {
		t.Fatalf("dates did not survive the round trip: start=%v end=%v", got.StartDate, got.EndDate)
	}

	// Open-ended templates keep a zero end date.
	tpl.EndDate = core.Date{}
	id2, err := repo.CreateRecurringTemplate(ctx, tpl)
	if err != nil {
		t.Fatalf("create open-ended template: %v", err)
	}
	open, err := repo.GetRecurringTemplate(ctx, id2)
	if err != nil {
		t.Fatalf("get open-ended template: %v", err)
	}
	if !open.EndDate.IsZero() {
		t.Fatalf("expected zero end date, got %v", open.EndDate)
	}

	if err := repo.SetRecurringActive(ctx, id, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, err := repo.ListRecurringTemplates(ctx, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != id2 {
		t.Fatalf("expected only the open-ended template active, got %+v", active)
	}
}

func mustID(t *testing.T, rowID string) int64 {
	t.Helper()
	id, err := parseID(rowID)
	if err != nil {
		t.Fatalf("bad row id %q: %v", rowID, err)
	}
	return id
}
