package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/core"
	"tally/internal/rulebook"
	"tally/internal/sheets/memory"
)

var testChannels = []core.Channel{"user1", "user2", core.SharedChannel}

func newTestServices(t *testing.T) (*EntryService, *ReportService, *rulebook.Rulebook, *memory.Store) {
	t.Helper()
	rules, err := rulebook.Load(filepath.Join(t.TempDir(), "rulebook.toml"))
	if err != nil {
		t.Fatalf("load rulebook: %v", err)
	}
	store := memory.New()
	reports := NewReportService(store, rules, testChannels)
	entries := NewEntryService(store, rules, reports, testChannels)
	return entries, reports, rules, store
}

func TestAddExpenseClassifiesAndLearns(t *testing.T) {
	entries, _, rules, store := newTestServices(t)
	ctx := context.Background()

	// "Corner food truck" matches the Food keyword, not any exact store.
	e, status, err := entries.AddExpense(ctx, "user1", core.Expense{
		Date:   core.NewDate(2025, 6, 15),
		Amount: core.Money{Cents: 1200},
		Store:  "Corner food truck",
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if e.Category != "Food" {
		t.Fatalf("expected Food via keyword, got %q", e.Category)
	}
	if e.RowID == "" {
		t.Fatalf("expected assigned row id")
	}
	if status != nil {
		t.Fatalf("no budget configured, expected nil status, got %+v", status)
	}

	// The rulebook learned the store, so the next entry exact-matches.
	if got, matched := core.Classify("corner food truck", rules.Snapshot()); !matched || got != "Food" {
		t.Fatalf("rulebook did not learn the store: %q (matched=%v)", got, matched)
	}

	list, _ := store.ListExpenses(ctx, "user1")
	if len(list) != 1 || list[0].Category != "Food" {
		t.Fatalf("expense not stored as classified: %+v", list)
	}
}

func TestAddExpenseUnknownStoreFallsBack(t *testing.T) {
	entries, _, rules, _ := newTestServices(t)

	e, _, err := entries.AddExpense(context.Background(), "user1", core.Expense{
		Date:   core.NewDate(2025, 6, 15),
		Amount: core.Money{Cents: 500},
		Store:  "Mystery Vendor #42",
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if e.Category != rules.DefaultCategory() {
		t.Fatalf("expected default category %q, got %q", rules.DefaultCategory(), e.Category)
	}
}

func TestAddExpenseExplicitCategory(t *testing.T) {
	entries, _, _, _ := newTestServices(t)
	ctx := context.Background()

	e, _, err := entries.AddExpense(ctx, "user1", core.Expense{
		Date:     core.NewDate(2025, 6, 15),
		Amount:   core.Money{Cents: 500},
		Store:    "Supermarket",
		Category: "Fun",
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if e.Category != "Fun" {
		t.Fatalf("explicit category must win over classification, got %q", e.Category)
	}

	_, _, err = entries.AddExpense(ctx, "user1", core.Expense{
		Date:     core.NewDate(2025, 6, 15),
		Amount:   core.Money{Cents: 500},
		Store:    "Supermarket",
		Category: "No Such Category",
	})
	if !errors.Is(err, rulebook.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestAddExpenseRejectsUnknownChannel(t *testing.T) {
	entries, _, _, _ := newTestServices(t)
	_, _, err := entries.AddExpense(context.Background(), "user3", core.Expense{
		Date:   core.NewDate(2025, 6, 15),
		Amount: core.Money{Cents: 500},
		Store:  "Supermarket",
	})
	if !errors.Is(err, core.ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestAddExpenseReturnsBudgetStanding(t *testing.T) {
	entries, _, rules, _ := newTestServices(t)
	ctx := context.Background()

	if err := rules.SetBudget(core.Budget{
		Category: "Food",
		Amount:   core.Money{Cents: 50000},
		Period:   core.Monthly,
		Active:   true,
	}); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	_, status, err := entries.AddExpense(ctx, "user1", core.Expense{
		Date:     core.NewDate(2025, 6, 10),
		Amount:   core.Money{Cents: 45000},
		Store:    "Supermarket",
		Category: "Food",
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if status == nil {
		t.Fatalf("expected budget standing with an active budget")
	}
	if status.PercentUsed != 90 || status.Tier != core.TierWarning {
		t.Fatalf("expected 90%%/warning, got %+v", status)
	}
}

// Shared expenses count toward the personal channel's budget standing.
func TestBudgetStandingIncludesShared(t *testing.T) {
	entries, _, rules, _ := newTestServices(t)
	ctx := context.Background()

	if err := rules.SetBudget(core.Budget{
		Category: "Food",
		Amount:   core.Money{Cents: 10000},
		Period:   core.Monthly,
		Active:   true,
	}); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	if _, _, err := entries.AddExpense(ctx, core.SharedChannel, core.Expense{
		Date:     core.NewDate(2025, 6, 5),
		Amount:   core.Money{Cents: 6000},
		Store:    "Supermarket",
		Category: "Food",
	}); err != nil {
		t.Fatalf("add shared expense: %v", err)
	}

	_, status, err := entries.AddExpense(ctx, "user1", core.Expense{
		Date:     core.NewDate(2025, 6, 10),
		Amount:   core.Money{Cents: 5000},
		Store:    "Supermarket",
		Category: "Food",
	})
	if err != nil {
		t.Fatalf("add personal expense: %v", err)
	}
	if status == nil || status.Spent.Cents != 11000 {
		t.Fatalf("expected shared+personal spend 11000, got %+v", status)
	}
	if status.Tier != core.TierAlert {
		t.Fatalf("expected alert over budget, got %s", status.Tier)
	}
}

func TestAddIncome(t *testing.T) {
	entries, _, _, store := newTestServices(t)
	ctx := context.Background()

	in, err := entries.AddIncome(ctx, "user1", core.Income{
		Date:          core.NewDate(2025, 6, 1),
		Amount:        core.Money{Cents: 150000},
		Source:        "Salary",
		PaymentOption: "Bank Transfer",
	})
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	if in.RowID == "" {
		t.Fatalf("expected assigned row id")
	}
	if list, _ := store.ListIncome(ctx, "user1"); len(list) != 1 {
		t.Fatalf("income not stored: %+v", list)
	}
}

func TestPreviewDoesNotLearn(t *testing.T) {
	entries, _, rules, _ := newTestServices(t)

	category, matched := entries.Preview("corner food truck")
	if !matched || category != "Food" {
		t.Fatalf("expected Food keyword match, got %q (matched=%v)", category, matched)
	}
	// Preview must not register the store.
	if rules.Snapshot().HasStore("Food", "corner food truck") {
		t.Fatalf("preview must not mutate the rulebook")
	}
}
