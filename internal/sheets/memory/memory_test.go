package memory

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

func sampleExpense(day int) core.Expense {
	return core.Expense{
		Date:     core.NewDate(2025, 6, day),
		Amount:   core.Money{Cents: 1000},
		Store:    "Supermarket",
		Category: "Food",
	}
}

func TestAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.AppendExpense(ctx, "user1", sampleExpense(1))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := s.AppendExpense(ctx, "user1", sampleExpense(2))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("row ids must be unique, got %s twice", id1)
	}

	list, err := s.ListExpenses(ctx, "user1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].RowID != id1 || list[1].RowID != id2 {
		t.Fatalf("expected stored order with assigned ids, got %+v", list)
	}

	// Partitions are independent.
	other, err := s.ListExpenses(ctx, "user2")
	if err != nil || len(other) != 0 {
		t.Fatalf("expected empty partition for user2, got %v (%v)", other, err)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	bad := sampleExpense(1)
	bad.Category = ""
	if _, err := s.AppendExpense(context.Background(), "user1", bad); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestUpdateByRowID(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.AppendExpense(ctx, "user1", sampleExpense(1))

	updated := sampleExpense(1)
	updated.Amount = core.Money{Cents: 2500}
	if err := s.UpdateExpense(ctx, "user1", id, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := s.ListExpenses(ctx, "user1")
	if list[0].Amount.Cents != 2500 || list[0].RowID != id {
		t.Fatalf("expected in-place update keeping the row id, got %+v", list[0])
	}

	if err := s.UpdateExpense(ctx, "user1", "mem:user1:expenses:999", updated); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
}

// Row ids stay stable when earlier rows are deleted.
func TestDeleteKeepsIDsStable(t *testing.T) {
	s := New()
	ctx := context.Background()
	id1, _ := s.AppendExpense(ctx, "user1", sampleExpense(1))
	id2, _ := s.AppendExpense(ctx, "user1", sampleExpense(2))

	if err := s.DeleteExpense(ctx, "user1", id1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListExpenses(ctx, "user1")
	if len(list) != 1 || list[0].RowID != id2 {
		t.Fatalf("expected only %s to remain, got %+v", id2, list)
	}

	id3, _ := s.AppendExpense(ctx, "user1", sampleExpense(3))
	if id3 == id1 || id3 == id2 {
		t.Fatalf("row ids must not be reused, got %s", id3)
	}

	if err := s.DeleteExpense(ctx, "user1", id1); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound for deleted row, got %v", err)
	}
}

func TestIncomePartition(t *testing.T) {
	s := New()
	ctx := context.Background()
	in := core.Income{Date: core.NewDate(2025, 6, 1), Amount: core.Money{Cents: 150000}, Source: "Salary", PaymentOption: "Bank Transfer"}
	id, err := s.AppendIncome(ctx, "shared", in)
	if err != nil {
		t.Fatalf("append income: %v", err)
	}
	list, _ := s.ListIncome(ctx, "shared")
	if len(list) != 1 || list[0].Source != "Salary" {
		t.Fatalf("unexpected income list: %+v", list)
	}
	if err := s.DeleteIncome(ctx, "shared", id); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	// Expense partition of the same channel is untouched by income ops.
	if exp, _ := s.ListExpenses(ctx, "shared"); len(exp) != 0 {
		t.Fatalf("expense partition leaked income data")
	}
}
