package core

import (
	"math"
	"testing"
)

func expenseOn(d Date, category string, cents int64) Expense {
	return Expense{Date: d, Amount: Money{Cents: cents}, Store: "store", Category: category}
}

func TestEvaluateNoSpend(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 50000}, Period: Monthly, Active: true}
	st, err := Evaluate(b, nil, NewDate(2025, 6, 15), DefaultThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Spent.Cents != 0 || st.PercentUsed != 0 || st.Tier != TierOK {
		t.Fatalf("expected untouched budget to be ok, got %+v", st)
	}
	if st.Remaining.Cents != 50000 {
		t.Fatalf("expected remaining 50000, got %d", st.Remaining.Cents)
	}
}

// Config scenario: Food budget 500 monthly, thresholds 80/100, 450 spent
// inside the month.
func TestEvaluateWarningScenario(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 50000}, Period: Monthly, Active: true}
	expenses := []Expense{
		expenseOn(NewDate(2025, 6, 3), "Food", 20000),
		expenseOn(NewDate(2025, 6, 10), "Food", 15000),
		expenseOn(NewDate(2025, 6, 14), "Food", 10000),
		expenseOn(NewDate(2025, 5, 31), "Food", 9999),       // outside the window
		expenseOn(NewDate(2025, 7, 1), "Food", 9999),        // outside the window
		expenseOn(NewDate(2025, 6, 10), "Transport", 30000), // other category
	}
	st, err := Evaluate(b, expenses, NewDate(2025, 6, 15), DefaultThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Spent.Cents != 45000 {
		t.Fatalf("expected spent 45000, got %d", st.Spent.Cents)
	}
	if st.Remaining.Cents != 5000 {
		t.Fatalf("expected remaining 5000, got %d", st.Remaining.Cents)
	}
	if st.PercentUsed != 90 {
		t.Fatalf("expected 90%% used, got %v", st.PercentUsed)
	}
	if st.Tier != TierWarning {
		t.Fatalf("expected warning tier, got %s", st.Tier)
	}
}

func TestEvaluateOverspend(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 10000}, Period: Monthly, Active: true}
	expenses := []Expense{expenseOn(NewDate(2025, 6, 5), "Food", 15000)}
	st, err := Evaluate(b, expenses, NewDate(2025, 6, 15), DefaultThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.PercentUsed != 150 {
		t.Fatalf("expected 150%% used (unclamped), got %v", st.PercentUsed)
	}
	if st.Remaining.Cents != -5000 {
		t.Fatalf("expected remaining -5000 (unclamped), got %d", st.Remaining.Cents)
	}
	if st.Tier != TierAlert {
		t.Fatalf("expected alert tier, got %s", st.Tier)
	}
}

// Threshold boundaries belong to the higher tier.
func TestTierBoundaries(t *testing.T) {
	th := Thresholds{Warning: 80, Alert: 100}
	cases := []struct {
		percent float64
		want    Tier
	}{
		{0, TierOK},
		{79.999, TierOK},
		{80, TierWarning},
		{99.999, TierWarning},
		{100, TierAlert},
		{250, TierAlert},
	}
	for _, tc := range cases {
		if got := th.TierFor(tc.percent); got != tc.want {
			t.Fatalf("%v%%: expected %s, got %s", tc.percent, tc.want, got)
		}
	}
}

func TestEvaluateZeroAmountGuard(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 0}, Period: Monthly, Active: true}
	expenses := []Expense{expenseOn(NewDate(2025, 6, 5), "Food", 5000)}
	st, err := Evaluate(b, expenses, NewDate(2025, 6, 15), DefaultThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.PercentUsed != 0 {
		t.Fatalf("zero-amount budget must degrade to 0%%, got %v", st.PercentUsed)
	}
}

func TestEvaluatePacing(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 30000}, Period: Monthly, Active: true}
	expenses := []Expense{expenseOn(NewDate(2025, 6, 5), "Food", 10000)}

	// June 10th: 10 of 30 days elapsed.
	st, err := Evaluate(b, expenses, NewDate(2025, 6, 10), DefaultThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DaysElapsed != 10 || st.DaysTotal != 30 {
		t.Fatalf("expected 10/30 days, got %d/%d", st.DaysElapsed, st.DaysTotal)
	}
	if math.Abs(st.ExpectedPace-1.0/3.0) > 1e-9 {
		t.Fatalf("expected pace 1/3, got %v", st.ExpectedPace)
	}
	// 10000 cents over 10 days projects to 30000 over the full month.
	if st.Projected.Cents != 30000 {
		t.Fatalf("expected projection 30000, got %d", st.Projected.Cents)
	}
}

// On the first day of the period the projection extrapolates from a single
// elapsed day; a reference date before the period start clamps to zero
// elapsed days at the DaysUntil level.
func TestEvaluateFirstDayProjection(t *testing.T) {
	b := Budget{Category: "Food", Amount: Money{Cents: 70000}, Period: Weekly, Active: true}
	monday := NewDate(2025, 6, 9)
	expenses := []Expense{expenseOn(monday, "Food", 1000)}
	st, err := Evaluate(b, expenses, monday, DefaultThresholds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.DaysElapsed != 1 || st.DaysTotal != 7 {
		t.Fatalf("expected 1/7 days, got %d/%d", st.DaysElapsed, st.DaysTotal)
	}
	if st.Projected.Cents != 7000 {
		t.Fatalf("expected projection 7000, got %d", st.Projected.Cents)
	}
	if got := NewDate(2025, 6, 1).DaysUntil(NewDate(2025, 5, 20)); got != 0 {
		t.Fatalf("expected clamped 0 days, got %d", got)
	}
}

func TestOverallAggregation(t *testing.T) {
	th := DefaultThresholds
	statuses := []BudgetStatus{
		{Category: "Food", Budgeted: Money{Cents: 50000}, Spent: Money{Cents: 45000},
			PeriodStart: NewDate(2025, 6, 1), PeriodEnd: NewDate(2025, 6, 30)},
		{Category: "Transport", Budgeted: Money{Cents: 10000}, Spent: Money{Cents: 3000},
			PeriodStart: NewDate(2025, 6, 1), PeriodEnd: NewDate(2025, 6, 30)},
	}
	overall := Overall(statuses, th)
	if overall.Budgeted.Cents != 60000 || overall.Spent.Cents != 48000 {
		t.Fatalf("expected 60000/48000, got %d/%d", overall.Budgeted.Cents, overall.Spent.Cents)
	}
	if overall.PercentUsed != 80 {
		t.Fatalf("expected 80%%, got %v", overall.PercentUsed)
	}
	if overall.Tier != TierWarning {
		t.Fatalf("expected warning at exactly the warning threshold, got %s", overall.Tier)
	}
	if overall.Remaining.Cents != 12000 {
		t.Fatalf("expected remaining 12000, got %d", overall.Remaining.Cents)
	}
}

func TestOverallEmpty(t *testing.T) {
	overall := Overall(nil, DefaultThresholds)
	if overall.PercentUsed != 0 || overall.Tier != TierOK {
		t.Fatalf("empty overall must be 0%%/ok, got %+v", overall)
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Category: "Food", Amount: Money{Cents: 100}, Period: Weekly, Active: true}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{Category: "", Amount: Money{Cents: 100}, Period: Monthly},
		{Category: "Food", Amount: Money{Cents: 0}, Period: Monthly},
		{Category: "Food", Amount: Money{Cents: -1}, Period: Monthly},
		{Category: "Food", Amount: Money{Cents: 100}, Period: "yearly"},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := (Thresholds{Warning: 80, Alert: 100}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Thresholds{Warning: 110, Alert: 100}).Validate(); err == nil {
		t.Fatalf("expected error when warning exceeds alert")
	}
	if err := (Thresholds{Warning: -1, Alert: 100}).Validate(); err == nil {
		t.Fatalf("expected error for negative threshold")
	}
}
