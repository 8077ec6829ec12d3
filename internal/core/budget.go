package core

import (
	"errors"
	"fmt"
)

type (
	// Budget is a per-category spending limit renewing every period.
	Budget struct {
		Category string
		Amount   Money
		Period   PeriodKind
		Active   bool
	}

	// Thresholds are the percent-of-budget levels at which the status tier
	// escalates. Warning must not exceed Alert.
	Thresholds struct {
		Warning int
		Alert   int
	}

	// Tier is the three-level budget adherence status.
	Tier string

	// BudgetStatus is the derived adherence report for one category and
	// period. It is recomputed on every query and never persisted.
	BudgetStatus struct {
		Category    string
		PeriodStart Date
		PeriodEnd   Date
		Budgeted    Money
		Spent       Money
		Remaining   Money // negative when overspent, never clamped
		PercentUsed float64
		Tier        Tier

		// Pacing: how far through the period the reference date is, and the
		// end-of-period total projected from the spend rate so far.
		DaysElapsed  int
		DaysTotal    int
		ExpectedPace float64
		Projected    Money
	}
)

const (
	TierOK      Tier = "ok"
	TierWarning Tier = "warning"
	TierAlert   Tier = "alert"
)

// DefaultThresholds match the original tracker's out-of-the-box alerting.
var DefaultThresholds = Thresholds{Warning: 80, Alert: 100}

var ErrNoBudget = errors.New("no budget configured")

func (b Budget) Validate() error {
	if b.Category == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	return b.Period.Validate()
}

func (t Thresholds) Validate() error {
	if t.Warning < 0 || t.Alert < 0 {
		return errors.New("thresholds must be non-negative")
	}
	if t.Warning > t.Alert {
		return fmt.Errorf("warning threshold %d exceeds alert threshold %d", t.Warning, t.Alert)
	}
	return nil
}

// TierFor maps a percent-used value onto a tier. Boundaries belong to the
// higher tier: percent equal to the warning threshold is already a warning,
// equal to the alert threshold already an alert.
func (t Thresholds) TierFor(percentUsed float64) Tier {
	switch {
	case percentUsed >= float64(t.Alert):
		return TierAlert
	case percentUsed >= float64(t.Warning):
		return TierWarning
	default:
		return TierOK
	}
}

// Evaluate computes the adherence status of one budget against the expense
// set, for the period containing the reference date. Only expenses in the
// budget's category and inside the window count; there is no pro-rating.
// Callers must check budget existence first: a missing budget is not an
// evaluator input. A non-positive budget amount degrades to percent 0
// instead of dividing.
func Evaluate(b Budget, expenses []Expense, ref Date, th Thresholds) (BudgetStatus, error) {
	period, err := CurrentPeriod(b.Period, ref)
	if err != nil {
		return BudgetStatus{}, err
	}

	var spent int64
	for _, e := range expenses {
		if e.Category == b.Category && period.Contains(e.Date) {
			spent += e.Amount.Cents
		}
	}

	st := BudgetStatus{
		Category:    b.Category,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Budgeted:    b.Amount,
		Spent:       Money{Cents: spent},
		Remaining:   Money{Cents: b.Amount.Cents - spent},
		DaysTotal:   period.Days(),
	}

	if b.Amount.Cents > 0 {
		st.PercentUsed = 100 * float64(spent) / float64(b.Amount.Cents)
	}
	st.Tier = th.TierFor(st.PercentUsed)

	// A reference date before the period start counts as zero elapsed days,
	// which falls through to the zero-elapsed projection below.
	st.DaysElapsed = period.Start.DaysUntil(ref)
	if st.DaysTotal > 0 {
		st.ExpectedPace = float64(st.DaysElapsed) / float64(st.DaysTotal)
	}
	if st.DaysElapsed > 0 {
		st.Projected = Money{Cents: spent * int64(st.DaysTotal) / int64(st.DaysElapsed)}
	} else {
		st.Projected = st.Spent
	}

	return st, nil
}

// Overall aggregates per-category statuses into a whole-portfolio status:
// budgeted and spent sum up, and the same threshold logic applies to the
// combined percent. The window fields carry the widest span seen.
func Overall(statuses []BudgetStatus, th Thresholds) BudgetStatus {
	var out BudgetStatus
	out.Category = "Overall"
	for i, s := range statuses {
		out.Budgeted.Cents += s.Budgeted.Cents
		out.Spent.Cents += s.Spent.Cents
		if i == 0 || s.PeriodStart.Before(out.PeriodStart.Time) {
			out.PeriodStart = s.PeriodStart
		}
		if i == 0 || s.PeriodEnd.After(out.PeriodEnd.Time) {
			out.PeriodEnd = s.PeriodEnd
		}
	}
	out.Remaining = Money{Cents: out.Budgeted.Cents - out.Spent.Cents}
	if out.Budgeted.Cents > 0 {
		out.PercentUsed = 100 * float64(out.Spent.Cents) / float64(out.Budgeted.Cents)
	}
	out.Tier = th.TierFor(out.PercentUsed)
	return out
}
