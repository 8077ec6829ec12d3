package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tally/internal/core"
	"tally/internal/rulebook"
)

// ReportService builds the combined personal+shared view of a channel and
// evaluates its budgets against it.
type ReportService struct {
	store    Store
	rules    *rulebook.Rulebook
	channels []core.Channel
}

func NewReportService(store Store, rules *rulebook.Rulebook, channels []core.Channel) *ReportService {
	return &ReportService{
		store:    store,
		rules:    rules,
		channels: channels,
	}
}

// Overview is one channel's complete financial picture: its own records plus
// the shared pool, each tagged with provenance, and the budget adherence
// derived from the combined expenses.
type Overview struct {
	Channel  core.Channel
	Ref      core.Date
	Expenses []core.Tagged[core.Expense]
	Income   []core.Tagged[core.Income]
	Budgets  []core.BudgetStatus
	Overall  core.BudgetStatus
}

// Overview assembles the combined view for ch as of ref. The four partitions
// are fetched concurrently; budget evaluation failures are isolated per
// category so one bad budget cannot blank the whole report.
func (s *ReportService) Overview(ctx context.Context, ch core.Channel, ref core.Date) (Overview, error) {
	if err := ch.Validate(s.channels); err != nil {
		return Overview{}, err
	}

	expenses, income, err := s.fetchCombined(ctx, ch)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{
		Channel:  ch,
		Ref:      ref,
		Expenses: expenses,
		Income:   income,
	}

	th := s.rules.Thresholds()
	records := core.Records(expenses)
	var active []core.BudgetStatus
	for _, category := range s.rules.Categories() {
		b, ok := s.rules.Budget(category)
		if !ok || !b.Active {
			continue
		}
		st, err := core.Evaluate(b, records, ref, th)
		if err != nil {
			slog.WarnContext(ctx, "Skipping budget evaluation",
				"category", category,
				"error", err)
			continue
		}
		active = append(active, st)
	}
	ov.Budgets = active
	ov.Overall = core.Overall(active, th)
	return ov, nil
}

// CategoryStatus evaluates a single category's budget against the combined
// view for ch. Returns core.ErrNoBudget when the category has no active
// budget.
func (s *ReportService) CategoryStatus(ctx context.Context, ch core.Channel, category string, ref core.Date) (core.BudgetStatus, error) {
	if err := ch.Validate(s.channels); err != nil {
		return core.BudgetStatus{}, err
	}

	b, ok := s.rules.Budget(category)
	if !ok || !b.Active {
		return core.BudgetStatus{}, core.ErrNoBudget
	}

	expenses, _, err := s.fetchCombined(ctx, ch)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	return core.Evaluate(b, core.Records(expenses), ref, s.rules.Thresholds())
}

// fetchCombined loads the channel's own partitions and, for personal
// channels, the shared ones, concurrently, and merges them with provenance
// tags.
func (s *ReportService) fetchCombined(ctx context.Context, ch core.Channel) ([]core.Tagged[core.Expense], []core.Tagged[core.Income], error) {
	sources := []core.Channel{ch}
	if !ch.IsShared() {
		sources = append(sources, core.SharedChannel)
	}

	// One slot per source so the goroutines never share a write target.
	expenseParts := make([][]core.Expense, len(sources))
	incomeParts := make([][]core.Income, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			list, err := s.store.ListExpenses(ctx, src)
			if err != nil {
				return fmt.Errorf("list expenses for %s: %w", src, err)
			}
			expenseParts[i] = list
			return nil
		})
		g.Go(func() error {
			list, err := s.store.ListIncome(ctx, src)
			if err != nil {
				return fmt.Errorf("list income for %s: %w", src, err)
			}
			incomeParts[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	expensesBy := map[core.Channel][]core.Expense{}
	incomeBy := map[core.Channel][]core.Income{}
	for i, src := range sources {
		expensesBy[src] = expenseParts[i]
		incomeBy[src] = incomeParts[i]
	}

	return core.CombinedView(ch, expensesBy), core.CombinedView(ch, incomeBy), nil
}
