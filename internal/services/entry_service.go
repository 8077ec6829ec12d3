package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/rulebook"
)

// EntryService records expenses and income. Expenses arriving without a
// category are classified from the rulebook, and when the resolved store name
// was not yet registered under the winning category the rulebook learns it,
// so the next entry from the same store matches exactly.
type EntryService struct {
	store    Store
	rules    *rulebook.Rulebook
	reports  *ReportService
	channels []core.Channel
}

func NewEntryService(store Store, rules *rulebook.Rulebook, reports *ReportService, channels []core.Channel) *EntryService {
	return &EntryService{
		store:    store,
		rules:    rules,
		reports:  reports,
		channels: channels,
	}
}

// AddExpense validates, classifies and appends an expense. The returned
// status is the category's budget standing after the write, or nil when the
// category has no active budget.
func (s *EntryService) AddExpense(ctx context.Context, ch core.Channel, e core.Expense) (core.Expense, *core.BudgetStatus, error) {
	if err := ch.Validate(s.channels); err != nil {
		return core.Expense{}, nil, err
	}

	rs := s.rules.Snapshot()
	var followUp *core.RegisterStore
	if strings.TrimSpace(e.Category) == "" {
		e.Category, _, followUp = core.Suggest(e.Store, rs)
	} else if !knownCategory(rs, e.Category) {
		return core.Expense{}, nil, fmt.Errorf("category %q: %w", e.Category, rulebook.ErrCategoryNotFound)
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, nil, err
	}

	rowID, err := s.store.AppendExpense(ctx, ch, e)
	if err != nil {
		entryLog(ctx).LogError(ctx, "Failed to append expense", err,
			applog.ComponentEntry, applog.OpAppend,
			applog.NewFields().WithEntry(string(ch), e.Store, e.Category, e.Amount.Cents))
		return core.Expense{}, nil, fmt.Errorf("append expense: %w", err)
	}
	e.RowID = rowID

	if followUp != nil {
		// Learning failures must not undo a committed expense.
		if err := s.rules.Apply(*followUp); err != nil {
			slog.WarnContext(ctx, "Failed to register store under category",
				"store", followUp.Store,
				"category", followUp.Category,
				"error", err)
		} else {
			slog.InfoContext(ctx, "Registered store under category",
				"store", followUp.Store,
				"category", followUp.Category)
		}
	}

	entryLog(ctx).LogEntryRecorded(ctx, string(ch), e.Store, e.Category, rowID, e.Amount.Cents)

	return e, s.budgetStanding(ctx, ch, e.Category, e.Date), nil
}

// entryLog picks up the request-scoped logger when the HTTP middleware put
// one in the context.
func entryLog(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

// budgetStanding is advisory: evaluation errors are logged, never surfaced,
// because the expense is already committed.
func (s *EntryService) budgetStanding(ctx context.Context, ch core.Channel, category string, ref core.Date) *core.BudgetStatus {
	if s.reports == nil {
		return nil
	}
	st, err := s.reports.CategoryStatus(ctx, ch, category, ref)
	if errors.Is(err, core.ErrNoBudget) {
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to evaluate budget after expense",
			"category", category,
			"error", err)
		return nil
	}
	return &st
}

// AddIncome validates and appends an income record.
func (s *EntryService) AddIncome(ctx context.Context, ch core.Channel, in core.Income) (core.Income, error) {
	if err := ch.Validate(s.channels); err != nil {
		return core.Income{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}

	rowID, err := s.store.AppendIncome(ctx, ch, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("append income: %w", err)
	}
	in.RowID = rowID

	slog.InfoContext(ctx, "Income recorded",
		"row_id", rowID,
		"channel", ch,
		"source", in.Source,
		"amount_cents", in.Amount.Cents)
	return in, nil
}

// UpdateExpense replaces a stored expense row.
func (s *EntryService) UpdateExpense(ctx context.Context, ch core.Channel, rowID string, e core.Expense) error {
	if err := ch.Validate(s.channels); err != nil {
		return err
	}
	if !knownCategory(s.rules.Snapshot(), e.Category) {
		return fmt.Errorf("category %q: %w", e.Category, rulebook.ErrCategoryNotFound)
	}
	if err := s.store.UpdateExpense(ctx, ch, rowID, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (s *EntryService) DeleteExpense(ctx context.Context, ch core.Channel, rowID string) error {
	if err := ch.Validate(s.channels); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, ch, rowID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (s *EntryService) UpdateIncome(ctx context.Context, ch core.Channel, rowID string, in core.Income) error {
	if err := ch.Validate(s.channels); err != nil {
		return err
	}
	if err := s.store.UpdateIncome(ctx, ch, rowID, in); err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return nil
}

func (s *EntryService) DeleteIncome(ctx context.Context, ch core.Channel, rowID string) error {
	if err := ch.Validate(s.channels); err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, ch, rowID); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return nil
}

// ListExpenses returns the channel's own expense partition, without the
// shared pool. The combined view lives in ReportService.
func (s *EntryService) ListExpenses(ctx context.Context, ch core.Channel) ([]core.Expense, error) {
	if err := ch.Validate(s.channels); err != nil {
		return nil, err
	}
	items, err := s.store.ListExpenses(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

func (s *EntryService) ListIncome(ctx context.Context, ch core.Channel) ([]core.Income, error) {
	if err := ch.Validate(s.channels); err != nil {
		return nil, err
	}
	items, err := s.store.ListIncome(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return items, nil
}

// Preview classifies a store name without recording anything and without
// teaching the rulebook.
func (s *EntryService) Preview(storeName string) (category string, matched bool) {
	return core.Classify(storeName, s.rules.Snapshot())
}

func knownCategory(rs core.Ruleset, name string) bool {
	for _, c := range rs.Categories {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
