package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
)

// RecurringStore is the template persistence surface shared by the processor
// and the management API. The SQLite repository satisfies it.
type RecurringStore interface {
	CreateRecurringTemplate(ctx context.Context, t core.RecurringTemplate) (int64, error)
	ListRecurringTemplates(ctx context.Context, activeOnly bool) ([]core.RecurringTemplate, error)
	GetRecurringTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error)
	UpdateRecurringTemplate(ctx context.Context, id int64, t core.RecurringTemplate) error
	UpdateRecurringLastExecution(ctx context.Context, id int64, at time.Time) error
	SetRecurringActive(ctx context.Context, id int64, active bool) error
	DeleteRecurringTemplate(ctx context.Context, id int64) error
}

// RecurringProcessor materializes expenses from recurring templates.
type RecurringProcessor struct {
	storage RecurringStore
	entries *EntryService
}

func NewRecurringProcessor(storage RecurringStore, entries *EntryService) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		entries: entries,
	}
}

// Run checks for due templates on every tick until ctx ends.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately so a restart does not wait a full interval.
	if _, err := p.ProcessDueTemplates(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := p.ProcessDueTemplates(ctx, now); err != nil {
				slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
			}
		}
	}
}

// ProcessDueTemplates materializes every active template that is due at now
// and returns how many expenses were created. Individual template failures
// are logged and skipped.
func (p *RecurringProcessor) ProcessDueTemplates(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.entries == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListRecurringTemplates(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("list active recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	today := core.NewDate(now.Year(), int(now.Month()), now.Day())

	processed := 0
	for _, t := range templates {
		if t.Expired(today) {
			// Deactivate so future passes stop scanning it.
			if err := p.storage.SetRecurringActive(ctx, t.ID, false); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate expired template",
					"template_id", t.ID,
					"error", err)
			} else {
				slog.InfoContext(ctx, "Deactivated expired recurring template",
					"template_id", t.ID,
					"end_date", t.EndDate.String())
			}
			continue
		}

		checker, err := GetDuenessChecker(t.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping template with unknown frequency",
				"id", t.ID,
				"frequency", t.Frequency)
			continue
		}
		if !checker.IsDue(t.LastExecution, now, t.StartDate) {
			continue
		}

		if _, _, err := p.entries.AddExpense(ctx, t.Channel, t.Expense(today)); err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from template",
				"template_id", t.ID,
				"store", t.Store,
				"error", err)
			continue
		}

		if err := p.storage.UpdateRecurringLastExecution(ctx, t.ID, now); err != nil {
			// The expense exists; without the timestamp the template would
			// fire again next tick.
			slog.ErrorContext(ctx, "Failed to update last execution",
				"template_id", t.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created expense from recurring template",
			"template_id", t.ID,
			"store", t.Store,
			"amount_cents", t.Amount.Cents,
			"frequency", t.Frequency)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(templates))
	return processed, nil
}
