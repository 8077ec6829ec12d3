package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

// CreateRecurringTemplate stores a template and returns its id.
func (r *SQLiteRepository) CreateRecurringTemplate(ctx context.Context, t core.RecurringTemplate) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	var endDate sql.NullString
	if !t.EndDate.IsZero() {
		endDate = sql.NullString{String: t.EndDate.String(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_templates (channel, amount_cents, store, category, payment_option, card, frequency, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(t.Channel), t.Amount.Cents, t.Store, t.Category, t.PaymentOption, t.Card,
		string(t.Frequency), t.StartDate.String(), endDate, boolToInt(t.Active))
	if err != nil {
		return 0, fmt.Errorf("insert recurring template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert recurring template id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template saved",
		"id", id,
		"channel", t.Channel,
		"store", t.Store,
		"frequency", t.Frequency)
	return id, nil
}

// ListRecurringTemplates returns templates, active ones only when activeOnly
// is set.
func (r *SQLiteRepository) ListRecurringTemplates(ctx context.Context, activeOnly bool) ([]core.RecurringTemplate, error) {
	query := `
		SELECT id, channel, amount_cents, store, category, payment_option, card, frequency, start_date, end_date, last_execution, active
		FROM recurring_templates`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanRecurringTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetRecurringTemplate retrieves one template by id.
func (r *SQLiteRepository) GetRecurringTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, channel, amount_cents, store, category, payment_option, card, frequency, start_date, end_date, last_execution, active
		FROM recurring_templates WHERE id = ?`, id)
	t, err := scanRecurringTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %d: %w", id, ports.ErrRowNotFound)
	}
	return t, err
}

// UpdateRecurringTemplate replaces a template's schedule and payload, keeping
// its execution history.
func (r *SQLiteRepository) UpdateRecurringTemplate(ctx context.Context, id int64, t core.RecurringTemplate) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	var endDate sql.NullString
	if !t.EndDate.IsZero() {
		endDate = sql.NullString{String: t.EndDate.String(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_templates
		SET channel = ?, amount_cents = ?, store = ?, category = ?, payment_option = ?, card = ?,
		    frequency = ?, start_date = ?, end_date = ?, active = ?
		WHERE id = ?`,
		string(t.Channel), t.Amount.Cents, t.Store, t.Category, t.PaymentOption, t.Card,
		string(t.Frequency), t.StartDate.String(), endDate, boolToInt(t.Active), id)
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	return requireRow(res)
}

// UpdateRecurringLastExecution records when a template last materialized.
func (r *SQLiteRepository) UpdateRecurringLastExecution(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_templates SET last_execution = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update last execution: %w", err)
	}
	return requireRow(res)
}

// SetRecurringActive toggles a template without losing its history.
func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_templates SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set recurring active: %w", err)
	}
	return requireRow(res)
}

// DeleteRecurringTemplate removes a template permanently.
func (r *SQLiteRepository) DeleteRecurringTemplate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring template: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecurringTemplate(row rowScanner) (core.RecurringTemplate, error) {
	var (
		t        core.RecurringTemplate
		rawDate  string
		rawEnd   sql.NullString
		lastExec sql.NullTime
		active   int64
	)
	err := row.Scan(&t.ID, &t.Channel, &t.Amount.Cents, &t.Store, &t.Category,
		&t.PaymentOption, &t.Card, &t.Frequency, &rawDate, &rawEnd, &lastExec, &active)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	if t.StartDate, err = core.ParseDate(rawDate); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %d has invalid start date %q: %w", t.ID, rawDate, err)
	}
	if rawEnd.Valid && rawEnd.String != "" {
		if t.EndDate, err = core.ParseDate(rawEnd.String); err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("recurring template %d has invalid end date %q: %w", t.ID, rawEnd.String, err)
		}
	}
	if lastExec.Valid {
		t.LastExecution = lastExec.Time
	}
	t.Active = active != 0
	return t, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
