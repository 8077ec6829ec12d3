package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"tally/internal/core"
	"tally/internal/sheets"
)

type recurringJSON struct {
	ID            int64  `json:"id"`
	Date          string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	Frequency     string `json:"frequency"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Store         string `json:"store"`
	Category      string `json:"category"`
	PaymentOption string `json:"payment_option,omitempty"`
	Card          string `json:"card,omitempty"`
	LastExecution string `json:"last_execution,omitempty"`
	Active        bool   `json:"active"`
}

func toRecurringJSON(t core.RecurringTemplate) recurringJSON {
	out := recurringJSON{
		ID:            t.ID,
		Date:          t.StartDate.String(),
		Frequency:     string(t.Frequency),
		Amount:        t.Amount.String(),
		AmountCents:   t.Amount.Cents,
		Store:         t.Store,
		Category:      t.Category,
		PaymentOption: t.PaymentOption,
		Card:          t.Card,
		Active:        t.Active,
	}
	if !t.EndDate.IsZero() {
		out.EndDate = t.EndDate.String()
	}
	if !t.LastExecution.IsZero() {
		out.LastExecution = t.LastExecution.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

// recurringRequest is the write payload for recurring templates. Category may
// be blank; the classifier resolves it when the template materializes. A
// missing end date means the template never expires.
type recurringRequest struct {
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Frequency     string `json:"frequency"`
	Amount        string `json:"amount"`
	Store         string `json:"store"`
	Category      string `json:"category"`
	PaymentOption string `json:"payment_option"`
	Card          string `json:"card"`
	Active        *bool  `json:"active"`
}

func (req recurringRequest) toTemplate(ch core.Channel) (core.RecurringTemplate, error) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("start date %q: %w", req.StartDate, err)
	}
	var end core.Date
	if req.EndDate != "" {
		end, err = core.ParseDate(req.EndDate)
		if err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("end date %q: %w", req.EndDate, err)
		}
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("amount %q: %w", req.Amount, err)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	t := core.RecurringTemplate{
		Channel:       ch,
		Amount:        amount,
		Store:         req.Store,
		Category:      req.Category,
		PaymentOption: req.PaymentOption,
		Card:          req.Card,
		Frequency:     core.Frequency(req.Frequency),
		StartDate:     start,
		EndDate:       end,
		Active:        active,
	}
	if err := t.Validate(); err != nil {
		return core.RecurringTemplate{}, err
	}
	return t, nil
}

// recurringStore guards the optional dependency: only the sqlite backend can
// persist templates.
func (s *Server) recurringStore(w http.ResponseWriter) bool {
	if s.recurring == nil {
		writeError(w, http.StatusNotImplemented, "recurring expenses not available with this backend")
		return false
	}
	return true
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	if !s.recurringStore(w) {
		return
	}
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl, err := req.toTemplate(ch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	id, err := s.recurring.CreateRecurringTemplate(ctx, tpl)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tpl.ID = id
	writeJSON(w, http.StatusCreated, toRecurringJSON(tpl))
}

func (s *Server) handleListRecurrings(w http.ResponseWriter, r *http.Request) {
	if !s.recurringStore(w) {
		return
	}
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	templates, err := s.recurring.ListRecurringTemplates(ctx, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]recurringJSON, 0, len(templates))
	for _, t := range templates {
		if t.Channel != ch {
			continue
		}
		out = append(out, toRecurringJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	if !s.recurringStore(w) {
		return
	}
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := recurringIDParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl, err := req.toTemplate(ch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.requireOwnedTemplate(ctx, ch, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.recurring.UpdateRecurringTemplate(ctx, id, tpl); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if !s.recurringStore(w) {
		return
	}
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := recurringIDParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.requireOwnedTemplate(ctx, ch, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.recurring.DeleteRecurringTemplate(ctx, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// requireOwnedTemplate hides other channels' templates: a wrong-channel id
// looks exactly like a missing one.
func (s *Server) requireOwnedTemplate(ctx context.Context, ch core.Channel, id int64) error {
	tpl, err := s.recurring.GetRecurringTemplate(ctx, id)
	if err != nil {
		return err
	}
	if tpl.Channel != ch {
		return fmt.Errorf("recurring template %d: %w", id, sheets.ErrRowNotFound)
	}
	return nil
}

func recurringIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("recurring template id %q: %w", r.PathValue("id"), sheets.ErrRowNotFound)
	}
	return id, nil
}
