package http

import (
	"context"
	"net/http"
)

type createExpenseResponse struct {
	Expense expenseJSON       `json:"expense"`
	Budget  *budgetStatusJSON `json:"budget,omitempty"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	exp, err := req.toExpense()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	stored, budget, err := s.entries.AddExpense(ctx, ch, exp)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateOverviews(ch)

	resp := createExpenseResponse{Expense: toExpenseJSON(stored, "")}
	if budget != nil {
		b := toBudgetStatusJSON(*budget)
		resp.Budget = &b
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	items, err := s.entries.ListExpenses(ctx, ch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]expenseJSON, 0, len(items))
	for _, e := range items {
		out = append(out, toExpenseJSON(e, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	exp, err := req.toExpense()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.entries.UpdateExpense(ctx, ch, r.PathValue("id"), exp); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateOverviews(ch)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.entries.DeleteExpense(ctx, ch, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateOverviews(ch)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toIncome()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	stored, err := s.entries.AddIncome(ctx, ch, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateOverviews(ch)
	writeJSON(w, http.StatusCreated, toIncomeJSON(stored, ""))
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	items, err := s.entries.ListIncome(ctx, ch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]incomeJSON, 0, len(items))
	for _, in := range items {
		out = append(out, toIncomeJSON(in, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toIncome()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.entries.UpdateIncome(ctx, ch, r.PathValue("id"), in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateOverviews(ch)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := s.entries.DeleteIncome(ctx, ch, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateOverviews(ch)
	writeJSON(w, http.StatusNoContent, nil)
}
