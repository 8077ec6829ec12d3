package http

import (
	"net/http"
	"sort"

	"tally/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets := s.rules.Budgets()
	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetJSON{
			Category: b.Category,
			Amount:   b.Amount.String(),
			Period:   string(b.Period),
			Active:   b.Active,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	writeJSON(w, http.StatusOK, out)
}

type setBudgetRequest struct {
	Amount string `json:"amount"`
	Period string `json:"period"`
	Active *bool  `json:"active"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	period := core.PeriodKind(req.Period)
	if req.Period == "" {
		period = core.Monthly
	}
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	b := core.Budget{
		Category: r.PathValue("category"),
		Amount:   amount,
		Period:   period,
		Active:   active,
	}
	if err := s.rules.SetBudget(b); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusOK, budgetJSON{
		Category: b.Category,
		Amount:   b.Amount.String(),
		Period:   string(b.Period),
		Active:   b.Active,
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteBudget(r.PathValue("category")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	th := s.rules.Thresholds()
	writeJSON(w, http.StatusOK, thresholdsJSON{Warning: th.Warning, Alert: th.Alert})
}

func (s *Server) handleSetThresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholdsJSON
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	th := core.Thresholds{Warning: req.Warning, Alert: req.Alert}
	if err := th.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.rules.SetThresholds(th); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusOK, thresholdsJSON{Warning: th.Warning, Alert: th.Alert})
}
