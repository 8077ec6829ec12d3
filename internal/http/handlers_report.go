package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tally/internal/core"
)

// refDateParam reads the optional ?date= query parameter, defaulting to
// today.
func refDateParam(r *http.Request) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return core.Today(), nil
	}
	return core.ParseDate(v)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ref, err := refDateParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	key := s.overviewCacheKey(ch, ref)
	if ov, found := s.overviewCache.Get(key); found {
		slog.DebugContext(r.Context(), "Overview cache hit", "channel", ch, "date", ref.String())
		writeJSON(w, http.StatusOK, toOverviewJSON(ov))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	ov, err := s.reports.Overview(ctx, ch, ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.overviewCache.Set(key, ov)
	writeJSON(w, http.StatusOK, toOverviewJSON(ov))
}

func (s *Server) handleCategoryStatus(w http.ResponseWriter, r *http.Request) {
	ch, err := s.channelParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ref, err := refDateParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	st, err := s.reports.CategoryStatus(ctx, ch, r.PathValue("category"), ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetStatusJSON(st))
}

type classifyResponse struct {
	Store    string `json:"store"`
	Category string `json:"category"`
	Matched  bool   `json:"matched"`
}

// handleClassify previews classification for a store name without recording
// anything or teaching the rulebook.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	store := strings.TrimSpace(r.URL.Query().Get("store"))
	if store == "" {
		writeError(w, http.StatusBadRequest, "missing store parameter")
		return
	}
	category, matched := s.entries.Preview(store)
	writeJSON(w, http.StatusOK, classifyResponse{
		Store:    store,
		Category: category,
		Matched:  matched,
	})
}
