package http

import (
	"net/http"
)

type categoryRulesJSON struct {
	Name     string   `json:"name"`
	Stores   []string `json:"stores"`
	Keywords []string `json:"keywords"`
}

type rulebookJSON struct {
	Categories      []categoryRulesJSON `json:"categories"`
	DefaultCategory string              `json:"default_category"`
	AutoCategorize  bool                `json:"auto_categorize"`
}

func (s *Server) handleGetRulebook(w http.ResponseWriter, r *http.Request) {
	names := s.rules.Categories()
	out := rulebookJSON{
		Categories:      make([]categoryRulesJSON, 0, len(names)),
		DefaultCategory: s.rules.DefaultCategory(),
		AutoCategorize:  s.rules.AutoCategorize(),
	}
	for _, name := range names {
		stores, err := s.rules.StoresFor(name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		keywords, err := s.rules.KeywordsFor(name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out.Categories = append(out.Categories, categoryRulesJSON{
			Name:     name,
			Stores:   stores,
			Keywords: keywords,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type settingsRequest struct {
	DefaultCategory string `json:"default_category"`
	AutoCategorize  bool   `json:"auto_categorize"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.rules.UpdateSettings(req.DefaultCategory, req.AutoCategorize); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusNoContent, nil)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.rules.AddCategory(req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.RemoveCategory(r.PathValue("category")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.rules.RenameCategory(r.PathValue("category"), req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddStore(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.rules.AddStore(r.PathValue("category"), req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleRemoveStore(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.RemoveStore(r.PathValue("category"), r.PathValue("store")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.rules.AddKeyword(r.PathValue("category"), req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.RemoveKeyword(r.PathValue("category"), r.PathValue("keyword")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateAllOverviews()
	writeJSON(w, http.StatusNoContent, nil)
}
