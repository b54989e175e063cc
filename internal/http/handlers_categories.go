package http

import (
	"net/http"
	"strings"

	applog "burnrate/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"categories": s.store.Rules()})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, applog.OpAdd, err)
		return
	}
	name := strings.TrimSpace(body.Name)

	s.mu.Lock()
	added, err := s.store.AddCategory(r.Context(), name)
	s.mu.Unlock()
	if err != nil {
		respondErr(w, r, applog.OpAdd, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{"name": name, "added": added})
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s.mu.Lock()
	removed, err := s.store.RemoveCategory(r.Context(), name)
	s.mu.Unlock()
	if err != nil {
		respondErr(w, r, applog.OpRemove, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"name": name, "removed": removed})
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	kws, err := s.store.Keywords(name)
	if err != nil {
		respondErr(w, r, applog.OpList, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"category": name, "keywords": kws})
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("name")
	var body struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, applog.OpAdd, err)
		return
	}

	s.mu.Lock()
	added, err := s.store.AddKeyword(r.Context(), category, body.Keyword)
	s.mu.Unlock()
	if err != nil {
		respondErr(w, r, applog.OpAdd, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{
		"category": category,
		"keyword":  strings.TrimSpace(body.Keyword),
		"added":    added,
	})
}

func (s *Server) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("name")
	keyword := r.PathValue("keyword")

	s.mu.Lock()
	removed, err := s.store.RemoveKeyword(r.Context(), category, keyword)
	s.mu.Unlock()
	if err != nil {
		respondErr(w, r, applog.OpRemove, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"category": category, "keyword": keyword, "removed": removed})
}
