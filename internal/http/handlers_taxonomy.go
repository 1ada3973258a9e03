package http

import "net/http"

type persistLabelRequest struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.FindAll(r.Context(), accountID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryDTO{ID: c.ID, Label: c.Label})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePersistCategory(w http.ResponseWriter, r *http.Request) {
	var req persistLabelRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.categories.Persist(r.Context(), accountID(r), req.ID, req.Label)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categoryDTO{ID: c.ID, Label: c.Label})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.categories.Delete(r.Context(), accountID(r), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.FindAll(r.Context(), accountID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]tagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagDTO{ID: t.ID, Label: t.Label})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePersistTag(w http.ResponseWriter, r *http.Request) {
	var req persistLabelRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := s.tags.Persist(r.Context(), accountID(r), req.ID, req.Label)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tagDTO{ID: t.ID, Label: t.Label})
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.tags.Delete(r.Context(), accountID(r), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
