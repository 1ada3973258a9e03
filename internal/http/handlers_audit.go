package http

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	events, err := s.audit.History(r.Context(), accountID(r), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]auditEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toAuditEventDTO(e))
	}
	respondJSON(w, http.StatusOK, out)
}
