package http

import (
	"net/http"
	"strconv"
	"time"

	"contas/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now()
	month, year := int(now.Month()), now.Year()
	if v := q.Get("month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if v := q.Get("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	upcoming, err := s.dashboard.UpcomingInvoices(r.Context(), accountID(r), core.NewRef(month, year))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]upcomingInvoiceDTO, 0, len(upcoming))
	for _, u := range upcoming {
		out = append(out, upcomingInvoiceDTO{
			Card:    u.CardID,
			Label:   u.Label,
			PayDate: u.PayDate.Format(dateLayout),
			Total:   u.Total,
			Bills:   toBillDTOs(u.Bills),
		})
	}
	respondJSON(w, http.StatusOK, out)
}
