package http

import (
	"net/http"

	"contas/internal/core"
)

type createBillRequest struct {
	Type                string     `json:"type"`
	BuyDate             string     `json:"buyDate"`
	PayDate             string     `json:"payDate,omitempty"`
	Category            string     `json:"category,omitempty"`
	Card                string     `json:"card,omitempty"`
	BankAccount         string     `json:"bankAccount,omitempty"`
	Description         string     `json:"description"`
	Amount              core.Money `json:"amount"`
	Installments        int        `json:"installments,omitempty"`
	IsInstallmentAmount bool       `json:"isInstallmentAmount,omitempty"`
	MarkPreviousPaid    bool       `json:"markPreviousPaid,omitempty"`
	Paid                bool       `json:"paid,omitempty"`
	Debit               bool       `json:"debit,omitempty"`
	Tags                []string   `json:"tags,omitempty"`
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	buyDate, err := parseDate(req.BuyDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	payDate, err := parseDate(req.PayDate)
	if err != nil {
		respondError(w, r, err)
		return
	}
	bills, err := s.bills.Create(r.Context(), accountID(r), core.BillRequest{
		Type:                core.BillType(req.Type),
		BuyDate:             buyDate,
		PayDate:             payDate,
		CategoryID:          req.Category,
		CardID:              req.Card,
		BankAccountID:       req.BankAccount,
		Description:         req.Description,
		Amount:              req.Amount,
		Installments:        req.Installments,
		IsInstallmentAmount: req.IsInstallmentAmount,
		MarkPreviousPaid:    req.MarkPreviousPaid,
		Paid:                req.Paid,
		Debit:               req.Debit,
		TagIDs:              req.Tags,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toBillDTOs(bills))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("start"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	field := core.BillDateField(q.Get("field"))
	if field == "" {
		field = core.FilterBilling
	}
	var types []core.BillType
	for _, t := range splitParam(q.Get("types")) {
		types = append(types, core.BillType(t))
	}
	bills, err := s.bills.List(r.Context(), accountID(r), core.BillFilter{
		DateField:   field,
		Start:       start,
		End:         end,
		CardIDs:     splitParam(q.Get("cards")),
		CategoryIDs: splitParam(q.Get("categories")),
		TagIDs:      splitParam(q.Get("tags")),
		Types:       types,
		Paid:        q.Get("paid") == "true",
		Unpaid:      q.Get("unpaid") == "true",
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toBillDTOs(bills))
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.DeleteSingle(r.Context(), accountID(r), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteBillChain(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if err := s.bills.Delete(r.Context(), accountID(r), r.PathValue("id"), mode); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
