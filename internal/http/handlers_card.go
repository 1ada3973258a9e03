package http

import (
	"net/http"

	"contas/internal/core"
)

type persistCardRequest struct {
	ID          string     `json:"id,omitempty"`
	Label       string     `json:"label"`
	AmountLimit core.Money `json:"amountLimit"`
	CloseDay    int        `json:"closeDay"`
	PayDay      int        `json:"payDay"`
}

type invoiceAmountRequest struct {
	Ref    string     `json:"ref"`
	Amount core.Money `json:"amount"`
}

type invoicePaymentRequest struct {
	Ref         string     `json:"ref"`
	PaidAmount  core.Money `json:"paidAmount"`
	Date        string     `json:"date"`
	BankAccount string     `json:"bankAccount,omitempty"`
	Debit       bool       `json:"debit,omitempty"`
	InsertMode  string     `json:"insertMode,omitempty"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.FindAll(r.Context(), accountID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]cardDTO, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardDTO(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePersistCard(w http.ResponseWriter, r *http.Request) {
	var req persistCardRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	card, err := s.cards.Persist(r.Context(), accountID(r), core.Card{
		ID:          req.ID,
		Label:       req.Label,
		AmountLimit: req.AmountLimit,
		CloseDay:    req.CloseDay,
		PayDay:      req.PayDay,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cardDTO{
		ID:          card.ID,
		Label:       card.Label,
		AmountLimit: card.AmountLimit,
		CloseDay:    card.CloseDay,
		PayDay:      card.PayDay,
	})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.cards.Delete(r.Context(), accountID(r), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	ref, err := core.ParseRef(r.URL.Query().Get("ref"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := s.invoices.GetInvoice(r.Context(), accountID(r), r.PathValue("id"), ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

func (s *Server) handleInvoiceAmount(w http.ResponseWriter, r *http.Request) {
	var req invoiceAmountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	ref, err := core.ParseRef(req.Ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	inv, err := s.invoices.PersistManualAmount(r.Context(), accountID(r), r.PathValue("id"), ref, req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

func (s *Server) handleInvoicePayment(w http.ResponseWriter, r *http.Request) {
	var req invoicePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mode := core.InsertMode(req.InsertMode)
	if mode == "" {
		mode = core.InsertNormal
	}
	inv, err := s.invoices.PersistPayment(r.Context(), accountID(r), r.PathValue("id"), core.PaymentRequest{
		Ref:           core.Ref(req.Ref),
		PaidAmount:    req.PaidAmount,
		Date:          date,
		BankAccountID: req.BankAccount,
		Debit:         req.Debit,
		InsertMode:    mode,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

func (s *Server) handleResetPayment(w http.ResponseWriter, r *http.Request) {
	err := s.invoices.ResetPayment(r.Context(), accountID(r), r.PathValue("id"), r.PathValue("receiptId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
