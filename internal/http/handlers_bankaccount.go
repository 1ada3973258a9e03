package http

import (
	"net/http"

	"contas/internal/core"
)

type persistBankAccountRequest struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

type persistEntryRequest struct {
	Type        string     `json:"type"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description,omitempty"`
}

func (s *Server) handleListBankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.bankAccounts.FindAllWithBalance(r.Context(), accountID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]bankAccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toBankAccountDTO(a))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePersistBankAccount(w http.ResponseWriter, r *http.Request) {
	var req persistBankAccountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	a, err := s.bankAccounts.Persist(r.Context(), accountID(r), req.ID, req.Label)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, bankAccountDTO{ID: a.ID, Label: a.Label})
}

func (s *Server) handleDeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.bankAccounts.Delete(r.Context(), accountID(r), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.bankAccounts.Entries(r.Context(), accountID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePersistEntry(w http.ResponseWriter, r *http.Request) {
	var req persistEntryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	entry, err := s.bankAccounts.PersistEntry(r.Context(), accountID(r), core.BankAccountEntry{
		BankAccountID: r.PathValue("id"),
		Type:          core.EntryType(req.Type),
		Amount:        req.Amount,
		Description:   req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toEntryDTO(entry))
}
