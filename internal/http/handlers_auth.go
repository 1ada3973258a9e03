package http

import (
	"log/slog"
	"net/http"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	account, token, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.categories.CreateDefaults(r.Context(), account.ID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to seed default categories", "account_id", account.ID, "error", err)
	}
	respondJSON(w, http.StatusCreated, accountDTO{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
		Token: token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	account, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accountDTO{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
		Token: token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Revoke(bearerToken(r))
	respondJSON(w, http.StatusNoContent, nil)
}
