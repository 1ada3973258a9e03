package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"contas/internal/auth"
	"contas/internal/services"
)

type ctxKey int

const (
	ctxKeyAccountID ctxKey = iota
	ctxKeyRequestID
)

// Server wires the JSON API on top of the domain services.
type Server struct {
	http.Server

	auth         *auth.Service
	bills        *services.BillService
	invoices     *services.InvoiceService
	cards        *services.CardService
	bankAccounts *services.BankAccountService
	categories   *services.CategoryService
	tags         *services.TagService
	dashboard    *services.DashboardService
	audit        *services.AuditService

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Services bundles the dependencies of the API server.
type Services struct {
	Auth         *auth.Service
	Bills        *services.BillService
	Invoices     *services.InvoiceService
	Cards        *services.CardService
	BankAccounts *services.BankAccountService
	Categories   *services.CategoryService
	Tags         *services.TagService
	Dashboard    *services.DashboardService
	Audit        *services.AuditService
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		auth:         deps.Auth,
		bills:        deps.Bills,
		invoices:     deps.Invoices,
		cards:        deps.Cards,
		bankAccounts: deps.BankAccounts,
		categories:   deps.Categories,
		tags:         deps.Tags,
		dashboard:    deps.Dashboard,
		audit:        deps.Audit,
		rateLimiter:  newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.withMiddleware(s.handleSignup))
	mux.HandleFunc("POST /api/auth/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.withMiddleware(s.withAuth(s.handleLogout)))

	mux.HandleFunc("GET /api/bills", s.withMiddleware(s.withAuth(s.handleListBills)))
	mux.HandleFunc("POST /api/bills", s.withMiddleware(s.withAuth(s.handleCreateBill)))
	mux.HandleFunc("DELETE /api/bills/{id}", s.withMiddleware(s.withAuth(s.handleDeleteBill)))
	mux.HandleFunc("DELETE /api/bills/{id}/chain", s.withMiddleware(s.withAuth(s.handleDeleteBillChain)))

	mux.HandleFunc("GET /api/cards", s.withMiddleware(s.withAuth(s.handleListCards)))
	mux.HandleFunc("POST /api/cards", s.withMiddleware(s.withAuth(s.handlePersistCard)))
	mux.HandleFunc("DELETE /api/cards/{id}", s.withMiddleware(s.withAuth(s.handleDeleteCard)))

	mux.HandleFunc("GET /api/cards/{id}/invoice", s.withMiddleware(s.withAuth(s.handleGetInvoice)))
	mux.HandleFunc("PUT /api/cards/{id}/invoice/amount", s.withMiddleware(s.withAuth(s.handleInvoiceAmount)))
	mux.HandleFunc("POST /api/cards/{id}/invoice/payment", s.withMiddleware(s.withAuth(s.handleInvoicePayment)))
	mux.HandleFunc("DELETE /api/cards/{id}/receipts/{receiptId}", s.withMiddleware(s.withAuth(s.handleResetPayment)))

	mux.HandleFunc("GET /api/bank-accounts", s.withMiddleware(s.withAuth(s.handleListBankAccounts)))
	mux.HandleFunc("POST /api/bank-accounts", s.withMiddleware(s.withAuth(s.handlePersistBankAccount)))
	mux.HandleFunc("DELETE /api/bank-accounts/{id}", s.withMiddleware(s.withAuth(s.handleDeleteBankAccount)))
	mux.HandleFunc("GET /api/bank-accounts/{id}/entries", s.withMiddleware(s.withAuth(s.handleListEntries)))
	mux.HandleFunc("POST /api/bank-accounts/{id}/entries", s.withMiddleware(s.withAuth(s.handlePersistEntry)))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.withAuth(s.handleListCategories)))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.withAuth(s.handlePersistCategory)))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.withAuth(s.handleDeleteCategory)))

	mux.HandleFunc("GET /api/tags", s.withMiddleware(s.withAuth(s.handleListTags)))
	mux.HandleFunc("POST /api/tags", s.withMiddleware(s.withAuth(s.handlePersistTag)))
	mux.HandleFunc("DELETE /api/tags/{id}", s.withMiddleware(s.withAuth(s.handleDeleteTag)))

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.withAuth(s.handleDashboard)))

	mux.HandleFunc("GET /api/audit-events", s.withMiddleware(s.withAuth(s.handleListAuditEvents)))

	return s
}

// withMiddleware adds request IDs, security headers, rate limiting and
// request logging around a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// withAuth resolves the bearer token and injects the account ID into the
// request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, r, auth.ErrInvalidCredentials)
			return
		}
		accountID, err := s.auth.Resolve(token)
		if err != nil {
			respondError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAccountID, accountID)
		next(w, r.WithContext(ctx))
	}
}

func accountID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyAccountID).(string)
	return id
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
