package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"contas/internal/core"
	"contas/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type session struct {
	accountID string
	expiresAt time.Time
}

// Service handles signup, login and bearer-token resolution. Tokens are
// opaque random strings held in memory with a fixed TTL; restarting the
// process logs everyone out.
type Service struct {
	storage *storage.SQLiteRepository
	cost    int
	ttl     time.Duration
	now     func() time.Time

	mu     sync.Mutex
	tokens map[string]session
}

func NewService(repo *storage.SQLiteRepository, bcryptCost int, ttl time.Duration) *Service {
	return &Service{
		storage: repo,
		cost:    bcryptCost,
		ttl:     ttl,
		now:     time.Now,
		tokens:  make(map[string]session),
	}
}

// Signup creates an account with a bcrypt-hashed password and returns it
// with a fresh session token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (core.Account, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return core.Account{}, "", fmt.Errorf("%w: empty name", core.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return core.Account{}, "", fmt.Errorf("%w: invalid email", core.ErrValidation)
	}
	if len(password) < 8 {
		return core.Account{}, "", fmt.Errorf("%w: password too short (min 8 characters)", core.ErrValidation)
	}
	if _, err := s.storage.GetAccountByEmail(ctx, email); err == nil {
		return core.Account{}, "", fmt.Errorf("%w: email already registered", core.ErrValidation)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Account{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.Account{}, "", fmt.Errorf("hashing password: %w", err)
	}
	account := core.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.storage.CreateAccount(ctx, account); err != nil {
		return core.Account{}, "", err
	}
	token, err := s.issue(account.ID)
	if err != nil {
		return core.Account{}, "", err
	}
	return account, token, nil
}

// Login verifies the password and returns the account with a fresh
// session token. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (core.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Account{}, "", ErrInvalidCredentials
		}
		return core.Account{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return core.Account{}, "", ErrInvalidCredentials
	}
	token, err := s.issue(account.ID)
	if err != nil {
		return core.Account{}, "", err
	}
	return account, token, nil
}

// Resolve maps a bearer token to its account ID, expiring stale tokens.
func (s *Service) Resolve(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if s.now().After(sess.expiresAt) {
		delete(s.tokens, token)
		return "", ErrInvalidCredentials
	}
	return sess.accountID, nil
}

// Revoke drops a token, logging its session out.
func (s *Service) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (s *Service) issue(accountID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(buf)
	s.mu.Lock()
	s.tokens[token] = session{accountID: accountID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}
