package account

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Subscriptions is implemented by the plan service. ProvisionDefault must be
// idempotent: a retried signup must not create a second subscription.
type Subscriptions interface {
	ProvisionDefault(ctx context.Context, ownerID string) error
}

// TokenIssuer is implemented by the jwt service.
type TokenIssuer interface {
	GenerateToken(ownerID string) (string, error)
}

type Service struct {
	repo   Repository
	subs   Subscriptions
	tokens TokenIssuer
}

func NewService(repo Repository, subs Subscriptions, tokens TokenIssuer) *Service {
	return &Service{repo: repo, subs: subs, tokens: tokens}
}

// AuthResult is the outcome of a successful signup or login.
type AuthResult struct {
	Account     *Account `json:"account"`
	AccessToken string   `json:"access_token"`
}

// Signup registers a new account, provisions its free subscription and
// issues an access token. The three steps are sequential and each failure is
// reported as its own error; provisioning is retried lazily on first plan
// lookup if it fails here.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	acc := &Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		return nil, err
	}

	if err := s.subs.ProvisionDefault(ctx, acc.ID); err != nil {
		// The account exists; plan lookups fall back to the free plan until
		// provisioning succeeds, so signup still completes.
		log.Printf("signup_provision_failed owner=%s error=%q", acc.ID, err)
	}

	token, err := s.tokens.GenerateToken(acc.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: acc, AccessToken: token}, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(acc.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: acc, AccessToken: token}, nil
}

// Get returns the account for an authenticated owner.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}
