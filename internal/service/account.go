// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shaikwasi806/bank-app/internal/auth"
	"github.com/shaikwasi806/bank-app/internal/metrics"
	"github.com/shaikwasi806/bank-app/internal/model"
	"github.com/shaikwasi806/bank-app/internal/session"
	"github.com/shaikwasi806/bank-app/internal/store"
)

// Service errors.
var (
	ErrInvalidInput       = errors.New("missing or malformed field")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
)

// Basic email shape check; full RFC validation is not the goal here.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxNameLength = 100

// AccountService handles registration, login and account lookups.
type AccountService struct {
	store   store.Store
	issuer  *session.Issuer
	metrics metrics.Recorder
}

// NewAccountService creates a new AccountService.
func NewAccountService(st store.Store, issuer *session.Issuer, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		store:   st,
		issuer:  issuer,
		metrics: recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Name   string
	Email  string
	Secret string
}

// Register creates an account with a hashed secret and the configured
// starting balance. The plaintext secret is discarded immediately.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*model.Account, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if name == "" || len(name) > maxNameLength {
		return nil, ErrInvalidInput
	}
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidInput
	}
	if input.Secret == "" {
		return nil, ErrInvalidInput
	}

	hash, err := auth.HashSecret(input.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	account, err := s.store.CreateAccount(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.metrics.IncAccountRegistered()

	return account, nil
}

// LoginOutput carries the authenticated account and its session token.
type LoginOutput struct {
	Account *model.Account
	Token   string
	Record  *model.TokenRecord
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong secret return the same ErrInvalidCredentials so responses do not
// reveal which accounts exist.
func (s *AccountService) Login(ctx context.Context, email, secret string) (*LoginOutput, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || secret == "" {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	match, err := auth.VerifySecret(secret, account.SecretHash)
	if err != nil || !match {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	token, rec, err := s.issuer.Issue(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.metrics.IncLoginSuccess()

	return &LoginOutput{
		Account: account,
		Token:   token,
		Record:  rec,
	}, nil
}

// AccountByID returns the account for the id.
func (s *AccountService) AccountByID(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.store.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}
