// Package session issues and validates bearer session tokens. Tokens are
// HS256 JWTs cross-checked against an issued-token registry: a token is only
// honoured while both the signature and the registry entry hold.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// ErrUnauthorized indicates a missing, invalid, expired or unregistered
// session token. The same error covers every failure mode so responses do
// not reveal which check failed.
var ErrUnauthorized = errors.New("invalid session token")

// Claims is the JWT payload for a session token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
}

// Issuer signs session tokens with a server-held secret and records each
// issued token in the registry.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	registry Registry
}

// NewIssuer creates an Issuer. ttl is the fixed token lifetime.
func NewIssuer(secret []byte, ttl time.Duration, registry Registry) *Issuer {
	return &Issuer{
		secret:   secret,
		ttl:      ttl,
		registry: registry,
	}
}

// Issue signs a token for the account and appends it to the registry.
// Multiple live tokens per account are allowed.
func (i *Issuer) Issue(ctx context.Context, account *model.Account) (string, *model.TokenRecord, error) {
	now := time.Now()
	tokenID := ulid.Make().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		AccountID: account.ID,
		Email:     account.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	rec := &model.TokenRecord{
		TokenID:   tokenID,
		AccountID: account.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.registry.Record(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("record token: %w", err)
	}

	return signed, rec, nil
}

// Validate checks the signature, expiry and registry presence of a token.
// Fails with ErrUnauthorized on any violation.
func (i *Issuer) Validate(ctx context.Context, token string) (*model.SessionContext, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	registered, err := i.registry.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token registry: %w", err)
	}
	if !registered {
		return nil, ErrUnauthorized
	}

	return &model.SessionContext{
		TokenID:   claims.ID,
		AccountID: claims.AccountID,
		Email:     claims.Email,
	}, nil
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}
