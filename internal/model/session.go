package model

import "time"

// TokenRecord is an entry in the issued-token registry. A session token is
// only honoured while its record is present; logout does not remove records,
// tokens simply age out at ExpiresAt.
type TokenRecord struct {
	TokenID   string    `json:"token_id"`
	AccountID int64     `json:"account_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionContext holds the authenticated identity for a request.
// It is injected into the request context by the session middleware.
type SessionContext struct {
	TokenID   string
	AccountID int64
	Email     string
}
