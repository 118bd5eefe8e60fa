// Package model defines domain entities for the application.
package model

import "time"

// Account represents a registered identity with a balance.
// Balances are stored as int64 currency units and may never go negative;
// only ledger transfers mutate them after creation.
type Account struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	SecretHash string    `json:"-"` // Never serialize
	Balance    int64     `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccountSummary is the public view of an account returned by the API.
// It deliberately omits the secret hash and balance.
type AccountSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the public view of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
	}
}
