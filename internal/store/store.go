// Package store provides the persistence layer for accounts and the transfer
// ledger. Three backends implement the same contract: a guarded in-memory map,
// a single JSON document on disk, and PostgreSQL. All mutations are serialized
// per store so a transfer's debit-credit-record sequence is never observed
// partially applied.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// Common errors for store operations.
var (
	// ErrDuplicateEmail indicates an account already exists for the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRecipientNotFound indicates the transfer recipient does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrInsufficientFunds indicates a balance change would go negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store is the persistence contract for the credential store and the ledger.
type Store interface {
	// CreateAccount registers a new account holding the hashed secret and the
	// configured initial balance. Fails with ErrDuplicateEmail.
	CreateAccount(ctx context.Context, name, email, secretHash string) (*model.Account, error)

	// AccountByEmail returns the account for the email, or ErrAccountNotFound.
	AccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// AccountByID returns the account for the id, or ErrAccountNotFound.
	AccountByID(ctx context.Context, id int64) (*model.Account, error)

	// AdjustBalance applies a signed delta to an account balance. Fails with
	// ErrInsufficientFunds if the resulting balance would be negative.
	AdjustBalance(ctx context.Context, id int64, delta int64) (*model.Account, error)

	// Transfer atomically debits the sender, credits the recipient and appends
	// a transaction record. The second return value is the sender's balance
	// immediately after the debit, read inside the same atomic section so it
	// cannot reflect other concurrent transfers. Any failure leaves both
	// balances unchanged. Fails with ErrAccountNotFound (sender),
	// ErrRecipientNotFound or ErrInsufficientFunds.
	Transfer(ctx context.Context, senderID int64, recipientEmail string, amount int64) (*model.Transaction, int64, error)

	// TransactionsFor returns every transaction in which the account appears
	// as sender (by id or email) or recipient (by email), in insertion order,
	// oldest first.
	TransactionsFor(ctx context.Context, accountID int64, email string) ([]*model.Transaction, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Document is the on-disk layout of the file backend: a single JSON document
// with two top-level sequences.
type Document struct {
	Accounts     []PersistedAccount  `json:"accounts"`
	Transactions []model.Transaction `json:"transactions"`
}

// PersistedAccount is the serialized form of an account. Unlike the API view
// it carries the secret hash, which the file backend must retain.
type PersistedAccount struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	SecretHash string    `json:"secret_hash"`
	Balance    int64     `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}
