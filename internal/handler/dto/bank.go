// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// LoginRequest represents the request body for opening a session.
type LoginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// TransferRequest represents the request body for a peer-to-peer transfer.
type TransferRequest struct {
	RecipientEmail string `json:"recipient_email"`
	Amount         int64  `json:"amount"`
}

// AccountResponse represents an account in API responses.
// The secret hash and balance are deliberately absent.
type AccountResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Message string          `json:"message"`
	Account AccountResponse `json:"account"`
}

// LoginResponse is returned on successful login. The session token itself
// travels only in the HTTP-only cookie, never in the body.
type LoginResponse struct {
	Message string          `json:"message"`
	Account AccountResponse `json:"account"`
}

// BalanceResponse is returned by the balance endpoint.
type BalanceResponse struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// TransactionResponse represents one ledger entry in API responses.
type TransactionResponse struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"sender_id"`
	SenderEmail    string    `json:"sender_email"`
	RecipientEmail string    `json:"recipient_email"`
	Amount         int64     `json:"amount"`
	Timestamp      time.Time `json:"timestamp"`
	Kind           string    `json:"kind"`
}

// TransferResponse is returned on a successful transfer.
type TransferResponse struct {
	Message     string              `json:"message"`
	NewBalance  int64               `json:"new_balance"`
	Transaction TransactionResponse `json:"transaction"`
}

// TransactionListResponse wraps the transaction history.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToAccountResponse converts an Account model to its public DTO.
func ToAccountResponse(a *model.Account) AccountResponse {
	return AccountResponse{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
	}
}

// ToTransactionResponse converts a Transaction model to its DTO.
func ToTransactionResponse(t *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		SenderID:       t.SenderID,
		SenderEmail:    t.SenderEmail,
		RecipientEmail: t.RecipientEmail,
		Amount:         t.Amount,
		Timestamp:      t.Timestamp,
		Kind:           t.Kind,
	}
}

// ToTransactionListResponse converts a slice of transactions.
func ToTransactionListResponse(txs []*model.Transaction) TransactionListResponse {
	out := TransactionListResponse{
		Transactions: make([]TransactionResponse, 0, len(txs)),
	}
	for _, t := range txs {
		out.Transactions = append(out.Transactions, ToTransactionResponse(t))
	}
	return out
}
