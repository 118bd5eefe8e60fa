package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shaikwasi806/bank-app/internal/metrics"
	"github.com/shaikwasi806/bank-app/internal/model"
	"github.com/shaikwasi806/bank-app/internal/store"
)

// Ledger errors.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// LedgerService applies transfers and answers history queries.
type LedgerService struct {
	store   store.Store
	metrics metrics.Recorder
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(st store.Store, recorder metrics.Recorder) *LedgerService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &LedgerService{
		store:   st,
		metrics: recorder,
	}
}

// TransferInput defines input for a peer-to-peer transfer.
type TransferInput struct {
	SenderID       int64
	RecipientEmail string
	Amount         int64
}

// TransferOutput carries the recorded transaction and the sender's balance
// after the transfer.
type TransferOutput struct {
	Transaction *model.Transaction
	NewBalance  int64
}

// Transfer debits the sender, credits the recipient and records the
// transaction as one atomic unit. Any failure leaves balances unchanged.
func (s *LedgerService) Transfer(ctx context.Context, input TransferInput) (*TransferOutput, error) {
	recipientEmail := strings.TrimSpace(strings.ToLower(input.RecipientEmail))
	if recipientEmail == "" {
		s.metrics.IncTransfer(metrics.OutcomeRecipientNotFound)
		return nil, ErrRecipientNotFound
	}
	if input.Amount <= 0 {
		s.metrics.IncTransfer(metrics.OutcomeInvalidAmount)
		return nil, ErrInvalidAmount
	}

	tx, newBalance, err := s.store.Transfer(ctx, input.SenderID, recipientEmail, input.Amount)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecipientNotFound):
			s.metrics.IncTransfer(metrics.OutcomeRecipientNotFound)
			return nil, ErrRecipientNotFound
		case errors.Is(err, store.ErrInsufficientFunds):
			s.metrics.IncTransfer(metrics.OutcomeInsufficientFunds)
			return nil, ErrInsufficientFunds
		case errors.Is(err, store.ErrAccountNotFound):
			s.metrics.IncTransfer(metrics.OutcomeError)
			return nil, ErrAccountNotFound
		default:
			s.metrics.IncTransfer(metrics.OutcomeError)
			return nil, fmt.Errorf("apply transfer: %w", err)
		}
	}

	s.metrics.IncTransfer(metrics.OutcomeOK)

	return &TransferOutput{
		Transaction: tx,
		NewBalance:  newBalance,
	}, nil
}

// History returns every transaction involving the account, in insertion
// order, oldest first.
func (s *LedgerService) History(ctx context.Context, accountID int64, email string) ([]*model.Transaction, error) {
	txs, err := s.store.TransactionsFor(ctx, accountID, email)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
