package store

import (
	"context"
	"sync"
	"time"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// MemoryStore keeps all state in process memory behind a single mutex.
// IDs are assigned monotonically inside the critical section, and every
// returned entity is a copy so callers cannot reach internal state.
type MemoryStore struct {
	mu             sync.Mutex
	initialBalance int64
	nextAccountID  int64
	nextTxID       int64
	byEmail        map[string]*model.Account
	byID           map[int64]*model.Account
	transactions   []*model.Transaction
}

// NewMemoryStore creates an empty in-memory store. New accounts are credited
// with initialBalance on creation.
func NewMemoryStore(initialBalance int64) *MemoryStore {
	return &MemoryStore{
		initialBalance: initialBalance,
		byEmail:        make(map[string]*model.Account),
		byID:           make(map[int64]*model.Account),
	}
}

// CreateAccount registers a new account with the configured initial balance.
func (s *MemoryStore) CreateAccount(ctx context.Context, name, email, secretHash string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	s.nextAccountID++
	account := &model.Account{
		ID:         s.nextAccountID,
		Name:       name,
		Email:      email,
		SecretHash: secretHash,
		Balance:    s.initialBalance,
		CreatedAt:  time.Now().UTC(),
	}

	s.byEmail[email] = account
	s.byID[account.ID] = account

	cp := *account
	return &cp, nil
}

// AccountByEmail returns a copy of the account for the email.
func (s *MemoryStore) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

// AccountByID returns a copy of the account for the id.
func (s *MemoryStore) AccountByID(ctx context.Context, id int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

// AdjustBalance applies a signed delta, keeping the balance non-negative.
func (s *MemoryStore) AdjustBalance(ctx context.Context, id int64, delta int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if account.Balance+delta < 0 {
		return nil, ErrInsufficientFunds
	}

	account.Balance += delta
	cp := *account
	return &cp, nil
}

// Transfer performs the debit, credit and ledger append inside one critical
// section and reports the sender's balance as of that section. Validation
// failures leave every balance untouched.
func (s *MemoryStore) Transfer(ctx context.Context, senderID int64, recipientEmail string, amount int64) (*model.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.byID[senderID]
	if !ok {
		return nil, 0, ErrAccountNotFound
	}
	recipient, ok := s.byEmail[recipientEmail]
	if !ok {
		return nil, 0, ErrRecipientNotFound
	}
	if sender.Balance < amount {
		return nil, 0, ErrInsufficientFunds
	}

	sender.Balance -= amount
	recipient.Balance += amount

	s.nextTxID++
	tx := &model.Transaction{
		ID:             s.nextTxID,
		SenderID:       sender.ID,
		SenderEmail:    sender.Email,
		RecipientEmail: recipient.Email,
		Amount:         amount,
		Timestamp:      time.Now().UTC(),
		Kind:           model.KindTransfer,
	}
	s.transactions = append(s.transactions, tx)

	cp := *tx
	return &cp, sender.Balance, nil
}

// TransactionsFor returns the account's transactions in insertion order.
func (s *MemoryStore) TransactionsFor(ctx context.Context, accountID int64, email string) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Transaction
	for _, tx := range s.transactions {
		if tx.Involves(accountID, email) {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Ping always succeeds for the in-memory backend.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

// Export produces a deep snapshot of the current state. Used by the file
// backend to persist after each mutation.
func (s *MemoryStore) Export() Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Document{
		Accounts:     make([]PersistedAccount, 0, len(s.byID)),
		Transactions: make([]model.Transaction, 0, len(s.transactions)),
	}

	// Accounts in id order so the document is stable across saves.
	for id := int64(1); id <= s.nextAccountID; id++ {
		a, ok := s.byID[id]
		if !ok {
			continue
		}
		doc.Accounts = append(doc.Accounts, PersistedAccount{
			ID:         a.ID,
			Name:       a.Name,
			Email:      a.Email,
			SecretHash: a.SecretHash,
			Balance:    a.Balance,
			CreatedAt:  a.CreatedAt,
		})
	}
	for _, tx := range s.transactions {
		doc.Transactions = append(doc.Transactions, *tx)
	}
	return doc
}

// Import replaces the store state from a snapshot. ID counters resume from
// the highest id seen so assignment stays monotonic across restarts.
func (s *MemoryStore) Import(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byEmail = make(map[string]*model.Account, len(doc.Accounts))
	s.byID = make(map[int64]*model.Account, len(doc.Accounts))
	s.transactions = make([]*model.Transaction, 0, len(doc.Transactions))
	s.nextAccountID = 0
	s.nextTxID = 0

	for _, pa := range doc.Accounts {
		account := &model.Account{
			ID:         pa.ID,
			Name:       pa.Name,
			Email:      pa.Email,
			SecretHash: pa.SecretHash,
			Balance:    pa.Balance,
			CreatedAt:  pa.CreatedAt,
		}
		s.byEmail[account.Email] = account
		s.byID[account.ID] = account
		if account.ID > s.nextAccountID {
			s.nextAccountID = account.ID
		}
	}
	for _, tx := range doc.Transactions {
		cp := tx
		s.transactions = append(s.transactions, &cp)
		if cp.ID > s.nextTxID {
			s.nextTxID = cp.ID
		}
	}
}
