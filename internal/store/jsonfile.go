package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// FileStore persists the whole state as one JSON document after every
// mutation. Writes go to a temp file first and replace the document with
// os.Rename, so a crash mid-write never corrupts the previous state.
//
// An outer mutex serializes every operation, reads included, so the
// in-memory state and the on-disk document always agree and no reader can
// observe a mutation that a failed write then rolls back.
type FileStore struct {
	mu   sync.Mutex
	mem  *MemoryStore
	path string
}

// NewFileStore opens (or creates) the JSON document at path.
func NewFileStore(path string, initialBalance int64) (*FileStore, error) {
	s := &FileStore{
		mem:  NewMemoryStore(initialBalance),
		path: path,
	}

	doc, err := readDocument(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load store file: %w", err)
		}
		// Missing file: start empty and create the document on first save.
		return s, nil
	}

	s.mem.Import(doc)
	return s, nil
}

// CreateAccount registers an account and persists the document.
func (s *FileStore) CreateAccount(ctx context.Context, name, email, secretHash string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.mem.Export()
	account, err := s.mem.CreateAccount(ctx, name, email, secretHash)
	if err != nil {
		return nil, err
	}
	if err := s.save(before); err != nil {
		return nil, err
	}
	return account, nil
}

// AccountByEmail returns the account for the email.
func (s *FileStore) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.AccountByEmail(ctx, email)
}

// AccountByID returns the account for the id.
func (s *FileStore) AccountByID(ctx context.Context, id int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.AccountByID(ctx, id)
}

// AdjustBalance applies a delta and persists the document.
func (s *FileStore) AdjustBalance(ctx context.Context, id int64, delta int64) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.mem.Export()
	account, err := s.mem.AdjustBalance(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	if err := s.save(before); err != nil {
		return nil, err
	}
	return account, nil
}

// Transfer performs an atomic transfer and persists the document. The debit,
// credit and ledger append commit together or not at all.
func (s *FileStore) Transfer(ctx context.Context, senderID int64, recipientEmail string, amount int64) (*model.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.mem.Export()
	tx, newBalance, err := s.mem.Transfer(ctx, senderID, recipientEmail, amount)
	if err != nil {
		return nil, 0, err
	}
	if err := s.save(before); err != nil {
		return nil, 0, err
	}
	return tx, newBalance, nil
}

// TransactionsFor returns the account's transactions in insertion order.
func (s *FileStore) TransactionsFor(ctx context.Context, accountID int64, email string) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem.TransactionsFor(ctx, accountID, email)
}

// Ping verifies the document directory is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error {
	return nil
}

// save writes the current state to disk, rolling back to the given snapshot
// if the write fails. Callers must hold s.mu.
func (s *FileStore) save(before Document) error {
	if err := writeDocument(s.path, s.mem.Export()); err != nil {
		s.mem.Import(before)
		return fmt.Errorf("persist store file: %w", err)
	}
	return nil
}

func readDocument(path string) (Document, error) {
	var doc Document
	f, err := os.Open(path)
	if err != nil {
		return doc, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// writeDocument writes atomically: temp file first, then rename over the
// target so readers never observe a half-written document.
func writeDocument(path string, doc Document) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
