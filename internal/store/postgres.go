package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// transferLockID is the advisory lock serializing ledger mutations.
// One writer at a time keeps the debit-credit-append sequence indivisible
// without row-ordering concerns between concurrent transfers.
const transferLockID int64 = 806001

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	secret_hash TEXT NOT NULL,
	balance     BIGINT NOT NULL CHECK (balance >= 0),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	id              BIGSERIAL PRIMARY KEY,
	sender_id       BIGINT NOT NULL REFERENCES accounts(id),
	sender_email    TEXT NOT NULL,
	recipient_email TEXT NOT NULL,
	amount          BIGINT NOT NULL CHECK (amount > 0),
	ts              TIMESTAMPTZ NOT NULL DEFAULT now(),
	kind            TEXT NOT NULL DEFAULT 'transfer'
);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool           *pgxpool.Pool
	initialBalance int64
}

// NewPostgresStore connects to the database, verifies connectivity and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string, initialBalance int64) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresStore{pool: pool, initialBalance: initialBalance}, nil
}

// CreateAccount inserts a new account with the configured initial balance.
func (s *PostgresStore) CreateAccount(ctx context.Context, name, email, secretHash string) (*model.Account, error) {
	query := `
		INSERT INTO accounts (name, email, secret_hash, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, secret_hash, balance, created_at
	`

	account, err := scanAccount(s.pool.QueryRow(ctx, query, name, email, secretHash, s.initialBalance))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// AccountByEmail retrieves an account by its email address.
func (s *PostgresStore) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT id, name, email, secret_hash, balance, created_at
		FROM accounts
		WHERE email = $1
	`

	account, err := scanAccount(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// AccountByID retrieves an account by its id.
func (s *PostgresStore) AccountByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `
		SELECT id, name, email, secret_hash, balance, created_at
		FROM accounts
		WHERE id = $1
	`

	account, err := scanAccount(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

// AdjustBalance applies a signed delta inside a serialized transaction.
func (s *PostgresStore) AdjustBalance(ctx context.Context, id int64, delta int64) (*model.Account, error) {
	var account *model.Account

	err := s.withTransferLock(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE accounts
			SET balance = balance + $2
			WHERE id = $1 AND balance + $2 >= 0
			RETURNING id, name, email, secret_hash, balance, created_at
		`

		a, err := scanAccount(tx.QueryRow(ctx, query, id, delta))
		if err == nil {
			account = a
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to adjust balance: %w", err)
		}

		// No row updated: either the account is missing or the balance
		// would have gone negative.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if !exists {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Transfer debits the sender, credits the recipient and appends the ledger
// row inside one transaction guarded by the advisory lock. The sender's
// post-debit balance comes from the debit statement itself, so it is exact
// for this transfer regardless of concurrent ones.
func (s *PostgresStore) Transfer(ctx context.Context, senderID int64, recipientEmail string, amount int64) (*model.Transaction, int64, error) {
	var record *model.Transaction
	var newBalance int64

	err := s.withTransferLock(ctx, func(tx pgx.Tx) error {
		sender, err := scanAccount(tx.QueryRow(ctx, `
			SELECT id, name, email, secret_hash, balance, created_at
			FROM accounts WHERE id = $1
		`, senderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to load sender: %w", err)
		}

		recipient, err := scanAccount(tx.QueryRow(ctx, `
			SELECT id, name, email, secret_hash, balance, created_at
			FROM accounts WHERE email = $1
		`, recipientEmail))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRecipientNotFound
			}
			return fmt.Errorf("failed to load recipient: %w", err)
		}

		if sender.Balance < amount {
			return ErrInsufficientFunds
		}

		err = tx.QueryRow(ctx, `
			UPDATE accounts SET balance = balance - $2 WHERE id = $1
			RETURNING balance
		`, sender.ID, amount).Scan(&newBalance)
		if err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $2 WHERE id = $1`, recipient.ID, amount); err != nil {
			return fmt.Errorf("failed to credit recipient: %w", err)
		}

		t := &model.Transaction{
			SenderID:       sender.ID,
			SenderEmail:    sender.Email,
			RecipientEmail: recipient.Email,
			Amount:         amount,
			Kind:           model.KindTransfer,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO transactions (sender_id, sender_email, recipient_email, amount, kind)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, ts
		`, t.SenderID, t.SenderEmail, t.RecipientEmail, t.Amount, t.Kind).Scan(&t.ID, &t.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		record = t
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return record, newBalance, nil
}

// TransactionsFor returns the account's transactions oldest first.
func (s *PostgresStore) TransactionsFor(ctx context.Context, accountID int64, email string) ([]*model.Transaction, error) {
	query := `
		SELECT id, sender_id, sender_email, recipient_email, amount, ts, kind
		FROM transactions
		WHERE sender_id = $1 OR sender_email = $2 OR recipient_email = $2
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, query, accountID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.SenderID, &t.SenderEmail, &t.RecipientEmail, &t.Amount, &t.Timestamp, &t.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// withTransferLock runs fn in a transaction holding the store-wide advisory
// lock, committing on success and rolling back otherwise.
func (s *PostgresStore) withTransferLock(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, transferLockID); err != nil {
		return fmt.Errorf("failed to acquire transfer lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.SecretHash, &a.Balance, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "unique"))
}
