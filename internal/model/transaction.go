package model

import "time"

// KindTransfer is the only transaction kind in the current ledger.
const KindTransfer = "transfer"

// Transaction is the immutable record of a completed transfer.
// It is appended to the ledger only as the side effect of a successful
// debit-credit pair and never modified afterwards.
type Transaction struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"sender_id"`
	SenderEmail    string    `json:"sender_email"`
	RecipientEmail string    `json:"recipient_email"`
	Amount         int64     `json:"amount"`
	Timestamp      time.Time `json:"timestamp"`
	Kind           string    `json:"kind"`
}

// Involves reports whether the given account (by id or email) appears in
// this transaction as sender or recipient.
func (t *Transaction) Involves(accountID int64, email string) bool {
	return t.SenderID == accountID || t.SenderEmail == email || t.RecipientEmail == email
}
