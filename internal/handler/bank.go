package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaikwasi806/bank-app/internal/auth"
	"github.com/shaikwasi806/bank-app/internal/handler/dto"
	"github.com/shaikwasi806/bank-app/internal/middleware"
	"github.com/shaikwasi806/bank-app/internal/service"
)

// BankHandler handles the authenticated banking endpoints. All of its
// routes sit behind the session middleware, so a session context is always
// present.
type BankHandler struct {
	accounts *service.AccountService
	ledger   *service.LedgerService
	logger   *slog.Logger
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(accounts *service.AccountService, ledger *service.LedgerService, logger *slog.Logger) *BankHandler {
	return &BankHandler{
		accounts: accounts,
		ledger:   ledger,
		logger:   logger,
	}
}

// Balance handles GET /api/balance.
func (h *BankHandler) Balance(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())

	account, err := h.accounts.AccountByID(r.Context(), sess.AccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Name:    account.Name,
		Balance: account.Balance,
	})
}

// Transfer handles POST /api/transfer.
func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.ledger.Transfer(r.Context(), service.TransferInput{
		SenderID:       sess.AccountID,
		RecipientEmail: req.RecipientEmail,
		Amount:         req.Amount,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("transfer",
		"transaction_id", out.Transaction.ID,
		"sender_id", sess.AccountID,
		"amount", out.Transaction.Amount,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.TransferResponse{
		Message:     "Transfer complete",
		NewBalance:  out.NewBalance,
		Transaction: dto.ToTransactionResponse(out.Transaction),
	})
}

// Transactions handles GET /api/transactions. Returns every ledger entry
// involving the caller, oldest first.
func (h *BankHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())

	txs, err := h.ledger.History(r.Context(), sess.AccountID, sess.Email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTransactionListResponse(txs))
}

func (h *BankHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive number")
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Insufficient funds")
	case errors.Is(err, service.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound, "RECIPIENT_NOT_FOUND", "Recipient not found")
	case errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
