package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaikwasi806/bank-app/internal/handler/dto"
	"github.com/shaikwasi806/bank-app/internal/middleware"
	"github.com/shaikwasi806/bank-app/internal/service"
)

// AccountHandler handles registration, login and logout.
type AccountHandler struct {
	svc          *service.AccountService
	logger       *slog.Logger
	cookieTTL    time.Duration
	secureCookie bool
}

// NewAccountHandler creates a new AccountHandler. secureCookie should be
// true everywhere except local development without TLS.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger, cookieTTL time.Duration, secureCookie bool) *AccountHandler {
	return &AccountHandler{
		svc:          svc,
		logger:       logger,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// Register handles POST /api/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	account, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Secret,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("account_registered",
		"account_id", account.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.RegisterResponse{
		Message: "Account created",
		Account: dto.ToAccountResponse(account),
	})
}

// Login handles POST /api/login. On success the session token is set as an
// HTTP-only cookie; it never appears in the response body.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.Login(r.Context(), req.Email, req.Secret)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    out.Token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login",
		"account_id", out.Account.ID,
		"token_id", out.Record.TokenID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Message: "Logged in",
		Account: dto.ToAccountResponse(out.Account),
	})
}

// Logout handles POST /api/logout. It clears the cookie on the client; the
// registry entry is left to lapse with the token's own expiry.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AccountHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Missing or malformed field")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or secret")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
