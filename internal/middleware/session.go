package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaikwasi806/bank-app/internal/auth"
	"github.com/shaikwasi806/bank-app/internal/model"
	"github.com/shaikwasi806/bank-app/internal/session"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// TokenValidator validates a raw session token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*model.SessionContext, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger    *slog.Logger
	Validator TokenValidator
}

// Session returns a middleware that authenticates requests via the session
// cookie. It validates the token and injects the session context into the
// request. All failure modes produce the same 401 response so clients cannot
// distinguish a missing cookie from a forged or expired token.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_cookie"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			sess, err := cfg.Validator.Validate(r.Context(), cookie.Value)
			if err != nil {
				reason := "invalid_token"
				if !errors.Is(err, session.ErrUnauthorized) {
					// Registry lookup failed; still refuse, but log loudly.
					reason = "registry_error"
					cfg.Logger.Error("session registry check failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent probing.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"UNAUTHORIZED"}`))
}
