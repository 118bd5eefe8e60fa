package auth

import (
	"context"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// sessionContextKey is the context key for storing SessionContext.
const sessionContextKey contextKey = "session_context"

// ContextWithSession adds a SessionContext to the context.
func ContextWithSession(ctx context.Context, sess *model.SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext retrieves the SessionContext from the context.
// Returns nil if not present.
func SessionFromContext(ctx context.Context) *model.SessionContext {
	sess, ok := ctx.Value(sessionContextKey).(*model.SessionContext)
	if !ok {
		return nil
	}
	return sess
}

// MustSessionFromContext retrieves the SessionContext from the context.
// Panics if not present (use only when session middleware has run).
func MustSessionFromContext(ctx context.Context) *model.SessionContext {
	sess := SessionFromContext(ctx)
	if sess == nil {
		panic("session context not found - ensure session middleware is applied")
	}
	return sess
}
