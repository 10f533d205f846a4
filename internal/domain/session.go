package domain

import (
	"context"

	"github.com/google/uuid"
)

// Session is the caller's identity forwarded to the upstream service.
// It travels in the request context instead of process-wide state.
type Session struct {
	ID    uuid.UUID
	Token string
}

type sessionKey struct{}

// NewSession creates a session with a fresh ID for the given bearer token.
func NewSession(token string) Session {
	return Session{ID: uuid.New(), Token: token}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session from ctx, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
