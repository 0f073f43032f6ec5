package usecase

import (
	"context"
	"strings"
)

// Session identifies who drives a DataManager. Scope partitions the listing cache between
// tenants; it defaults to the user id.
type Session struct {
	Token     string
	UserID    string
	SessionID string
	Scope     string
	Roles     []string
}

func (s Session) cacheScope() string {
	if scope := strings.TrimSpace(s.Scope); scope != "" {
		return scope
	}
	return strings.TrimSpace(s.UserID)
}

func (s Session) key() string {
	if id := strings.TrimSpace(s.SessionID); id != "" {
		return id
	}
	return s.cacheScope()
}

type sessionContextKey struct{}

// ContextWithSession attaches the session to ctx for downstream consumers such as notifiers.
func ContextWithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the session attached by ContextWithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
