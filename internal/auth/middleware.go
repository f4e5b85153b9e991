package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Identity is the authenticated user placed into the request context.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, id)
}

// FromContext returns the authenticated user, or nil for guests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxUserKey{}).(*Identity)
	return id
}

// Middleware verifies tokens against the users table.
type Middleware struct {
	tokens *Manager
	users  *Users
}

func NewMiddleware(tokens *Manager, users *Users) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

func (m *Middleware) identify(r *http.Request) *Identity {
	tok := m.tokens.TokenFrom(r)
	if tok == "" {
		return nil
	}
	claims, err := m.tokens.Parse(tok)
	if err != nil {
		return nil
	}
	// Ensure user still exists
	u, err := m.users.ByID(r.Context(), claims.ID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Warn().Err(err).Str("user", claims.ID).Msg("auth lookup")
		}
		return nil
	}
	return &Identity{ID: u.ID, Username: u.Username}
}

// Optional decorates requests with the user when a valid token is present.
// It never rejects; guests continue without an identity.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := m.identify(r); id != nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.tokens.TokenFrom(r) == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		id := m.identify(r)
		if id == nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// LearnerID is the owner of progress for this request: the user ID when
// authenticated, otherwise the anonymous cookie ID (created if missing).
func (m *Middleware) LearnerID(w http.ResponseWriter, r *http.Request) string {
	if id := FromContext(r.Context()); id != nil {
		return id.ID
	}
	return m.tokens.EnsureAnonID(w, r)
}

// Tokens exposes the token manager.
func (m *Middleware) Tokens() *Manager { return m.tokens }

// Users exposes the users repository.
func (m *Middleware) Users() *Users { return m.users }
