// internal/auth/token.go
//
// JWT signing/parsing and cookie handling.
//   - Tokens are HS256 with id/username claims and a configurable expiry.
//   - The auth cookie carries the token; a bearer header works too.
//   - Guests get a long-lived anonymous cookie so their progress has an owner.

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const anonTTL = 180 * 24 * time.Hour

// Options configures a Manager.
type Options struct {
	Secret         string
	ExpiresDays    int
	CookieName     string
	AnonCookieName string
	Secure         bool // production: Secure + SameSite=None
}

// Manager issues tokens and cookies.
type Manager struct {
	opts Options
	now  func() time.Time
}

// NewManager returns a Manager. ExpiresDays <= 0 uses 14 days.
func NewManager(opts Options) *Manager {
	if opts.ExpiresDays <= 0 {
		opts.ExpiresDays = 14
	}
	return &Manager{opts: opts, now: time.Now}
}

// Claims is the identity carried by a token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sign creates a token for the user and returns it with its expiry.
func (m *Manager) Sign(id, username string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(time.Duration(m.opts.ExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := t.SignedString([]byte(m.opts.Secret))
	return ss, exp, err
}

// Parse validates a token and returns its claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid || claims.ID == "" || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) sameSite() http.SameSite {
	if m.opts.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.sameSite(),
		MaxAge:   -1,
	})
}

// TokenFrom extracts a bearer token from the Authorization header or the
// auth cookie.
func (m *Manager) TokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(m.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// AnonID returns the anonymous cookie value, if present.
func (m *Manager) AnonID(r *http.Request) string {
	if c, err := r.Cookie(m.opts.AnonCookieName); err == nil {
		return c.Value
	}
	return ""
}

// EnsureAnonID returns the existing anonymous ID or sets a new cookie.
func (m *Manager) EnsureAnonID(w http.ResponseWriter, r *http.Request) string {
	if id := m.AnonID(r); id != "" {
		return id
	}
	id := "anon-" + uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.AnonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.sameSite(),
		Expires:  m.now().Add(anonTTL),
	})
	// Later reads in this request see the new ID.
	r.AddCookie(&http.Cookie{Name: m.opts.AnonCookieName, Value: id})
	return id
}
