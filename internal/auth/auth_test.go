package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/lingo/assets"
	"github.com/robalobadob/lingo/internal/db"
)

func newTestUsers(t *testing.T) *Users {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	fsys, err := assets.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(context.Background(), sqlDB, fsys); err != nil {
		t.Fatal(err)
	}
	return NewUsers(sqlDB)
}

func testManager() *Manager {
	return NewManager(Options{Secret: "test", CookieName: "tok", AnonCookieName: "anon"})
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		user, pass string
		ok         bool
	}{
		{"amy_01", "password1", true},
		{"am", "password1", false},
		{"amy!", "password1", false},
		{strings.Repeat("a", 25), "password1", false},
		{"amy", "short", false},
		{"amy", strings.Repeat("p", 73), false},
	}
	for _, tt := range tests {
		if err := validateSignup(tt.user, tt.pass); (err == nil) != tt.ok || (err != nil && !errors.Is(err, ErrInvalidSignup)) {
			t.Errorf("validateSignup(%q, len %d) = %v", tt.user, len(tt.pass), err)
		}
	}
}

func TestUsersCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)

	u, err := users.Create(ctx, "  Amy  ", "password1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "Amy" || u.ID == "" || u.PasswordHash == "password1" {
		t.Fatalf("user = %+v", u)
	}
	if _, err := users.Create(ctx, "amy", "password2"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate err = %v", err)
	}

	got, err := users.Authenticate(ctx, "AMY", "password1")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate = %+v, %v", got, err)
	}
	if _, err := users.Authenticate(ctx, "amy", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
	if _, err := users.ByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ByID err = %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()
	tok, exp, err := m.Sign("u1", "amy")
	if err != nil {
		t.Fatal(err)
	}
	if d := time.Until(exp); d < 13*24*time.Hour || d > 15*24*time.Hour {
		t.Fatalf("expiry in %v, want ~14 days", d)
	}
	c, err := m.Parse(tok)
	if err != nil || c.ID != "u1" || c.Username != "amy" {
		t.Fatalf("Parse = %+v, %v", c, err)
	}

	other := NewManager(Options{Secret: "other"})
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret err = %v", err)
	}

	expired := testManager()
	expired.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	old, _, _ := expired.Sign("u1", "amy")
	if _, err := m.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired err = %v", err)
	}
	if _, err := m.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestTokenFrom(t *testing.T) {
	m := testManager()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc")
	r.AddCookie(&http.Cookie{Name: "tok", Value: "cookie"})
	if got := m.TokenFrom(r); got != "abc" {
		t.Fatalf("header token = %q", got)
	}
	r.Header.Del("Authorization")
	if got := m.TokenFrom(r); got != "cookie" {
		t.Fatalf("cookie token = %q", got)
	}
}

func TestEnsureAnonID(t *testing.T) {
	m := testManager()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	id := m.EnsureAnonID(w, r)
	if !strings.HasPrefix(id, "anon-") {
		t.Fatalf("id = %q", id)
	}
	if again := m.EnsureAnonID(w, r); again != id {
		t.Fatalf("second call in same request = %q, want %q", again, id)
	}
	if n := len(w.Result().Cookies()); n != 1 {
		t.Fatalf("cookies set = %d", n)
	}

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(&http.Cookie{Name: "anon", Value: "anon-x"})
	if got := m.EnsureAnonID(httptest.NewRecorder(), r2); got != "anon-x" {
		t.Fatalf("existing cookie ignored: %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)
	u, err := users.Create(ctx, "amy", "password1")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMiddleware(testManager(), users)
	tok, _, _ := m.Tokens().Sign(u.ID, u.Username)
	ghost, _, _ := m.Tokens().Sign("deleted", "ghost")

	var seen *Identity
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		mw         func(http.Handler) http.Handler
		token      string
		wantStatus int
		wantUser   bool
	}{
		{"optional guest", m.Optional, "", http.StatusNoContent, false},
		{"optional user", m.Optional, tok, http.StatusNoContent, true},
		{"optional deleted user", m.Optional, ghost, http.StatusNoContent, false},
		{"require guest", m.Require, "", http.StatusUnauthorized, false},
		{"require bad token", m.Require, "nope", http.StatusUnauthorized, false},
		{"require user", m.Require, tok, http.StatusNoContent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			tt.mw(h).ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if (seen != nil) != tt.wantUser {
				t.Fatalf("identity = %+v", seen)
			}
			if tt.wantUser && seen.ID != u.ID {
				t.Fatalf("identity id = %s", seen.ID)
			}
		})
	}
}

func TestLearnerID(t *testing.T) {
	m := NewMiddleware(testManager(), nil)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := m.LearnerID(httptest.NewRecorder(), r); !strings.HasPrefix(id, "anon-") {
		t.Fatalf("guest learner = %q", id)
	}
	r = r.WithContext(WithIdentity(r.Context(), &Identity{ID: "u1", Username: "amy"}))
	if id := m.LearnerID(httptest.NewRecorder(), r); id != "u1" {
		t.Fatalf("user learner = %q", id)
	}
}
