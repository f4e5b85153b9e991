// internal/httpserver/routes_auth.go
//
// Accounts:
//   - POST /auth/signup → create user, set cookie, claim guest progress
//   - POST /auth/login  → verify password, set cookie, claim guest progress
//   - POST /auth/logout → clear cookie
//   - GET  /auth/me     → current user (401 for guests)

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lingo/internal/auth"
)

// credentials is the signup/login payload.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.With(s.Auth.Require).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
	})
}

// handleSignup creates a new user, signs a JWT, sets the auth cookie and
// claims guest progress.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.Auth.Users().Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken")
		return
	case errors.Is(err, auth.ErrInvalidSignup):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), auth.ErrInvalidSignup.Error()+": "))
		return
	case err != nil:
		writeErr(w, err)
		return
	}
	if !s.signIn(w, r, u) {
		return
	}
	log.Info().Str("user", u.ID).Msg("signup")
	writeJSON(w, http.StatusCreated, u)
}

// handleLogin authenticates the user, sets the cookie and claims guest
// progress.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.Auth.Users().Authenticate(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.signIn(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// signIn sets the auth cookie and merges the guest's progress into u.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tokens := s.Auth.Tokens()
	tok, exp, err := tokens.Sign(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	tokens.SetCookie(w, tok, exp)

	if anon := tokens.AnonID(r); anon != "" {
		if err := s.Progress.ClaimAnon(r.Context(), anon, u.ID); err != nil {
			log.Warn().Err(err).Str("user", u.ID).Msg("claim guest progress")
		}
	}
	return true
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.Tokens().ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
