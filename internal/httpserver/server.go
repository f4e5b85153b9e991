// internal/httpserver/server.go
//
// HTTP server wiring for the lingo backend (the lesson shell).
// Responsibilities:
//   - Router + middleware (request IDs, real IP, request logging, panic
//     recovery, CORS, timeouts, JSON content type).
//   - Public endpoints: "/", "/health".
//   - Learning path + lessons (optional auth): /units, /lessons/{id}, /me, /quests.
//   - Attempts (optional auth): start, view, gestures, check/continue/skip, websocket.
//   - Daily practice pick and XP leaderboard: /daily, /leaderboard.
//   - Accounts: /auth/*.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with the user when a valid token is
//     present; guests are identified by an anonymous cookie.
//   - Game types are single-threaded: every attempt is locked for the whole
//     request or websocket frame.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lingo/internal/auth"
	"github.com/robalobadob/lingo/internal/catalog"
	"github.com/robalobadob/lingo/internal/game"
	"github.com/robalobadob/lingo/internal/progress"
	"github.com/robalobadob/lingo/internal/store"
)

// Options are the shell settings taken from config.
type Options struct {
	ClientOrigin   string
	RequestTimeout time.Duration
	MaxHearts      int
	DevMode        bool // locked lessons may be started
	DailySalt      string
	// Shuffler overrides the word-bank shuffle (tests).
	Shuffler game.Shuffler
	Now      func() time.Time
}

// Deps are the collaborators the shell drives.
type Deps struct {
	Catalog  *catalog.Catalog
	Attempts store.Store
	// Snapshots is optional; nil keeps attempts in memory only.
	Snapshots store.Snapshots
	Progress  *progress.Store
	Auth      *auth.Middleware
}

// Server bundles router and collaborators.
type Server struct {
	r    *chi.Mux
	opts Options
	Deps

	restoreMu sync.Mutex
}

// New constructs a Server, installs middleware, and registers routes.
func New(deps Deps, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{r: chi.NewRouter(), opts: opts, Deps: deps}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.ClientOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.r.Use(s.Auth.Optional)

	// Websocket: no handler timeout, no JSON header.
	s.r.Get("/attempts/{id}/ws", s.handleAttemptWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "lingo",
				"endpoints": []string{"/health", "/units", "POST /lessons/{id}/attempts", "/attempts/{id}", "/auth/*"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		s.mountLessons(r)
		s.mountAttempts(r)
		s.mountDaily(r)
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() http.Handler { return s.r }

// HTTPServer returns an *http.Server serving the router on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// errBadFrame marks malformed gesture or command input.
var errBadFrame = errors.New("bad_frame")

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrFeedbackShown),
		errors.Is(err, game.ErrNoFeedback),
		errors.Is(err, game.ErrAttemptOver),
		errors.Is(err, game.ErrNothingSelected),
		errors.Is(err, game.ErrNoExercise):
		return http.StatusConflict
	case errors.Is(err, errBadFrame):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorCode is the JSON error string for err.
func errorCode(err error) string {
	switch statusFor(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "server_error"
	}
	return err.Error()
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, errorCode(err))
}

// background returns a short-lived context detached from the request, for
// best-effort writes that should finish even if the client goes away.
func background() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
