// internal/httpserver/routes_lessons.go
//
// Learning path and learner progress:
//   - GET /units         → units with per-learner node status
//   - GET /lessons/{id}  → lesson summary (answers are never sent)
//   - GET /me            → XP, level, streak, completions
//   - GET /me/history    → recent finished attempts
//   - GET /quests        → today's quests with progress
//
// All of these work for guests (anonymous cookie) and users alike.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/lingo/internal/auth"
	"github.com/robalobadob/lingo/internal/catalog"
	"github.com/robalobadob/lingo/internal/progress"
)

func (s *Server) mountLessons(r chi.Router) {
	r.Get("/units", s.handleUnits)
	r.Get("/lessons/{id}", s.handleLesson)
	r.Get("/me", s.handleMe)
	r.Get("/me/history", s.handleHistory)
	r.Get("/quests", s.handleQuests)
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.Progress.Units(r.Context(), s.Auth.LearnerID(w, r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": units})
}

// lessonRes is the public summary of a lesson.
type lessonRes struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	XPReward    int                 `json:"xpReward"`
	Exercises   int                 `json:"exercises"`
	Status      progress.NodeStatus `json:"status"`
}

func summarize(l *catalog.Lesson, st progress.NodeStatus) lessonRes {
	return lessonRes{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		XPReward:    l.XPReward,
		Exercises:   len(l.Exercises),
		Status:      st,
	}
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := s.Catalog.Lesson(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	st, err := s.Progress.NodeStatus(r.Context(), s.Auth.LearnerID(w, r), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(l, st))
}

// meRes is the learner profile plus the account, when signed in.
type meRes struct {
	progress.Profile
	User *auth.Identity `json:"user"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.Progress.Profile(r.Context(), s.Auth.LearnerID(w, r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meRes{Profile: p, User: auth.FromContext(r.Context())})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := s.Progress.History(r.Context(), s.Auth.LearnerID(w, r), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	qs, err := s.Progress.Quests(r.Context(), s.Auth.LearnerID(w, r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": qs})
}
