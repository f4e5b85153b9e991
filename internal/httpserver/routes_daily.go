// internal/httpserver/routes_daily.go
//
// Daily routes:
//   - GET /daily       → today's practice lesson (same for everyone, date + salt)
//   - GET /leaderboard → top learners by XP earned on a date (default today)
//
// The daily pick is deterministic: every learner gets the same lesson for a
// UTC date, and it changes at midnight UTC.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/lingo/internal/daily"
)

func (s *Server) mountDaily(r chi.Router) {
	r.Get("/daily", s.handleDaily)
	r.Get("/leaderboard", s.handleLeaderboard)
}

// dailyRes is returned by /daily.
type dailyRes struct {
	Date   string    `json:"date"`
	Lesson lessonRes `json:"lesson"`
}

// handleDaily returns today's practice lesson with the learner's status.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	now := s.opts.Now().UTC()
	lessons := s.Catalog.Lessons()
	if len(lessons) == 0 {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	l := lessons[daily.Index(now, s.opts.DailySalt, len(lessons))]

	st, err := s.Progress.NodeStatus(r.Context(), s.Auth.LearnerID(w, r), l.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyRes{Date: daily.DateKey(now), Lesson: summarize(l, st)})
}

// lbRes is returned by /leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.opts.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := s.Progress.Days().Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
