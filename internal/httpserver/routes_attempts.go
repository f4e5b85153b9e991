// internal/httpserver/routes_attempts.go
//
// Lesson attempts:
//   - POST /lessons/{id}/attempts  → start an attempt (403 when the node is locked)
//   - GET  /attempts/{id}          → current view
//   - POST /attempts/{id}/gestures → apply one gesture frame
//   - POST /attempts/{id}/check    → check the answer, show feedback
//   - POST /attempts/{id}/continue → apply feedback, deal next exercise
//   - POST /attempts/{id}/skip     → move the exercise to the back
//
// Attempts live in the memory store; when Redis is configured a snapshot is
// written after every state change and restored on a memory miss. A finished
// attempt is reported to the progression store exactly once.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lingo/internal/auth"
	"github.com/robalobadob/lingo/internal/game"
	"github.com/robalobadob/lingo/internal/progress"
	"github.com/robalobadob/lingo/internal/store"
)

// frame is one gesture or command, sent over HTTP or the websocket.
type frame struct {
	Type  string         `json:"type"`
	At    *game.Location `json:"at,omitempty"`
	From  *game.Location `json:"from,omitempty"`
	To    *game.Location `json:"to,omitempty"`
	Over  *game.Location `json:"over,omitempty"`
	Slot  int            `json:"slot,omitempty"`
	Width float64        `json:"width,omitempty"`
	Order []int          `json:"order,omitempty"`
}

// result is the reply to a frame.
type result struct {
	Applied *bool         `json:"applied,omitempty"`
	Correct *bool         `json:"correct,omitempty"`
	Outcome *game.Outcome `json:"outcome,omitempty"`
	View    game.View     `json:"view"`
}

func isCommand(t string) bool {
	return t == "check" || t == "continue" || t == "skip"
}

// applyGesture routes a gesture frame to the controller.
func applyGesture(c *game.Controller, f frame) (bool, error) {
	switch f.Type {
	case "click":
		if f.At == nil {
			return false, errBadFrame
		}
		return c.Click(*f.At), nil
	case "drop":
		if f.From == nil {
			return false, errBadFrame
		}
		if f.To == nil {
			// released over nothing
			return false, nil
		}
		return c.Drop(*f.From, *f.To), nil
	case "drag_start":
		if f.From == nil {
			return false, errBadFrame
		}
		return c.DragStart(*f.From), nil
	case "drag_end":
		return c.DragEnd(f.Over), nil
	case "measure":
		return c.Measure(f.Slot, f.Width), nil
	case "reorder":
		return c.Reorder(f.Order), nil
	}
	return false, errBadFrame
}

func (s *Server) mountAttempts(r chi.Router) {
	r.Post("/lessons/{id}/attempts", s.handleStartAttempt)
	r.Get("/attempts/{id}", s.handleGetAttempt)
	r.Post("/attempts/{id}/gestures", s.handleGesture)
	r.Post("/attempts/{id}/check", s.handleCommand("check"))
	r.Post("/attempts/{id}/continue", s.handleCommand("continue"))
	r.Post("/attempts/{id}/skip", s.handleCommand("skip"))
}

func (s *Server) sessionOpts() []game.Option {
	opts := []game.Option{game.WithHearts(s.opts.MaxHearts), game.WithClock(s.opts.Now)}
	if s.opts.Shuffler != nil {
		opts = append(opts, game.WithShuffler(s.opts.Shuffler))
	}
	return opts
}

// handleStartAttempt creates a new attempt at a lesson the learner may play.
func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "id")
	lesson, err := s.Catalog.Lesson(lessonID)
	if err != nil {
		writeErr(w, err)
		return
	}
	learner := s.Auth.LearnerID(w, r)

	if !s.opts.DevMode {
		st, err := s.Progress.NodeStatus(r.Context(), learner, lessonID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if st == progress.NodeLocked {
			writeError(w, http.StatusForbidden, "locked")
			return
		}
	}

	sess, err := game.NewSession(uuid.NewString(), lesson, s.sessionOpts()...)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	e := store.NewEntry(learner, sess)
	if err := s.Attempts.Save(r.Context(), e); err != nil {
		writeErr(w, err)
		return
	}
	s.persist(r.Context(), e)

	if err := s.Progress.Touch(r.Context(), learner, lessonID); err != nil {
		log.Warn().Err(err).Str("learner", learner).Msg("touch lesson")
	}
	log.Info().Str("attempt", sess.ID).Str("lesson", lessonID).Str("learner", learner).Msg("attempt started")

	writeJSON(w, http.StatusCreated, e.Ctrl.View())
}

// owns reports whether the request's learner may act on e. A guest who
// signed in mid-attempt keeps the attempt, which moves to the user.
func (s *Server) owns(r *http.Request, e *store.Entry) bool {
	if me := auth.FromContext(r.Context()); me != nil {
		if e.LearnerID == me.ID {
			return true
		}
		if anon := s.Auth.Tokens().AnonID(r); anon != "" && e.LearnerID == anon {
			e.LearnerID = me.ID
			return true
		}
		return false
	}
	return e.LearnerID != "" && e.LearnerID == s.Auth.Tokens().AnonID(r)
}

// loadAttempt finds an attempt in memory, falling back to its snapshot.
func (s *Server) loadAttempt(ctx context.Context, id string) (*store.Entry, error) {
	e, err := s.Attempts.Get(ctx, id)
	if err == nil || !errors.Is(err, store.ErrNotFound) || s.Snapshots == nil {
		return e, err
	}

	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()
	if e, err := s.Attempts.Get(ctx, id); err == nil {
		return e, nil
	}
	rec, err := s.Snapshots.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	lesson, err := s.Catalog.Lesson(rec.Snapshot.LessonID)
	if err != nil {
		return nil, err
	}
	sess, err := game.Restore(rec.Snapshot, lesson, s.sessionOpts()...)
	if err != nil {
		log.Warn().Err(err).Str("attempt", id).Msg("discarding snapshot")
		_ = s.Snapshots.Remove(ctx, id)
		return nil, store.ErrNotFound
	}
	e = store.NewEntry(rec.LearnerID, sess)
	e.Recorded = rec.Recorded
	if err := s.Attempts.Save(ctx, e); err != nil {
		return nil, err
	}
	log.Info().Str("attempt", id).Msg("attempt restored")
	return e, nil
}

// current returns the live entry for an attempt a long-lived caller holds.
// If the entry was swept it is put back, unless a request has already
// restored the attempt, in which case the restored entry wins.
func (s *Server) current(ctx context.Context, held *store.Entry) *store.Entry {
	if e, err := s.Attempts.Get(ctx, held.ID); err == nil {
		return e
	}
	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()
	if e, err := s.Attempts.Get(ctx, held.ID); err == nil {
		return e
	}
	if err := s.Attempts.Save(ctx, held); err != nil {
		log.Warn().Err(err).Str("attempt", held.ID).Msg("re-saving attempt")
	}
	return held
}

// withAttempt loads the attempt named in the URL, checks ownership and runs
// fn with the attempt locked.
func (s *Server) withAttempt(w http.ResponseWriter, r *http.Request, fn func(e *store.Entry)) {
	e, err := s.loadAttempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	e.Lock()
	defer e.Unlock()
	if !s.owns(r, e) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	fn(e)
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	s.withAttempt(w, r, func(e *store.Entry) {
		writeJSON(w, http.StatusOK, e.Ctrl.View())
	})
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var f frame
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil || isCommand(f.Type) {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	s.withAttempt(w, r, func(e *store.Entry) {
		res, err := s.apply(r.Context(), e, f)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func (s *Server) handleCommand(cmd string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withAttempt(w, r, func(e *store.Entry) {
			res, err := s.apply(r.Context(), e, frame{Type: cmd})
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		})
	}
}

// apply runs one frame against a locked attempt.
func (s *Server) apply(ctx context.Context, e *store.Entry, f frame) (result, error) {
	var res result
	switch f.Type {
	case "check":
		ok, err := e.Ctrl.Check()
		if err != nil {
			return res, err
		}
		res.Correct = &ok
		s.persist(ctx, e)
	case "continue":
		out, err := e.Ctrl.Continue()
		if err != nil {
			return res, err
		}
		res.Outcome = &out
		if out.Finished() {
			s.finish(e, out)
		}
		s.persist(ctx, e)
	case "skip":
		if err := e.Ctrl.Skip(); err != nil {
			return res, err
		}
		s.persist(ctx, e)
	default:
		applied, err := applyGesture(e.Ctrl, f)
		if err != nil {
			return res, err
		}
		res.Applied = &applied
		_ = s.Attempts.Save(ctx, e)
	}
	res.View = e.Ctrl.View()
	return res, nil
}

// finish reports a terminal outcome to the progression store. The store
// pays out at most once per attempt ID, so a second entry for the same
// attempt cannot award XP twice. Failures are logged; the learner still
// sees the outcome.
func (s *Server) finish(e *store.Entry, out game.Outcome) {
	if e.Recorded {
		return
	}

	ctx, cancel := background()
	defer cancel()
	l := log.With().Str("attempt", e.ID).Str("learner", e.LearnerID).Str("lesson", out.LessonID).Logger()

	fresh, err := s.Progress.FinishAttempt(ctx, progress.Attempt{
		ID:        e.ID,
		LearnerID: e.LearnerID,
		LessonID:  out.LessonID,
		Status:    string(out.Status),
		Mistakes:  out.Mistakes,
		XP:        out.XP,
		StartedAt: e.Session().StartedAt,
	})
	if err != nil {
		l.Error().Err(err).Msg("finish attempt")
		return
	}
	e.Recorded = true
	if !fresh {
		l.Warn().Msg("duplicate finish ignored")
		return
	}
	l.Info().Str("status", string(out.Status)).Int("xp", out.XP).Int("mistakes", out.Mistakes).Msg("attempt finished")
}

// persist refreshes the attempt in memory and writes its snapshot.
func (s *Server) persist(ctx context.Context, e *store.Entry) {
	_ = s.Attempts.Save(ctx, e)
	if s.Snapshots == nil {
		return
	}
	rec := store.Record{LearnerID: e.LearnerID, Recorded: e.Recorded, Snapshot: e.Session().Snapshot()}
	if err := s.Snapshots.Put(ctx, rec); err != nil {
		log.Warn().Err(err).Str("attempt", e.ID).Msg("snapshot")
	}
}
