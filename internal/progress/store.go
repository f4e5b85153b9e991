// internal/progress/store.go
//
// Progression store backed by SQLite.
// Responsibilities:
//   - Learner rows (XP, streak, last active day, last lesson touched).
//   - Lesson completions; node status on the learning path is derived from
//     them (completed, available when first or after a completed node, else
//     locked).
//   - Finished-attempt history.
//   - Daily counters for quests and the leaderboard (via daily.Store).
//   - Moving a guest's progress onto an account after signup/login.
//
// A learner ID is either a user ID or an anonymous cookie ID; rows are
// created lazily on first write.

package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/lingo/internal/catalog"
	"github.com/robalobadob/lingo/internal/daily"
)

// XPPerLevel is the XP needed for each level.
const XPPerLevel = 100

// Store is the progression store.
type Store struct {
	db   *sql.DB
	cat  *catalog.Catalog
	days *daily.Store
	now  func() time.Time
}

// NewStore returns a Store over db. Node statuses are derived against cat.
func NewStore(db *sql.DB, cat *catalog.Catalog) *Store {
	return &Store{db: db, cat: cat, days: daily.NewStore(db), now: time.Now}
}

// SetClock replaces the time source (tests).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Days exposes the daily counters store.
func (s *Store) Days() *daily.Store { return s.days }

func (s *Store) today() string { return daily.DateKey(s.now()) }

func (s *Store) stamp() string { return s.now().UTC().Format(time.RFC3339) }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) ensureLearner(ctx context.Context, ex execer, id string) error {
	_, err := ex.ExecContext(ctx,
		`INSERT OR IGNORE INTO learners (id, created_at) VALUES (?, ?)`, id, s.stamp())
	return err
}

// Touch records the lesson the learner last interacted with.
func (s *Store) Touch(ctx context.Context, learnerID, lessonID string) error {
	if err := s.ensureLearner(ctx, s.db, learnerID); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE learners SET last_lesson_id=? WHERE id=?`, lessonID, learnerID)
	return err
}

// CompleteLesson marks lessonID completed for the learner, which makes the
// next node on the path available. A lesson with no mistakes also counts
// toward the accuracy quest.
func (s *Store) CompleteLesson(ctx context.Context, learnerID, lessonID string, mistakes int) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.completeLesson(ctx, tx, learnerID, lessonID, mistakes)
	})
}

func (s *Store) completeLesson(ctx context.Context, tx *sql.Tx, learnerID, lessonID string, mistakes int) error {
	if err := s.ensureLearner(ctx, tx, learnerID); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	now := s.stamp()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO lesson_completions
			(learner_id, lesson_id, completions, best_mistakes, first_completed_at, last_completed_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (learner_id, lesson_id) DO UPDATE SET
			completions = completions + 1,
			best_mistakes = MIN(best_mistakes, excluded.best_mistakes),
			last_completed_at = excluded.last_completed_at`,
		learnerID, lessonID, mistakes, now, now); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE learners SET last_lesson_id=? WHERE id=?`, lessonID, learnerID); err != nil {
		return fmt.Errorf("update learner: %w", err)
	}

	c := daily.Counters{Lessons: 1}
	if mistakes == 0 {
		c.AccurateLessons = 1
	}
	if err := s.days.Add(ctx, tx, learnerID, s.today(), c); err != nil {
		return fmt.Errorf("daily counters: %w", err)
	}
	return nil
}

// AwardXP adds amount to the learner's total and today's counter, and
// advances the streak.
func (s *Store) AwardXP(ctx context.Context, learnerID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative xp %d", amount)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.awardXP(ctx, tx, learnerID, amount)
	})
}

func (s *Store) awardXP(ctx context.Context, tx *sql.Tx, learnerID string, amount int) error {
	if err := s.ensureLearner(ctx, tx, learnerID); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	var streak int
	var last string
	if err := tx.QueryRowContext(ctx,
		`SELECT streak, last_active_date FROM learners WHERE id=?`, learnerID,
	).Scan(&streak, &last); err != nil {
		return fmt.Errorf("load learner: %w", err)
	}
	today := s.today()
	if _, err := tx.ExecContext(ctx,
		`UPDATE learners SET xp = xp + ?, streak=?, last_active_date=? WHERE id=?`,
		amount, daily.Advance(streak, last, today), today, learnerID); err != nil {
		return fmt.Errorf("update learner: %w", err)
	}
	if err := s.days.Add(ctx, tx, learnerID, today, daily.Counters{XP: amount}); err != nil {
		return fmt.Errorf("daily counters: %w", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// StatusSucceeded is the history status of a passed attempt.
const StatusSucceeded = "succeeded"

// Attempt is one finished lesson attempt.
type Attempt struct {
	ID         string    `json:"id"`
	LearnerID  string    `json:"-"`
	LessonID   string    `json:"lessonId"`
	Status     string    `json:"status"`
	Mistakes   int       `json:"mistakes"`
	XP         int       `json:"xp"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RecordAttempt stores a finished attempt in the history. Recording the
// same attempt ID twice is a no-op.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.recordAttempt(ctx, s.db, a)
	return err
}

// recordAttempt inserts the history row and reports whether it was new.
func (s *Store) recordAttempt(ctx context.Context, ex execer, a Attempt) (bool, error) {
	if a.FinishedAt.IsZero() {
		a.FinishedAt = s.now()
	}
	res, err := ex.ExecContext(ctx, `
		INSERT OR IGNORE INTO attempts
			(id, learner_id, lesson_id, status, mistakes, xp, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.LearnerID, a.LessonID, a.Status, a.Mistakes, a.XP,
		a.StartedAt.UTC().Format(time.RFC3339), a.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// FinishAttempt records a finished attempt and, when it succeeded, completes
// the lesson and awards a.XP, all in one transaction. An attempt ID that is
// already in the history is ignored, so each attempt pays out at most once.
// It reports whether the attempt was new.
func (s *Store) FinishAttempt(ctx context.Context, a Attempt) (bool, error) {
	if a.XP < 0 {
		return false, fmt.Errorf("negative xp %d", a.XP)
	}
	var fresh bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if fresh, err = s.recordAttempt(ctx, tx, a); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		if !fresh || a.Status != StatusSucceeded {
			return nil
		}
		if err := s.completeLesson(ctx, tx, a.LearnerID, a.LessonID, a.Mistakes); err != nil {
			return err
		}
		return s.awardXP(ctx, tx, a.LearnerID, a.XP)
	})
	if err != nil {
		return false, err
	}
	return fresh, nil
}

// History returns the learner's most recent attempts, newest first.
func (s *Store) History(ctx context.Context, learnerID string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lesson_id, status, mistakes, xp, started_at, finished_at
		FROM attempts WHERE learner_id=?
		ORDER BY finished_at DESC, rowid DESC LIMIT ?`, learnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		a := Attempt{LearnerID: learnerID}
		var started, finished string
		if err := rows.Scan(&a.ID, &a.LessonID, &a.Status, &a.Mistakes, &a.XP, &started, &finished); err != nil {
			return nil, err
		}
		a.StartedAt = parseTime(started)
		a.FinishedAt = parseTime(finished)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Completed returns the set of lessons the learner has completed.
func (s *Store) Completed(ctx context.Context, learnerID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id FROM lesson_completions WHERE learner_id=?`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	done := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

// Profile is the learner summary shown by GET /me.
type Profile struct {
	LearnerID        string `json:"learnerId"`
	XP               int    `json:"xp"`
	Level            int    `json:"level"`
	Streak           int    `json:"streak"`
	CompletedLessons int    `json:"completedLessons"`
	LastLessonID     string `json:"lastLessonId,omitempty"`
	TodayXP          int    `json:"todayXp"`
}

// Profile returns the learner summary. Unknown learners get a fresh
// profile.
func (s *Store) Profile(ctx context.Context, learnerID string) (Profile, error) {
	p := Profile{LearnerID: learnerID, Level: 1}
	var last string
	err := s.db.QueryRowContext(ctx,
		`SELECT xp, streak, last_active_date, last_lesson_id FROM learners WHERE id=?`, learnerID,
	).Scan(&p.XP, &p.Streak, &last, &p.LastLessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	today := s.today()
	p.Level = 1 + p.XP/XPPerLevel
	p.Streak = daily.Current(p.Streak, last, today)

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lesson_completions WHERE learner_id=?`, learnerID,
	).Scan(&p.CompletedLessons); err != nil {
		return p, err
	}
	c, err := s.days.Get(ctx, learnerID, today)
	if err != nil {
		return p, err
	}
	p.TodayXP = c.XP
	return p, nil
}

// ClaimAnon moves a guest's progress onto a user account. Totals are
// added, completions merged, and the guest rows removed.
func (s *Store) ClaimAnon(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" || anonID == userID {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var xp, streak int
	var last, lesson string
	err = tx.QueryRowContext(ctx,
		`SELECT xp, streak, last_active_date, last_lesson_id FROM learners WHERE id=?`, anonID,
	).Scan(&xp, &streak, &last, &lesson)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load guest: %w", err)
	}
	if err := s.ensureLearner(ctx, tx, userID); err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}

	stmts := []struct {
		what string
		q    string
		args []any
	}{
		{"learner", `
			UPDATE learners SET
				xp = xp + ?,
				streak = CASE WHEN last_active_date >= ? THEN streak ELSE ? END,
				last_active_date = MAX(last_active_date, ?),
				last_lesson_id = CASE WHEN last_lesson_id = '' THEN ? ELSE last_lesson_id END
			WHERE id=?`, []any{xp, last, streak, last, lesson, userID}},
		{"completions", `
			INSERT INTO lesson_completions
				(learner_id, lesson_id, completions, best_mistakes, first_completed_at, last_completed_at)
			SELECT ?, lesson_id, completions, best_mistakes, first_completed_at, last_completed_at
			FROM lesson_completions WHERE learner_id=? AND true
			ON CONFLICT (learner_id, lesson_id) DO UPDATE SET
				completions = completions + excluded.completions,
				best_mistakes = MIN(best_mistakes, excluded.best_mistakes),
				first_completed_at = MIN(first_completed_at, excluded.first_completed_at),
				last_completed_at = MAX(last_completed_at, excluded.last_completed_at)`,
			[]any{userID, anonID}},
		{"daily counters", `
			INSERT INTO daily_xp (learner_id, date, xp, lessons, accurate_lessons, updated_at)
			SELECT ?, date, xp, lessons, accurate_lessons, updated_at
			FROM daily_xp WHERE learner_id=? AND true
			ON CONFLICT (learner_id, date) DO UPDATE SET
				xp = xp + excluded.xp,
				lessons = lessons + excluded.lessons,
				accurate_lessons = accurate_lessons + excluded.accurate_lessons,
				updated_at = MAX(updated_at, excluded.updated_at)`,
			[]any{userID, anonID}},
		{"history", `UPDATE attempts SET learner_id=? WHERE learner_id=?`, []any{userID, anonID}},
		{"guest counters", `DELETE FROM daily_xp WHERE learner_id=?`, []any{anonID}},
		{"guest completions", `DELETE FROM lesson_completions WHERE learner_id=?`, []any{anonID}},
		{"guest", `DELETE FROM learners WHERE id=?`, []any{anonID}},
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.q, st.args...); err != nil {
			return fmt.Errorf("claim %s: %w", st.what, err)
		}
	}
	return tx.Commit()
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}
