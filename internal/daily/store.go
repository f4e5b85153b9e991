package daily

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Counters are one learner's totals for one day.
type Counters struct {
	XP              int `json:"xp"`
	Lessons         int `json:"lessons"`
	AccurateLessons int `json:"accurateLessons"`
}

// LBRow is one leaderboard entry.
type LBRow struct {
	LearnerID string `json:"learnerId"`
	Name      string `json:"name"` // username, empty for guests
	XP        int    `json:"xp"`
	Lessons   int    `json:"lessons"`
}

// Store persists per-day counters in the daily_xp table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Add bumps the counters of learner on date by c, creating the row if
// needed. It runs on ex so callers can include it in a transaction.
func (s *Store) Add(ctx context.Context, ex Execer, learnerID, date string, c Counters) error {
	if ex == nil {
		ex = s.db
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO daily_xp (learner_id, date, xp, lessons, accurate_lessons, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, date) DO UPDATE SET
			xp = xp + excluded.xp,
			lessons = lessons + excluded.lessons,
			accurate_lessons = accurate_lessons + excluded.accurate_lessons,
			updated_at = excluded.updated_at`,
		learnerID, date, c.XP, c.Lessons, c.AccurateLessons, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Get returns the counters of learner on date (zero when absent).
func (s *Store) Get(ctx context.Context, learnerID, date string) (Counters, error) {
	var c Counters
	err := s.db.QueryRowContext(ctx,
		`SELECT xp, lessons, accurate_lessons FROM daily_xp WHERE learner_id=? AND date=?`,
		learnerID, date,
	).Scan(&c.XP, &c.Lessons, &c.AccurateLessons)
	if errors.Is(err, sql.ErrNoRows) {
		return Counters{}, nil
	}
	return c, err
}

// Leaderboard returns the top learners by XP earned on date.
// Ties go to whoever reached the score first.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.learner_id, COALESCE(u.username, ''), d.xp, d.lessons
		FROM daily_xp d
		LEFT JOIN users u ON u.id = d.learner_id
		WHERE d.date=? AND d.xp > 0
		ORDER BY d.xp DESC, d.updated_at ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.LearnerID, &r.Name, &r.XP, &r.Lessons); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
