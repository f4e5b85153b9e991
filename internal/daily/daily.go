// internal/daily/daily.go
//
// Calendar helpers shared by progression and the daily practice pick.
//   - DateKey: YYYY-MM-DD in UTC, the unit for streaks and daily counters.
//   - Index: deterministic HMAC(salt, date) pick, same for every learner.
//   - Advance: streak arithmetic when a learner is active on a given day.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

const layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(layout)
}

// Index returns a deterministic index in [0,n) for the date using
// HMAC(salt, YYYY-MM-DD) % n.
func Index(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Advance returns the streak after activity on today, given the streak and
// the last active date key. Activity on consecutive days extends the
// streak, a repeat on the same day keeps it, and any gap restarts at 1.
func Advance(streak int, lastActive, today string) int {
	if lastActive == today {
		if streak < 1 {
			return 1
		}
		return streak
	}
	t, err := time.Parse(layout, today)
	if err != nil {
		return 1
	}
	if lastActive == t.AddDate(0, 0, -1).Format(layout) {
		return streak + 1
	}
	return 1
}

// Current returns the streak as it should be displayed on today: a streak
// whose last activity is older than yesterday has lapsed.
func Current(streak int, lastActive, today string) int {
	if lastActive == today {
		return streak
	}
	t, err := time.Parse(layout, today)
	if err != nil || lastActive != t.AddDate(0, 0, -1).Format(layout) {
		return 0
	}
	return streak
}
