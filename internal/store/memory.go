// internal/store/memory.go
//
// In-memory store of live lesson attempts.
//
// Characteristics:
//   - Stores *Entry values keyed by attempt ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Each Entry carries its own mutex; callers hold it for a whole request
//     or websocket frame because game types are single-threaded.
//   - Entries idle longer than the TTL are dropped by Sweep.
//   - State is lost when the process restarts (see RedisSnapshots).

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/lingo/internal/game"
)

// ErrNotFound is returned for unknown or expired attempt IDs.
var ErrNotFound = errors.New("attempt not found")

// Entry is one live attempt.
type Entry struct {
	mu sync.Mutex

	ID        string
	LearnerID string
	Ctrl      *game.Controller
	// Recorded is set once the outcome has been sent to the progression
	// store, so a finished attempt is never rewarded twice.
	Recorded bool

	touched time.Time
}

// NewEntry wraps a session for storage.
func NewEntry(learnerID string, s *game.Session) *Entry {
	return &Entry{ID: s.ID, LearnerID: learnerID, Ctrl: game.NewController(s)}
}

// Lock serializes access to the attempt.
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the attempt.
func (e *Entry) Unlock() { e.mu.Unlock() }

// Session returns the attempt's session.
func (e *Entry) Session() *game.Session { return e.Ctrl.Session() }

// Store defines the persistence interface for live attempts.
type Store interface {
	// Save persists or updates an attempt.
	Save(ctx context.Context, e *Entry) error

	// Get retrieves an attempt by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Entry, error)

	// Delete removes an attempt. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

// Memory is an in-memory map-based Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs an in-memory store. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]*Entry), ttl: ttl, now: time.Now}
}

// Save adds or updates the attempt and refreshes its idle timer.
func (m *Memory) Save(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.touched = m.now()
	m.entries[e.ID] = e
	return nil
}

// Get looks up an attempt by ID. Expired entries are reported as missing.
func (m *Memory) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok || m.expired(e) {
		return nil, ErrNotFound
	}
	return e, nil
}

// Delete removes an attempt.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Len returns the number of stored attempts, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep drops expired attempts and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(n int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (m *Memory) expired(e *Entry) bool {
	return m.ttl > 0 && m.now().Sub(e.touched) > m.ttl
}
