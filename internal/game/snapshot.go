package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/robalobadob/lingo/internal/catalog"
)

// Snapshot is the durable part of an attempt: queue, bookkeeping, hearts
// and a pending check result. The word inventory is not included; a
// restored attempt deals the current exercise again. When Checked is set it
// comes back locked with the feedback showing, and the next Continue
// applies Correct.
type Snapshot struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lessonId"`
	Queue     []string  `json:"queue"`
	Completed []string  `json:"completed"`
	Skipped   []string  `json:"skipped"`
	Hearts    int       `json:"hearts"`
	MaxHearts int       `json:"maxHearts"`
	Mistakes  int       `json:"mistakes"`
	StartedAt time.Time `json:"startedAt"`
	Checked   bool      `json:"checked,omitempty"`
	Correct   bool      `json:"correct,omitempty"`
}

// Snapshot captures the attempt's durable state.
func (s *Session) Snapshot() Snapshot {
	completed, skipped := s.seq.Completed(), s.seq.Skipped()
	sort.Strings(completed)
	sort.Strings(skipped)
	snap := Snapshot{
		ID:        s.ID,
		LessonID:  s.lesson.ID,
		Queue:     s.seq.Queue(),
		Completed: completed,
		Skipped:   skipped,
		Hearts:    s.seq.Hearts(),
		MaxHearts: s.seq.MaxHearts(),
		Mistakes:  s.seq.Mistakes(),
		StartedAt: s.StartedAt,
	}
	if s.feedback != nil {
		snap.Checked = true
		snap.Correct = s.feedback.Correct
	}
	return snap
}

// Restore rebuilds an attempt from a snapshot taken against lesson.
// Snapshots that do not describe a reachable state of that lesson are
// rejected with ErrBadSnapshot.
func Restore(snap Snapshot, lesson *catalog.Lesson, opts ...Option) (*Session, error) {
	if lesson == nil || len(lesson.Exercises) == 0 {
		return nil, ErrEmptyLesson
	}
	seq, err := restoreSequencer(snap, lesson)
	if err != nil {
		return nil, err
	}
	o := apply(opts)
	s := &Session{
		ID:        snap.ID,
		StartedAt: snap.StartedAt,
		lesson:    lesson,
		seq:       seq,
		inv:       NewInventory(o.shuffle),
	}
	s.deal()
	if snap.Checked {
		ex := s.Current()
		if ex == nil || seq.Status().Terminal() {
			return nil, fmt.Errorf("%w: pending check without a current exercise", ErrBadSnapshot)
		}
		s.feedback = &Feedback{Correct: snap.Correct}
		if !snap.Correct {
			s.feedback.Expected = append([]string(nil), ex.CorrectAnswer...)
		}
		s.inv.Lock()
	}
	return s, nil
}

func restoreSequencer(snap Snapshot, lesson *catalog.Lesson) (*Sequencer, error) {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrBadSnapshot, fmt.Sprintf(format, args...))
	}
	if snap.LessonID != lesson.ID {
		return nil, bad("lesson %q, want %q", snap.LessonID, lesson.ID)
	}
	if snap.MaxHearts <= 0 || snap.Hearts < 0 || snap.Hearts > snap.MaxHearts {
		return nil, bad("hearts %d/%d", snap.Hearts, snap.MaxHearts)
	}
	if snap.Mistakes < 0 {
		return nil, bad("mistakes %d", snap.Mistakes)
	}

	seq := NewSequencer(nil, snap.MaxHearts)
	seq.total = len(lesson.Exercises)
	seq.hearts = snap.Hearts
	seq.mistakes = snap.Mistakes

	seen := map[string]bool{}
	for _, id := range snap.Queue {
		if _, ok := lesson.Exercise(id); !ok || seen[id] {
			return nil, bad("queue entry %q", id)
		}
		seen[id] = true
		seq.queue = append(seq.queue, id)
	}
	for _, id := range snap.Completed {
		if _, ok := lesson.Exercise(id); !ok || seen[id] {
			return nil, bad("completed entry %q", id)
		}
		seen[id] = true
		seq.completed[id] = struct{}{}
	}
	if len(seen) != seq.total {
		return nil, bad("%d of %d exercises accounted for", len(seen), seq.total)
	}
	for _, id := range snap.Skipped {
		if _, done := seq.completed[id]; done {
			return nil, bad("skipped entry %q is completed", id)
		}
		if _, ok := lesson.Exercise(id); !ok {
			return nil, bad("skipped entry %q", id)
		}
		seq.skipped[id] = struct{}{}
	}

	switch {
	case len(seq.completed) >= seq.total:
		seq.status = StatusSucceeded
	case seq.hearts == 0:
		seq.status = StatusFailed
	}
	return seq, nil
}
