// internal/game/sequencer.go
//
// Exercise sequencer for one lesson attempt.
// Responsibilities:
//   - Own the queue of remaining exercise IDs (head = current exercise).
//   - Apply check results: correct removes the head, incorrect costs a heart
//     and rotates the head to the tail.
//   - Apply skips: rotate the head to the tail and remember it as skipped.
//   - Track state transitions: in_progress → succeeded/failed.
//
// Invariant: completed and skipped are disjoint after every transition.

package game

// DefaultHearts is the number of mistakes allowed per attempt.
const DefaultHearts = 3

// Sequencer holds the queue, hearts and bookkeeping of a lesson attempt.
// It is not safe for concurrent use.
type Sequencer struct {
	queue     []string
	total     int
	hearts    int
	maxHearts int
	mistakes  int
	completed map[string]struct{}
	skipped   map[string]struct{}
	status    Status
}

// NewSequencer starts an attempt over ids in order. hearts <= 0 uses
// DefaultHearts.
func NewSequencer(ids []string, hearts int) *Sequencer {
	if hearts <= 0 {
		hearts = DefaultHearts
	}
	q := make([]string, len(ids))
	copy(q, ids)
	return &Sequencer{
		queue:     q,
		total:     len(ids),
		hearts:    hearts,
		maxHearts: hearts,
		completed: map[string]struct{}{},
		skipped:   map[string]struct{}{},
		status:    StatusInProgress,
	}
}

// Current returns the exercise at the head of the queue.
func (s *Sequencer) Current() (string, bool) {
	if s.status.Terminal() || len(s.queue) == 0 {
		return "", false
	}
	return s.queue[0], true
}

// Skip moves the head to the tail and marks it skipped. With a single
// exercise left the queue is unchanged, so the same exercise is presented
// again instead of leaving the attempt without work.
func (s *Sequencer) Skip() error {
	if s.status.Terminal() {
		return ErrAttemptOver
	}
	if len(s.queue) == 0 {
		return ErrNoExercise
	}
	s.skipped[s.queue[0]] = struct{}{}
	s.rotate()
	return nil
}

// Resolve applies the result of checking the head exercise and returns the
// resulting status.
func (s *Sequencer) Resolve(correct bool) (Status, error) {
	if s.status.Terminal() {
		return s.status, ErrAttemptOver
	}
	if len(s.queue) == 0 {
		return s.status, ErrNoExercise
	}

	if correct {
		id := s.queue[0]
		s.queue = s.queue[1:]
		s.completed[id] = struct{}{}
		delete(s.skipped, id)
		if len(s.completed) >= s.total {
			s.status = StatusSucceeded
		}
		return s.status, nil
	}

	s.mistakes++
	if s.hearts > 0 {
		s.hearts--
	}
	if s.hearts == 0 {
		s.status = StatusFailed
		return s.status, nil
	}
	s.rotate()
	return s.status, nil
}

func (s *Sequencer) rotate() {
	if len(s.queue) < 2 {
		return
	}
	head := s.queue[0]
	copy(s.queue, s.queue[1:])
	s.queue[len(s.queue)-1] = head
}

// Status returns the attempt state.
func (s *Sequencer) Status() Status { return s.status }

// Hearts returns the remaining hearts.
func (s *Sequencer) Hearts() int { return s.hearts }

// MaxHearts returns the starting heart count.
func (s *Sequencer) MaxHearts() int { return s.maxHearts }

// Mistakes counts incorrect checks in this attempt.
func (s *Sequencer) Mistakes() int { return s.mistakes }

// Total is the number of exercises in the lesson.
func (s *Sequencer) Total() int { return s.total }

// Queue returns a copy of the remaining exercise IDs.
func (s *Sequencer) Queue() []string {
	out := make([]string, len(s.queue))
	copy(out, s.queue)
	return out
}

// IsCompleted reports whether id was answered correctly.
func (s *Sequencer) IsCompleted(id string) bool { _, ok := s.completed[id]; return ok }

// IsSkipped reports whether id is currently marked skipped.
func (s *Sequencer) IsSkipped(id string) bool { _, ok := s.skipped[id]; return ok }

// CompletedCount returns the size of the completed set.
func (s *Sequencer) CompletedCount() int { return len(s.completed) }

// SkippedCount returns the size of the skipped set.
func (s *Sequencer) SkippedCount() int { return len(s.skipped) }

// Completed returns the completed IDs in queue-independent order.
func (s *Sequencer) Completed() []string { return keys(s.completed) }

// Skipped returns the skipped IDs in queue-independent order.
func (s *Sequencer) Skipped() []string { return keys(s.skipped) }

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
