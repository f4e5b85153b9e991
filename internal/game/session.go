// internal/game/session.go
//
// A Session is one learner's attempt at one lesson. It owns the sequencer
// and the word inventory for the current exercise and drives them through
// explicit calls:
//
//	Check    → compare the answer, show feedback, lock the inventory
//	Continue → apply the result to the sequencer, deal the next exercise
//	Skip     → rotate the current exercise to the back of the queue
//
// Sessions are created per attempt and passed by reference; nothing here is
// global. A Session is not safe for concurrent use.

package game

import (
	"time"

	"github.com/robalobadob/lingo/internal/catalog"
)

// Feedback is the result shown after a check.
type Feedback struct {
	Correct  bool     `json:"correct"`
	Expected []string `json:"expected,omitempty"` // only set when incorrect
}

// Outcome is reported to the lesson shell after every Continue.
// XP is the lesson reward when Status is StatusSucceeded, otherwise 0.
type Outcome struct {
	Status   Status `json:"status"`
	LessonID string `json:"lessonId"`
	XP       int    `json:"xp"`
	Mistakes int    `json:"mistakes"`
}

// Finished reports whether the attempt ended.
func (o Outcome) Finished() bool { return o.Status.Terminal() }

type options struct {
	hearts  int
	shuffle Shuffler
	now     func() time.Time
}

// Option configures a Session.
type Option func(*options)

// WithHearts sets the starting heart count.
func WithHearts(n int) Option { return func(o *options) { o.hearts = n } }

// WithShuffler sets the word-bank shuffler (tests use a no-op shuffle).
func WithShuffler(s Shuffler) Option { return func(o *options) { o.shuffle = s } }

// WithClock sets the time source for StartedAt.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Session is a single lesson attempt.
type Session struct {
	ID        string
	StartedAt time.Time

	lesson   *catalog.Lesson
	seq      *Sequencer
	inv      *Inventory
	feedback *Feedback
}

// NewSession starts an attempt at lesson.
func NewSession(id string, lesson *catalog.Lesson, opts ...Option) (*Session, error) {
	if lesson == nil || len(lesson.Exercises) == 0 {
		return nil, ErrEmptyLesson
	}
	o := apply(opts)
	s := &Session{
		ID:        id,
		StartedAt: o.now(),
		lesson:    lesson,
		seq:       NewSequencer(lesson.ExerciseIDs(), o.hearts),
		inv:       NewInventory(o.shuffle),
	}
	s.deal()
	return s, nil
}

func apply(opts []Option) options {
	o := options{hearts: DefaultHearts, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// deal resets the inventory for the head exercise.
func (s *Session) deal() {
	if ex := s.Current(); ex != nil {
		s.inv.Reset(ex.WordBank)
	}
}

// Lesson returns the lesson being attempted.
func (s *Session) Lesson() *catalog.Lesson { return s.lesson }

// Inventory exposes the word inventory of the current exercise.
func (s *Session) Inventory() *Inventory { return s.inv }

// Sequencer exposes the attempt's sequencer (read-only use).
func (s *Session) Sequencer() *Sequencer { return s.seq }

// Status returns the attempt state.
func (s *Session) Status() Status { return s.seq.Status() }

// Current returns the exercise being presented, or nil when the attempt
// is over.
func (s *Session) Current() *catalog.Exercise {
	id, ok := s.seq.Current()
	if !ok {
		return nil
	}
	ex, _ := s.lesson.Exercise(id)
	return ex
}

// Feedback returns the feedback being shown, or nil.
func (s *Session) Feedback() *Feedback { return s.feedback }

// CanCheck reports whether Check would be accepted.
func (s *Session) CanCheck() bool {
	return s.CanSkip() && s.inv.SelectedCount() > 0
}

// CanSkip reports whether Skip would be accepted.
func (s *Session) CanSkip() bool {
	return s.feedback == nil && s.Current() != nil
}

// Check compares the answer in progress with the current exercise. The
// inventory stays locked until Continue.
func (s *Session) Check() (bool, error) {
	if s.seq.Status().Terminal() {
		return false, ErrAttemptOver
	}
	ex := s.Current()
	if ex == nil {
		return false, ErrNoExercise
	}
	if s.feedback != nil {
		return false, ErrFeedbackShown
	}
	if s.inv.SelectedCount() == 0 {
		return false, ErrNothingSelected
	}

	ok := Check(s.inv.Selected(), ex.CorrectAnswer)
	s.feedback = &Feedback{Correct: ok}
	if !ok {
		s.feedback.Expected = append([]string(nil), ex.CorrectAnswer...)
	}
	s.inv.Lock()
	return ok, nil
}

// Continue applies the shown feedback to the sequencer. While the attempt
// is still in progress the next head exercise is dealt, reshuffled even
// when it is the same exercise again.
func (s *Session) Continue() (Outcome, error) {
	if s.feedback == nil {
		return s.Outcome(), ErrNoFeedback
	}
	if _, err := s.seq.Resolve(s.feedback.Correct); err != nil {
		return s.Outcome(), err
	}
	s.feedback = nil
	s.deal()
	return s.Outcome(), nil
}

// Skip moves the current exercise to the back of the queue and deals the
// new head.
func (s *Session) Skip() error {
	if s.feedback != nil {
		return ErrFeedbackShown
	}
	if err := s.seq.Skip(); err != nil {
		return err
	}
	s.deal()
	return nil
}

// Outcome summarizes the attempt for the lesson shell.
func (s *Session) Outcome() Outcome {
	o := Outcome{
		Status:   s.seq.Status(),
		LessonID: s.lesson.ID,
		Mistakes: s.seq.Mistakes(),
	}
	if o.Status == StatusSucceeded {
		o.XP = s.lesson.XPReward
	}
	return o
}
