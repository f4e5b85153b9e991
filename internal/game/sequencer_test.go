package game

import (
	"errors"
	"reflect"
	"testing"
)

func TestSequencerAllCorrect(t *testing.T) {
	s := NewSequencer([]string{"A", "B", "C"}, 3)
	for i, want := range []string{"A", "B", "C"} {
		id, ok := s.Current()
		if !ok || id != want {
			t.Fatalf("step %d: current = %q,%v want %q", i, id, ok, want)
		}
		if _, err := s.Resolve(true); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if s.Status() != StatusSucceeded {
		t.Fatalf("status = %s", s.Status())
	}
	if s.CompletedCount() != 3 || s.SkippedCount() != 0 {
		t.Fatalf("completed=%d skipped=%d", s.CompletedCount(), s.SkippedCount())
	}
	for _, id := range []string{"A", "B", "C"} {
		if !s.IsCompleted(id) {
			t.Fatalf("%s not completed", id)
		}
	}
	if s.IsCompleted("D") {
		t.Fatal("unknown exercise reported completed")
	}
	if _, ok := s.Current(); ok {
		t.Fatal("current exercise after success")
	}
}

func TestSequencerHeartDepletion(t *testing.T) {
	s := NewSequencer([]string{"A", "B", "C"}, 3)

	steps := []struct {
		correct bool
		status  Status
		hearts  int
	}{
		{false, StatusInProgress, 2},
		{true, StatusInProgress, 2},
		{false, StatusInProgress, 1},
		{false, StatusFailed, 0},
	}
	for i, st := range steps {
		got, err := s.Resolve(st.correct)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != st.status || s.Hearts() != st.hearts {
			t.Fatalf("step %d: status=%s hearts=%d, want %s/%d", i, got, s.Hearts(), st.status, st.hearts)
		}
	}
	if s.CompletedCount() >= s.Total() {
		t.Fatal("failed attempt reached full completion")
	}
	if s.Mistakes() != 3 {
		t.Fatalf("mistakes = %d", s.Mistakes())
	}
	if _, err := s.Resolve(true); !errors.Is(err, ErrAttemptOver) {
		t.Fatalf("Resolve after failure: err = %v", err)
	}
	if err := s.Skip(); !errors.Is(err, ErrAttemptOver) {
		t.Fatalf("Skip after failure: err = %v", err)
	}
}

func TestSequencerIncorrectRotates(t *testing.T) {
	s := NewSequencer([]string{"A", "B", "C"}, 3)
	s.Resolve(false)
	if got := s.Queue(); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Fatalf("queue = %v", got)
	}
}

func TestSequencerSkipRotation(t *testing.T) {
	s := NewSequencer([]string{"A", "B", "C"}, 3)
	if err := s.Skip(); err != nil {
		t.Fatal(err)
	}
	if got := s.Queue(); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Fatalf("queue = %v", got)
	}
	if !s.IsSkipped("A") {
		t.Fatal("A not marked skipped")
	}

	s.Resolve(true) // B
	s.Resolve(true) // C
	if id, _ := s.Current(); id != "A" {
		t.Fatalf("current = %q, want A", id)
	}
	s.Resolve(true)
	if s.Status() != StatusSucceeded {
		t.Fatalf("status = %s", s.Status())
	}
	if s.IsSkipped("A") || !s.IsCompleted("A") {
		t.Fatal("A should move from skipped to completed")
	}
}

func TestSequencerSingleSkipDoesNotStarve(t *testing.T) {
	s := NewSequencer([]string{"A"}, 3)
	if err := s.Skip(); err != nil {
		t.Fatal(err)
	}
	if got := s.Queue(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("queue = %v", got)
	}
	if id, ok := s.Current(); !ok || id != "A" {
		t.Fatalf("current = %q,%v", id, ok)
	}
}

func TestSequencerSetsStayDisjoint(t *testing.T) {
	s := NewSequencer([]string{"A", "B"}, 5)
	ops := []func(){
		func() { s.Skip() },
		func() { s.Resolve(false) },
		func() { s.Skip() },
		func() { s.Resolve(true) },
		func() { s.Skip() },
		func() { s.Resolve(true) },
	}
	for i, op := range ops {
		op()
		for _, id := range s.Completed() {
			if s.IsSkipped(id) {
				t.Fatalf("op %d: %s both completed and skipped", i, id)
			}
		}
	}
	if s.Status() != StatusSucceeded {
		t.Fatalf("status = %s", s.Status())
	}
}

func TestSequencerDefaults(t *testing.T) {
	s := NewSequencer([]string{"A"}, 0)
	if s.Hearts() != DefaultHearts || s.MaxHearts() != DefaultHearts {
		t.Fatalf("hearts = %d/%d", s.Hearts(), s.MaxHearts())
	}

	empty := NewSequencer(nil, 3)
	if err := empty.Skip(); !errors.Is(err, ErrNoExercise) {
		t.Fatalf("Skip on empty queue: %v", err)
	}
	if _, err := empty.Resolve(true); !errors.Is(err, ErrNoExercise) {
		t.Fatalf("Resolve on empty queue: %v", err)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		selected, correct []string
		want              bool
	}{
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a", "b"}, []string{"b", "a"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
		{[]string{"A", "b"}, []string{"a", "b"}, false},
		{[]string{"a "}, []string{"a"}, false},
		{nil, nil, true},
	}
	for _, tt := range tests {
		if got := Check(tt.selected, tt.correct); got != tt.want {
			t.Errorf("Check(%q, %q) = %v, want %v", tt.selected, tt.correct, got, tt.want)
		}
		// pure: same inputs, same answer
		if got := Check(tt.selected, tt.correct); got != tt.want {
			t.Errorf("second Check(%q, %q) = %v", tt.selected, tt.correct, got)
		}
	}
}
