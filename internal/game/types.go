// internal/game/types.go
//
// Core type definitions for the lesson exercise engine.
// Defines:
//   - Status: lifecycle of a single lesson attempt (in_progress/succeeded/failed).
//   - Location: where a gesture starts or ends (bank slot, selected word, answer area).
//   - Sentinel errors returned by Session and Sequencer.

package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status represents the state of a lesson attempt.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool { return s == StatusSucceeded || s == StatusFailed }

var (
	ErrNoExercise      = errors.New("no current exercise")
	ErrAttemptOver     = errors.New("attempt finished")
	ErrFeedbackShown   = errors.New("feedback is showing")
	ErrNoFeedback      = errors.New("answer not checked")
	ErrNothingSelected = errors.New("no words selected")
	ErrEmptyLesson     = errors.New("lesson has no exercises")
	ErrBadSnapshot     = errors.New("invalid snapshot")
)

// LocationKind tags a Location.
type LocationKind int

const (
	KindBank LocationKind = iota + 1
	KindSelected
	KindAnswerArea
)

var kindNames = map[LocationKind]string{
	KindBank:       "bank",
	KindSelected:   "selected",
	KindAnswerArea: "answer",
}

func (k LocationKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Location names one end of a gesture. Index is meaningful for KindBank
// (slot index) and KindSelected (position in the answer); it is ignored
// for KindAnswerArea.
type Location struct {
	Kind  LocationKind
	Index int
}

// Bank refers to the word-bank slot i.
func Bank(i int) Location { return Location{Kind: KindBank, Index: i} }

// Selected refers to position i of the answer in progress.
func Selected(i int) Location { return Location{Kind: KindSelected, Index: i} }

// AnswerArea refers to the empty part of the answer area (drop = append).
func AnswerArea() Location { return Location{Kind: KindAnswerArea} }

func (l Location) String() string {
	if l.Kind == KindAnswerArea {
		return l.Kind.String()
	}
	return fmt.Sprintf("%s[%d]", l.Kind, l.Index)
}

type locationJSON struct {
	Kind  string `json:"kind"`
	Index int    `json:"index,omitempty"`
}

// MarshalJSON encodes a Location as {"kind":"bank","index":2}.
func (l Location) MarshalJSON() ([]byte, error) {
	name, ok := kindNames[l.Kind]
	if !ok {
		return nil, fmt.Errorf("marshal location: unknown kind %d", int(l.Kind))
	}
	return json.Marshal(locationJSON{Kind: name, Index: l.Index})
}

// UnmarshalJSON decodes the form written by MarshalJSON. Unknown kinds and
// negative indices are rejected here, so a decoded Location is always
// well-formed (though it may still be stale).
func (l *Location) UnmarshalJSON(b []byte) error {
	var raw locationJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, name := range kindNames {
		if name == raw.Kind {
			if raw.Index < 0 {
				return fmt.Errorf("location %s: negative index", name)
			}
			*l = Location{Kind: k, Index: raw.Index}
			if k == KindAnswerArea {
				l.Index = 0
			}
			return nil
		}
	}
	return fmt.Errorf("location: unknown kind %q", raw.Kind)
}
