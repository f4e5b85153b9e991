package game

// ExerciseView is the public part of an exercise; the correct answer is
// withheld until feedback is shown.
type ExerciseView struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Prompt   string   `json:"prompt,omitempty"`
	Hint     string   `json:"hint,omitempty"`
	Code     []string `json:"code,omitempty"`
}

// View is the read model the lesson shell renders.
type View struct {
	ID        string        `json:"id"`
	LessonID  string        `json:"lessonId"`
	Status    Status        `json:"status"`
	Exercise  *ExerciseView `json:"exercise"` // nil once the attempt is over
	Slots     []Slot        `json:"slots"`
	Selected  []string      `json:"selected"`
	Hearts    int           `json:"hearts"`
	MaxHearts int           `json:"maxHearts"`
	Completed int           `json:"completed"`
	Skipped   int           `json:"skipped"`
	Remaining int           `json:"remaining"`
	Total     int           `json:"total"`
	Progress  float64       `json:"progress"` // 0..1
	Feedback  *Feedback     `json:"feedback,omitempty"`
	CanCheck  bool          `json:"canCheck"`
	CanSkip   bool          `json:"canSkip"`
	Dragging  *Location     `json:"dragging,omitempty"`
	Outcome   *Outcome      `json:"outcome,omitempty"` // set once finished
}

// View renders the controller's session, including the active drag.
func (c *Controller) View() View {
	v := c.s.View()
	if loc, ok := c.ActiveDrag(); ok {
		v.Dragging = &loc
	}
	return v
}

// View renders the session.
func (s *Session) View() View {
	v := View{
		ID:        s.ID,
		LessonID:  s.lesson.ID,
		Status:    s.seq.Status(),
		Slots:     []Slot{},
		Selected:  []string{},
		Hearts:    s.seq.Hearts(),
		MaxHearts: s.seq.MaxHearts(),
		Completed: s.seq.CompletedCount(),
		Skipped:   s.seq.SkippedCount(),
		Remaining: len(s.seq.queue),
		Total:     s.seq.Total(),
		Feedback:  s.feedback,
		CanCheck:  s.CanCheck(),
		CanSkip:   s.CanSkip(),
	}
	if v.Total > 0 {
		v.Progress = float64(v.Completed) / float64(v.Total)
	}
	if ex := s.Current(); ex != nil {
		v.Exercise = &ExerciseView{
			ID:       ex.ID,
			Type:     ex.Type,
			Question: ex.Question,
			Prompt:   ex.Prompt,
			Hint:     ex.Hint,
			Code:     ex.Code,
		}
		v.Slots = s.inv.Slots()
		v.Selected = s.inv.Selected()
	}
	if v.Status.Terminal() {
		o := s.Outcome()
		v.Outcome = &o
	}
	return v
}
