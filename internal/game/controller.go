// internal/game/controller.go
//
// Interaction controller: turns drag, drop and click gestures into inventory
// moves for the current exercise of a Session.
//
// Gesture table (from → to):
//   selected(i) → selected(j)  reorder inside the answer
//   bank(i)     → answer area  append
//   bank(i)     → selected(j)  insert at j
//   selected(i) → bank(_)      return to origin slot
// Anything else, and any gesture while feedback is showing, is a no-op.

package game

// Controller routes gestures for one Session. It also owns the transient
// drag state. It is not safe for concurrent use.
type Controller struct {
	s      *Session
	active *Location
}

// NewController binds a controller to s.
func NewController(s *Session) *Controller { return &Controller{s: s} }

// Session returns the bound session.
func (c *Controller) Session() *Session { return c.s }

// DragStart records the location being dragged.
func (c *Controller) DragStart(from Location) bool {
	if !c.editable() {
		return false
	}
	loc := from
	c.active = &loc
	return true
}

// ActiveDrag returns the location being dragged, if any.
func (c *Controller) ActiveDrag() (Location, bool) {
	if c.active == nil {
		return Location{}, false
	}
	return *c.active, true
}

// DragEnd finishes the active drag over the given target. A nil target
// (released over nothing) cancels the drag without changes.
func (c *Controller) DragEnd(over *Location) bool {
	from := c.active
	c.active = nil
	if from == nil || over == nil {
		return false
	}
	return c.Drop(*from, *over)
}

// Drop applies a complete drag from → to.
func (c *Controller) Drop(from, to Location) bool {
	if !c.editable() {
		return false
	}
	inv := c.s.inv
	switch {
	case from.Kind == KindSelected && to.Kind == KindSelected:
		return inv.Move(from.Index, to.Index)
	case from.Kind == KindBank && to.Kind == KindAnswerArea:
		return inv.MoveToAnswer(from.Index, -1)
	case from.Kind == KindBank && to.Kind == KindSelected:
		return inv.MoveToAnswer(from.Index, to.Index)
	case from.Kind == KindSelected && to.Kind == KindBank:
		return inv.MoveToBank(from.Index)
	}
	return false
}

// Click is the tap equivalent of a drag: a bank word goes to the end of
// the answer, an answer word goes back to the bank.
func (c *Controller) Click(at Location) bool {
	switch at.Kind {
	case KindBank:
		return c.Drop(at, AnswerArea())
	case KindSelected:
		return c.Drop(at, Bank(0))
	}
	return false
}

// Reorder applies a full permutation of the answer.
func (c *Controller) Reorder(order []int) bool {
	if !c.editable() {
		return false
	}
	return c.s.inv.Reorder(order)
}

// Measure records a slot width reported by the client.
func (c *Controller) Measure(slot int, width float64) bool {
	if c.s.Current() == nil {
		return false
	}
	return c.s.inv.RecordSlotWidth(slot, width)
}

// Check ends any drag and checks the answer.
func (c *Controller) Check() (bool, error) {
	c.active = nil
	return c.s.Check()
}

// Continue ends any drag and advances the attempt.
func (c *Controller) Continue() (Outcome, error) {
	c.active = nil
	return c.s.Continue()
}

// Skip ends any drag and skips the current exercise.
func (c *Controller) Skip() error {
	c.active = nil
	return c.s.Skip()
}

// CanCheck mirrors Session.CanCheck.
func (c *Controller) CanCheck() bool { return c.s.CanCheck() }

// CanSkip mirrors Session.CanSkip.
func (c *Controller) CanSkip() bool { return c.s.CanSkip() }

func (c *Controller) editable() bool {
	return c.s.feedback == nil && c.s.Current() != nil
}
