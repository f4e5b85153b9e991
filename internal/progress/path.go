package progress

import (
	"context"

	"github.com/robalobadob/lingo/internal/catalog"
)

// NodeStatus is a node's state for one learner.
type NodeStatus string

const (
	NodeLocked    NodeStatus = "locked"
	NodeAvailable NodeStatus = "available"
	NodeCompleted NodeStatus = "completed"
)

// NodeView is a catalog node with the learner's status.
type NodeView struct {
	catalog.Node
	Status NodeStatus `json:"status"`
	// Playable is false for nodes without a lesson behind them.
	Playable bool `json:"playable"`
}

// UnitView is a catalog unit with derived node statuses.
type UnitView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Number      int        `json:"number"`
	Nodes       []NodeView `json:"nodes"`
}

// Statuses derives the status of every node on the flattened path: a
// completed lesson is completed; the first node, and any node right after a
// completed one, is available; everything else is locked.
func Statuses(path []catalog.Node, done map[string]bool) map[string]NodeStatus {
	out := make(map[string]NodeStatus, len(path))
	for i, n := range path {
		switch {
		case done[n.ID]:
			out[n.ID] = NodeCompleted
		case i == 0 || done[path[i-1].ID]:
			out[n.ID] = NodeAvailable
		default:
			out[n.ID] = NodeLocked
		}
	}
	return out
}

// Units returns the learning path with node statuses for the learner.
func (s *Store) Units(ctx context.Context, learnerID string) ([]UnitView, error) {
	done, err := s.Completed(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	st := Statuses(s.cat.Path(), done)

	units := s.cat.Units()
	out := make([]UnitView, len(units))
	for i, u := range units {
		uv := UnitView{ID: u.ID, Title: u.Title, Description: u.Description, Number: u.Number}
		for _, n := range u.Nodes {
			_, err := s.cat.Lesson(n.ID)
			uv.Nodes = append(uv.Nodes, NodeView{Node: n, Status: st[n.ID], Playable: err == nil})
		}
		out[i] = uv
	}
	return out, nil
}

// NodeStatus returns the status of one node for the learner. Lessons that
// are not on the path are always available.
func (s *Store) NodeStatus(ctx context.Context, learnerID, nodeID string) (NodeStatus, error) {
	done, err := s.Completed(ctx, learnerID)
	if err != nil {
		return NodeLocked, err
	}
	if st, ok := Statuses(s.cat.Path(), done)[nodeID]; ok {
		return st, nil
	}
	if done[nodeID] {
		return NodeCompleted, nil
	}
	return NodeAvailable, nil
}
