package progress

import (
	"context"

	"github.com/robalobadob/lingo/internal/catalog"
	"github.com/robalobadob/lingo/internal/daily"
)

// QuestView is a daily quest with the learner's progress for today.
type QuestView struct {
	catalog.Quest
	Progress int  `json:"progress"`
	Done     bool `json:"done"`
}

// QuestProgress computes quest progress from one day's counters. Progress
// is capped at the quest target.
func QuestProgress(quests []catalog.Quest, c daily.Counters) []QuestView {
	out := make([]QuestView, len(quests))
	for i, q := range quests {
		var n int
		switch q.Metric {
		case catalog.MetricDailyXP:
			n = c.XP
		case catalog.MetricLessonsToday:
			n = c.Lessons
		case catalog.MetricAccurateLessons:
			n = c.AccurateLessons
		}
		if q.Target > 0 && n > q.Target {
			n = q.Target
		}
		out[i] = QuestView{Quest: q, Progress: n, Done: q.Target > 0 && n >= q.Target}
	}
	return out
}

// Quests returns today's quests for the learner.
func (s *Store) Quests(ctx context.Context, learnerID string) ([]QuestView, error) {
	c, err := s.days.Get(ctx, learnerID, s.today())
	if err != nil {
		return nil, err
	}
	return QuestProgress(s.cat.Quests(), c), nil
}
