// internal/catalog/types.go
//
// Static lesson catalog types. Everything here is immutable after load.

package catalog

// Exercise is one word-ordering question.
type Exercise struct {
	ID            string   `yaml:"id" json:"id"`
	Type          string   `yaml:"type" json:"type"`
	Question      string   `yaml:"question" json:"question"`
	Prompt        string   `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	CorrectAnswer []string `yaml:"correct_answer" json:"-"`
	WordBank      []string `yaml:"word_bank" json:"-"`
	Hint          string   `yaml:"hint,omitempty" json:"hint,omitempty"`
	Code          []string `yaml:"code,omitempty" json:"code,omitempty"` // surrounding code-context lines
}

// Lesson is an ordered list of exercises with an XP reward.
type Lesson struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	XPReward    int        `yaml:"xp_reward" json:"xpReward"`
	Exercises   []Exercise `yaml:"exercises" json:"-"`
}

// Exercise returns the exercise with the given ID.
func (l *Lesson) Exercise(id string) (*Exercise, bool) {
	for i := range l.Exercises {
		if l.Exercises[i].ID == id {
			return &l.Exercises[i], true
		}
	}
	return nil, false
}

// ExerciseIDs returns exercise IDs in catalog order.
func (l *Lesson) ExerciseIDs() []string {
	ids := make([]string, len(l.Exercises))
	for i, ex := range l.Exercises {
		ids[i] = ex.ID
	}
	return ids
}

// NodeType is the kind of stop on the learning path.
type NodeType string

const (
	NodeLesson     NodeType = "lesson"
	NodeStory      NodeType = "story"
	NodePractice   NodeType = "practice"
	NodeUnitReview NodeType = "unit-review"
	NodeChest      NodeType = "chest"
)

// Node is one stop on the learning path. Its status (locked, available,
// completed) is not catalog data; it depends on the learner.
type Node struct {
	ID    string   `yaml:"id" json:"id"`
	Title string   `yaml:"title" json:"title"`
	Type  NodeType `yaml:"type" json:"type"`
	Level int      `yaml:"level" json:"level"`
	X     float64  `yaml:"x" json:"x"`
	Y     float64  `yaml:"y" json:"y"`
}

// Unit groups nodes on the path.
type Unit struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Number      int    `yaml:"number" json:"number"`
	Nodes       []Node `yaml:"nodes" json:"nodes"`
}

// QuestMetric selects what a daily quest counts.
type QuestMetric string

const (
	MetricDailyXP         QuestMetric = "daily_xp"
	MetricLessonsToday    QuestMetric = "lessons_today"
	MetricAccurateLessons QuestMetric = "accurate_lessons_today"
)

// Quest is a daily goal.
type Quest struct {
	ID          string      `yaml:"id" json:"id"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description"`
	Icon        string      `yaml:"icon" json:"icon"`
	Metric      QuestMetric `yaml:"metric" json:"metric"`
	Target      int         `yaml:"target" json:"total"`
	Reward      int         `yaml:"reward" json:"reward"`
}
