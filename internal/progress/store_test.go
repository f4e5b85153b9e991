package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalobadob/lingo/assets"
	"github.com/robalobadob/lingo/internal/catalog"
	"github.com/robalobadob/lingo/internal/daily"
	"github.com/robalobadob/lingo/internal/db"
)

const testCatalog = `
lessons:
  - id: a
    xp_reward: 10
    exercises: [{id: a1, correct_answer: [x], word_bank: [x]}]
  - id: b
    xp_reward: 15
    exercises: [{id: b1, correct_answer: [x], word_bank: [x]}]
  - id: c
    xp_reward: 20
    exercises: [{id: c1, correct_answer: [x], word_bank: [x]}]
units:
  - id: u1
    number: 1
    nodes: [{id: a}, {id: b}]
  - id: u2
    number: 2
    nodes: [{id: chest, type: chest}, {id: c}]
quests:
  - {id: xp, metric: daily_xp, target: 30}
  - {id: lessons, metric: lessons_today, target: 2}
  - {id: accurate, metric: accurate_lessons_today, target: 3}
`

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	fsys, err := assets.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(context.Background(), sqlDB, fsys); err != nil {
		t.Fatal(err)
	}
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	clk := &clock{t: time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)}
	s := NewStore(sqlDB, cat)
	s.SetClock(clk.now)
	return s, clk
}

func statuses(t *testing.T, s *Store, learner string) map[string]NodeStatus {
	t.Helper()
	units, err := s.Units(context.Background(), learner)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]NodeStatus{}
	for _, u := range units {
		for _, n := range u.Nodes {
			out[n.ID] = n.Status
		}
	}
	return out
}

func TestStatuses(t *testing.T) {
	path := []catalog.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	tests := []struct {
		name string
		done map[string]bool
		want []NodeStatus
	}{
		{"fresh", nil, []NodeStatus{NodeAvailable, NodeLocked, NodeLocked, NodeLocked}},
		{"first done", map[string]bool{"a": true}, []NodeStatus{NodeCompleted, NodeAvailable, NodeLocked, NodeLocked}},
		{"out of order", map[string]bool{"c": true}, []NodeStatus{NodeAvailable, NodeLocked, NodeCompleted, NodeAvailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Statuses(path, tt.done)
			for i, n := range path {
				if got[n.ID] != tt.want[i] {
					t.Errorf("%s = %s, want %s", n.ID, got[n.ID], tt.want[i])
				}
			}
		})
	}
}

func TestCompleteLessonUnlocksNext(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	st := statuses(t, s, "amy")
	if st["a"] != NodeAvailable || st["b"] != NodeLocked {
		t.Fatalf("fresh = %v", st)
	}

	if err := s.CompleteLesson(ctx, "amy", "a", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteLesson(ctx, "amy", "b", 2); err != nil {
		t.Fatal(err)
	}
	st = statuses(t, s, "amy")
	if st["a"] != NodeCompleted || st["b"] != NodeCompleted || st["chest"] != NodeAvailable || st["c"] != NodeLocked {
		t.Fatalf("after two lessons = %v", st)
	}

	got, err := s.NodeStatus(ctx, "amy", "c")
	if err != nil || got != NodeLocked {
		t.Fatalf("NodeStatus(c) = %s, %v", got, err)
	}
	if got, _ := s.NodeStatus(ctx, "amy", "off-path"); got != NodeAvailable {
		t.Fatalf("off-path lesson = %s", got)
	}

	units, _ := s.Units(ctx, "amy")
	if units[1].Nodes[0].Playable || !units[1].Nodes[1].Playable {
		t.Fatalf("playable flags = %+v", units[1].Nodes)
	}
}

func TestAwardXPAndProfile(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)

	p, err := s.Profile(ctx, "new")
	if err != nil || p.XP != 0 || p.Level != 1 || p.Streak != 0 {
		t.Fatalf("fresh profile = %+v, %v", p, err)
	}

	for _, step := range []struct {
		xp         int
		advance    int // days
		wantStreak int
	}{
		{60, 0, 1},
		{10, 0, 1},
		{40, 1, 2},
		{5, 3, 1},
	} {
		clk.t = clk.t.AddDate(0, 0, step.advance)
		if err := s.AwardXP(ctx, "amy", step.xp); err != nil {
			t.Fatal(err)
		}
		p, _ := s.Profile(ctx, "amy")
		if p.Streak != step.wantStreak {
			t.Fatalf("after +%d on %s: streak = %d, want %d", step.xp, daily.DateKey(clk.t), p.Streak, step.wantStreak)
		}
	}

	p, _ = s.Profile(ctx, "amy")
	if p.XP != 115 || p.Level != 2 || p.TodayXP != 5 {
		t.Fatalf("profile = %+v", p)
	}

	clk.t = clk.t.AddDate(0, 0, 2)
	if p, _ := s.Profile(ctx, "amy"); p.Streak != 0 {
		t.Fatalf("lapsed streak shown as %d", p.Streak)
	}
	if err := s.AwardXP(ctx, "amy", -1); err == nil {
		t.Fatal("negative xp accepted")
	}
}

func TestQuests(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.CompleteLesson(ctx, "amy", "a", 0)
	s.AwardXP(ctx, "amy", 10)
	s.CompleteLesson(ctx, "amy", "b", 1)
	s.AwardXP(ctx, "amy", 25)

	qs, err := s.Quests(ctx, "amy")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]struct {
		progress int
		done     bool
	}{
		"xp":       {30, true}, // capped
		"lessons":  {2, true},
		"accurate": {1, false},
	}
	for _, q := range qs {
		w := want[q.ID]
		if q.Progress != w.progress || q.Done != w.done {
			t.Errorf("%s = %d/%v, want %d/%v", q.ID, q.Progress, q.Done, w.progress, w.done)
		}
	}
}

func TestTouchAndHistory(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)

	if err := s.Touch(ctx, "amy", "b"); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Profile(ctx, "amy"); p.LastLessonID != "b" {
		t.Fatalf("last lesson = %q", p.LastLessonID)
	}

	first := Attempt{ID: "t1", LearnerID: "amy", LessonID: "a", Status: "failed", Mistakes: 3, StartedAt: clk.t}
	second := Attempt{ID: "t2", LearnerID: "amy", LessonID: "a", Status: "succeeded", XP: 10,
		StartedAt: clk.t, FinishedAt: clk.t.Add(time.Minute)}
	for _, a := range []Attempt{first, second, second} {
		if err := s.RecordAttempt(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	h, err := s.History(ctx, "amy", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 || h[0].ID != "t2" || h[1].ID != "t1" || h[0].XP != 10 {
		t.Fatalf("history = %+v", h)
	}
}

func TestClaimAnon(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)

	s.CompleteLesson(ctx, "guest", "a", 0)
	s.AwardXP(ctx, "guest", 10)
	s.RecordAttempt(ctx, Attempt{ID: "t1", LearnerID: "guest", LessonID: "a", Status: "succeeded", StartedAt: clk.t})

	s.CompleteLesson(ctx, "user", "a", 2)
	s.AwardXP(ctx, "user", 20)

	if err := s.ClaimAnon(ctx, "guest", "user"); err != nil {
		t.Fatalf("ClaimAnon: %v", err)
	}

	p, _ := s.Profile(ctx, "user")
	if p.XP != 30 || p.CompletedLessons != 1 || p.TodayXP != 30 || p.Streak != 1 {
		t.Fatalf("user profile = %+v", p)
	}
	if st := statuses(t, s, "user"); st["b"] != NodeAvailable {
		t.Fatalf("statuses = %v", st)
	}
	if h, _ := s.History(ctx, "user", 10); len(h) != 1 {
		t.Fatalf("history = %+v", h)
	}
	c, _ := s.Days().Get(ctx, "user", daily.DateKey(clk.t))
	if c.Lessons != 2 || c.AccurateLessons != 1 {
		t.Fatalf("user counters = %+v", c)
	}

	if p, _ := s.Profile(ctx, "guest"); p.XP != 0 || p.CompletedLessons != 0 {
		t.Fatalf("guest left with %+v", p)
	}
	if c, _ := s.Days().Get(ctx, "guest", daily.DateKey(clk.t)); c != (daily.Counters{}) {
		t.Fatalf("guest counters left: %+v", c)
	}

	if err := s.ClaimAnon(ctx, "nobody", "user"); err != nil {
		t.Fatalf("claim of unknown guest: %v", err)
	}
}

func TestFinishAttemptPaysOnce(t *testing.T) {
	ctx := context.Background()
	s, clk := newTestStore(t)

	won := Attempt{ID: "t1", LearnerID: "amy", LessonID: "a", Status: StatusSucceeded, XP: 10, StartedAt: clk.t}
	for i, wantFresh := range []bool{true, false} {
		fresh, err := s.FinishAttempt(ctx, won)
		if err != nil || fresh != wantFresh {
			t.Fatalf("finish #%d = %v, %v; want fresh=%v", i+1, fresh, err, wantFresh)
		}
	}
	p, _ := s.Profile(ctx, "amy")
	if p.XP != 10 || p.CompletedLessons != 1 {
		t.Fatalf("profile after repeated finish = %+v", p)
	}
	c, _ := s.Days().Get(ctx, "amy", daily.DateKey(clk.t))
	if c.Lessons != 1 || c.XP != 10 {
		t.Fatalf("counters = %+v", c)
	}

	lost := Attempt{ID: "t2", LearnerID: "amy", LessonID: "b", Status: "failed", Mistakes: 3, StartedAt: clk.t}
	if fresh, err := s.FinishAttempt(ctx, lost); err != nil || !fresh {
		t.Fatalf("failed attempt = %v, %v", fresh, err)
	}
	if st := statuses(t, s, "amy"); st["b"] != NodeAvailable {
		t.Fatalf("failed attempt completed the lesson: %v", st)
	}
	if h, _ := s.History(ctx, "amy", 10); len(h) != 2 {
		t.Fatalf("history = %+v", h)
	}
}
