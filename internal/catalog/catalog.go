// internal/catalog/catalog.go
//
// Lesson catalog management.
//
// Responsibilities:
//   - Parse and validate a YAML catalog (lessons, units, quests).
//   - Index lessons by ID and flatten the learning path in unit order.
//   - Load the catalog from CATALOG_FILE or fall back to the embedded default.
//
// Loading behavior (Load):
//   1. If a catalog file is given (CATALOG_FILE), load that file.
//   2. Otherwise use the catalog embedded in the assets package.

package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/lingo/assets"
)

// ErrNotFound is returned for unknown lesson IDs.
var ErrNotFound = errors.New("not found")

type document struct {
	Lessons []Lesson `yaml:"lessons"`
	Units   []Unit   `yaml:"units"`
	Quests  []Quest  `yaml:"quests"`
}

// Catalog is the read-only lesson catalog.
type Catalog struct {
	lessons map[string]*Lesson
	order   []string
	units   []Unit
	path    []Node
	quests  []Quest
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{lessons: make(map[string]*Lesson, len(doc.Lessons)), quests: doc.Quests}
	for i := range doc.Lessons {
		l := &doc.Lessons[i]
		if err := validateLesson(l); err != nil {
			return nil, err
		}
		if _, dup := c.lessons[l.ID]; dup {
			return nil, fmt.Errorf("lesson %q: duplicate id", l.ID)
		}
		c.lessons[l.ID] = l
		c.order = append(c.order, l.ID)
	}

	c.units = doc.Units
	sort.SliceStable(c.units, func(i, j int) bool { return c.units[i].Number < c.units[j].Number })
	seen := map[string]bool{}
	for _, u := range c.units {
		for _, n := range u.Nodes {
			if seen[n.ID] {
				return nil, fmt.Errorf("node %q: duplicate id", n.ID)
			}
			seen[n.ID] = true
			c.path = append(c.path, n)
		}
	}
	return c, nil
}

// validateLesson checks that every exercise can be answered from its bank.
func validateLesson(l *Lesson) error {
	if l.ID == "" {
		return errors.New("lesson without id")
	}
	ids := map[string]bool{}
	for _, ex := range l.Exercises {
		if ex.ID == "" {
			return fmt.Errorf("lesson %q: exercise without id", l.ID)
		}
		if ids[ex.ID] {
			return fmt.Errorf("lesson %q: duplicate exercise %q", l.ID, ex.ID)
		}
		ids[ex.ID] = true
		if len(ex.CorrectAnswer) == 0 {
			return fmt.Errorf("exercise %q: empty correct answer", ex.ID)
		}
		avail := map[string]int{}
		for _, w := range ex.WordBank {
			avail[w]++
		}
		for _, w := range ex.CorrectAnswer {
			if avail[w] == 0 {
				return fmt.Errorf("exercise %q: answer token %q missing from word bank", ex.ID, w)
			}
			avail[w]--
		}
	}
	return nil
}

// Lesson looks up a lesson by ID.
func (c *Catalog) Lesson(id string) (*Lesson, error) {
	if l, ok := c.lessons[id]; ok {
		return l, nil
	}
	return nil, ErrNotFound
}

// Lessons returns lessons in catalog order.
func (c *Catalog) Lessons() []*Lesson {
	out := make([]*Lesson, len(c.order))
	for i, id := range c.order {
		out[i] = c.lessons[id]
	}
	return out
}

// Units returns the learning path grouped by unit, ordered by unit number.
func (c *Catalog) Units() []Unit { return c.units }

// Path returns every node in path order across units.
func (c *Catalog) Path() []Node { return c.path }

// Quests returns the daily quest definitions.
func (c *Catalog) Quests() []Quest { return c.quests }

// Load reads a catalog from path, or the embedded catalog when path is
// empty. A catalog without lessons is an error.
func Load(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = assets.Catalog()
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(c.lessons) == 0 {
		return nil, errors.New("catalog has no lessons")
	}
	return c, nil
}
