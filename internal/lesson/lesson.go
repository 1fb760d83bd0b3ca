// Package lesson holds the course catalogue: the days, their explanatory
// sections, and the runnable problems each day page shows.
//
// The catalogue is compiled into the binary from lessons.yaml and is
// read-only after Load.
package lesson

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sakif/mathcode/internal/apperror"
)

//go:embed lessons.yaml
var catalogueYAML []byte

// Levels in the order they are offered.
var Levels = []string{"하", "중", "상"}

// Problem is one runnable exercise with its own editor on the page.
type Problem struct {
	Number  string `yaml:"number" json:"number"`
	Title   string `yaml:"title" json:"title"`
	Prompt  string `yaml:"prompt" json:"prompt"`
	Starter string `yaml:"starter" json:"starter"`
	Hint    string `yaml:"hint,omitempty" json:"hint,omitempty"`
	Answer  string `yaml:"answer,omitempty" json:"answer,omitempty"`
	// Level is set for leveled problems only.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	prefix string
}

// Key identifies the problem's widgets: the editor is Key()+"_editor" and
// the run action Key()+"_run".
func (p *Problem) Key() string {
	return p.prefix + p.Number
}

func (p *Problem) EditorKey() string { return p.Key() + "_editor" }
func (p *Problem) RunKey() string    { return p.Key() + "_run" }

type Section struct {
	Title    string     `yaml:"title" json:"title"`
	Notes    []string   `yaml:"notes" json:"notes"`
	Example  string     `yaml:"example,omitempty" json:"example,omitempty"`
	Problems []*Problem `yaml:"problems" json:"problems"`
}

type Day struct {
	Number       int        `yaml:"number" json:"number"`
	Prefix       string     `yaml:"prefix" json:"prefix"`
	Title        string     `yaml:"title" json:"title"`
	Subtitle     string     `yaml:"subtitle" json:"subtitle"`
	Summary      string     `yaml:"summary" json:"summary"`
	Video        string     `yaml:"video" json:"video"`
	Goals        []string   `yaml:"goals" json:"goals"`
	Diagnostic   bool       `yaml:"diagnostic" json:"diagnostic"`
	Sequence     string     `yaml:"sequence,omitempty" json:"sequence,omitempty"`
	ProjectTitle string     `yaml:"project_title,omitempty" json:"projectTitle,omitempty"`
	Sections     []*Section `yaml:"sections" json:"sections"`
	LevelNumber  string     `yaml:"level_number" json:"-"`
	Levels       []*Problem `yaml:"levels" json:"levels"`

	byKey map[string]*Problem
}

// HasProject reports whether the day ends with a write-your-own-problem
// project that can be exported as a report.
func (d *Day) HasProject() bool { return d.ProjectTitle != "" }

// Problems returns every runnable problem of the day, section problems
// first, then the leveled ones.
func (d *Day) Problems() []*Problem {
	var out []*Problem
	for _, s := range d.Sections {
		out = append(out, s.Problems...)
	}
	return append(out, d.Levels...)
}

// Level returns the leveled problem for level ("하", "중", "상").
func (d *Day) Level(level string) (*Problem, bool) {
	for _, p := range d.Levels {
		if p.Level == level {
			return p, true
		}
	}
	return nil, false
}

type Catalogue struct {
	Course string
	Grade  string

	days     []*Day
	byNumber map[int]*Day
}

type catalogueFile struct {
	Course string `yaml:"course"`
	Grade  string `yaml:"grade"`
	Days   []*Day `yaml:"days"`
}

// Load parses the embedded catalogue.
func Load() (*Catalogue, error) {
	return Parse(catalogueYAML)
}

// Parse builds a catalogue from YAML and checks it is self-consistent:
// unique day numbers, a prefix per day, and unique problem keys.
func Parse(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("lesson: parsing catalogue: %w", err)
	}

	c := &Catalogue{
		Course:   f.Course,
		Grade:    f.Grade,
		days:     f.Days,
		byNumber: make(map[int]*Day, len(f.Days)),
	}
	seen := make(map[string]int)
	for _, d := range c.days {
		if d.Number <= 0 {
			return nil, fmt.Errorf("lesson: day number must be positive (got %d)", d.Number)
		}
		if _, dup := c.byNumber[d.Number]; dup {
			return nil, fmt.Errorf("lesson: day %d defined twice", d.Number)
		}
		if d.Prefix == "" {
			d.Prefix = "d" + strconv.Itoa(d.Number) + "_"
		}
		c.byNumber[d.Number] = d

		for _, s := range d.Sections {
			for _, p := range s.Problems {
				p.prefix = d.Prefix
			}
		}
		for _, p := range d.Levels {
			if p.Level == "" {
				return nil, fmt.Errorf("lesson: day %d has a leveled problem without a level", d.Number)
			}
			p.prefix = d.Prefix + "sel_" + p.Level + "_"
			if p.Number == "" {
				p.Number = d.LevelNumber
			}
		}

		d.byKey = make(map[string]*Problem)
		for _, p := range d.Problems() {
			if p.Number == "" {
				return nil, fmt.Errorf("lesson: day %d has a problem without a number", d.Number)
			}
			if other, dup := seen[p.Key()]; dup {
				return nil, fmt.Errorf("lesson: problem key %q used by day %d and day %d", p.Key(), other, d.Number)
			}
			seen[p.Key()] = d.Number
			d.byKey[p.Key()] = p
		}
	}

	sort.Slice(c.days, func(i, j int) bool { return c.days[i].Number < c.days[j].Number })
	return c, nil
}

// Days returns the days in ascending order.
func (c *Catalogue) Days() []*Day {
	return slices.Clone(c.days)
}

// Day returns day n, or an apperror.NotFound.
func (c *Catalogue) Day(n int) (*Day, error) {
	d, ok := c.byNumber[n]
	if !ok {
		return nil, apperror.NotFound("day", strconv.Itoa(n))
	}
	return d, nil
}

// Problem looks up a problem by its key within day n.
func (c *Catalogue) Problem(n int, key string) (*Problem, error) {
	d, err := c.Day(n)
	if err != nil {
		return nil, err
	}
	p, ok := d.byKey[key]
	if !ok {
		return nil, apperror.NotFound("problem", key)
	}
	return p, nil
}
