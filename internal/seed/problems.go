package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"codelearn/internal/models"
	"codelearn/internal/service"

	"gopkg.in/yaml.v3"
)

//go:embed problems.yml
var defaultProblemSet []byte

// ProblemSet is a YAML document describing contests to seed.
type ProblemSet struct {
	Contests []ContestTemplate `yaml:"contests"`
}

// ContestTemplate describes one contest. StartsIn is a Go duration relative to
// the seeding time and may be negative.
type ContestTemplate struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	StartsIn    string            `yaml:"starts_in"`
	Duration    int               `yaml:"duration"`
	Problems    []ProblemTemplate `yaml:"problems"`

	offset time.Duration
}

type ProblemTemplate struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Difficulty  string            `yaml:"difficulty"`
	Points      int               `yaml:"points"`
	TestCases   []models.TestCase `yaml:"test_cases"`
}

// LoadProblemSet reads a problem set from path, or the embedded default when
// path is empty.
func LoadProblemSet(path string) (*ProblemSet, error) {
	if path == "" {
		return ParseProblemSet(defaultProblemSet)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem set: %w", err)
	}
	return ParseProblemSet(data)
}

// ParseProblemSet decodes and validates a problem set document.
func ParseProblemSet(data []byte) (*ProblemSet, error) {
	var set ProblemSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode problem set: %w", err)
	}
	if len(set.Contests) == 0 {
		return nil, errors.New("problem set has no contests")
	}
	for i := range set.Contests {
		if err := set.Contests[i].validate(); err != nil {
			return nil, fmt.Errorf("contest %d: %w", i, err)
		}
	}
	return &set, nil
}

func (c *ContestTemplate) validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	if c.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	if c.StartsIn != "" {
		d, err := time.ParseDuration(c.StartsIn)
		if err != nil {
			return fmt.Errorf("starts_in: %w", err)
		}
		c.offset = d
	}
	if len(c.Problems) == 0 {
		return errors.New("at least one problem is required")
	}
	for i, p := range c.Problems {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("problem %d: title is required", i)
		}
		if p.Difficulty != "" && !models.Difficulty(p.Difficulty).Valid() {
			return fmt.Errorf("problem %d: unknown difficulty %q", i, p.Difficulty)
		}
		if p.Points < 0 {
			return fmt.Errorf("problem %d: points must not be negative", i)
		}
	}
	return nil
}

// StartTime is the contest start relative to now.
func (c ContestTemplate) StartTime(now time.Time) time.Time {
	return now.Add(c.offset)
}

// Input converts the template into a contest creation request.
func (c ContestTemplate) Input(creatorID uint, groupIDs []uint, now time.Time) service.CreateContestInput {
	in := service.CreateContestInput{
		CreatorID:   creatorID,
		Title:       c.Title,
		Description: c.Description,
		StartTime:   c.StartTime(now),
		Duration:    c.Duration,
		GroupIDs:    groupIDs,
	}
	if in.Description == "" {
		in.Description = c.Title
	}
	for _, p := range c.Problems {
		description := p.Description
		if description == "" {
			description = p.Title
		}
		in.Problems = append(in.Problems, service.ProblemInput{
			Title:       p.Title,
			Description: description,
			Difficulty:  models.Difficulty(p.Difficulty),
			Points:      p.Points,
			TestCases:   p.TestCases,
		})
	}
	return in
}
