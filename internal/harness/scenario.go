package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldmap/internal/point"
)

// Scenario is a scripted session against the map feature.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is the store's content before the feature starts.
	Initial []PointSpec `yaml:"initial,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Expect is checked once every step has run and the feature is idle.
	Expect *Expect `yaml:"expect,omitempty"`
}

// PointSpec is a map point in scenario form.
type PointSpec struct {
	ID        string  `yaml:"id"`
	Type      string  `yaml:"type"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// MapPoint converts the entry, failing on unknown types or bad coordinates.
func (p PointSpec) MapPoint() (point.MapPoint, error) {
	t, err := point.ParseType(p.Type)
	if err != nil {
		return point.MapPoint{}, err
	}
	mp := point.MapPoint{
		ID:       p.ID,
		Type:     t,
		Location: point.Location{Latitude: p.Latitude, Longitude: p.Longitude},
	}
	if err := mp.Validate(); err != nil {
		return point.MapPoint{}, err
	}
	return mp, nil
}

// Step sets exactly one of its fields.
type Step struct {
	Push         *[]PointSpec `yaml:"push,omitempty"`
	PushRecords  []string     `yaml:"push_records,omitempty"`
	FailUpdates  string       `yaml:"fail_updates,omitempty"`
	Save         *PointSpec   `yaml:"save,omitempty"`
	ShowResults  bool         `yaml:"show_results,omitempty"`
	FailNextSave string       `yaml:"fail_next_save,omitempty"`
	Await        *Await       `yaml:"await,omitempty"`
}

// Step kinds.
const (
	StepPush         = "push"
	StepPushRecords  = "push_records"
	StepFailUpdates  = "fail_updates"
	StepSave         = "save"
	StepShowResults  = "show_results"
	StepFailNextSave = "fail_next_save"
	StepAwait        = "await"
)

// Kind names the step's single field, or "" when zero or several are set.
func (s Step) Kind() string {
	var kinds []string
	if s.Push != nil {
		kinds = append(kinds, StepPush)
	}
	if s.PushRecords != nil {
		kinds = append(kinds, StepPushRecords)
	}
	if s.FailUpdates != "" {
		kinds = append(kinds, StepFailUpdates)
	}
	if s.Save != nil {
		kinds = append(kinds, StepSave)
	}
	if s.ShowResults {
		kinds = append(kinds, StepShowResults)
	}
	if s.FailNextSave != "" {
		kinds = append(kinds, StepFailNextSave)
	}
	if s.Await != nil {
		kinds = append(kinds, StepAwait)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Await waits for cumulative counts since the scenario started. The replay
// of the initial state counts as the first state.
type Await struct {
	States int `yaml:"states,omitempty"`
	News   int `yaml:"news,omitempty"`
}

// Expect describes the final outcome. Nil fields are not checked.
type Expect struct {
	// Points is the final list of point ids, in order.
	Points *[]string `yaml:"points,omitempty"`

	// Saved is the ids the store accepted, in call order.
	Saved *[]string `yaml:"saved,omitempty"`

	// States is the total number of recorded states.
	States *int `yaml:"states,omitempty"`

	// News is the kinds of recorded news, in order.
	News *[]string `yaml:"news,omitempty"`

	// Errors holds substrings of each error news message, in order.
	Errors []string `yaml:"errors,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML files under dir whose base name matches
// the glob filter, sorted. An empty filter matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			matched, err := filepath.Match(filter, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, p := range s.Initial {
		if _, err := p.MapPoint(); err != nil {
			return fmt.Errorf("initial[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	switch s.Kind() {
	case "":
		return fmt.Errorf("steps[%d]: exactly one step kind must be set", index)
	case StepPush:
		for j, p := range *s.Push {
			if _, err := p.MapPoint(); err != nil {
				return fmt.Errorf("steps[%d].push[%d]: %w", index, j, err)
			}
		}
	case StepSave:
		// An invalid point is a legitimate scenario: the feature must
		// reject it. Only the type has to parse.
		if _, err := point.ParseType(s.Save.Type); err != nil {
			return fmt.Errorf("steps[%d].save: %w", index, err)
		}
	case StepAwait:
		if s.Await.States <= 0 && s.Await.News <= 0 {
			return fmt.Errorf("steps[%d].await: states or news must be positive", index)
		}
	}
	return nil
}
