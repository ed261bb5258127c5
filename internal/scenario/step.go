// Package scenario runs declarative UI scenarios: ordered browser steps with
// bounded polling waits, table row matching, and assertions.
package scenario

import (
	"errors"
	"fmt"
	"time"
)

// Action is the verb of a step.
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionFind     Action = "find"
	ActionType     Action = "type"
	ActionClear    Action = "clear"
	ActionClick    Action = "click"
	ActionWait     Action = "wait"
	ActionReadText Action = "read-text"

	ActionSnapshotRows Action = "snapshot-rows"
	ActionFindRow      Action = "find-row"
	ActionClickInRow   Action = "click-in-row"
	ActionReadCell     Action = "read-cell"

	ActionAssertText        Action = "assert-text"
	ActionAssertContains    Action = "assert-contains"
	ActionAssertNotContains Action = "assert-not-contains"
	ActionAssertRowCount    Action = "assert-row-count"
	ActionAssertNamePresent Action = "assert-name-present"
	ActionAssertNameAbsent  Action = "assert-name-absent"
)

// Actions lists every action a runner understands.
var Actions = []Action{
	ActionNavigate, ActionFind, ActionType, ActionClear, ActionClick, ActionWait, ActionReadText,
	ActionSnapshotRows, ActionFindRow, ActionClickInRow, ActionReadCell,
	ActionAssertText, ActionAssertContains, ActionAssertNotContains,
	ActionAssertRowCount, ActionAssertNamePresent, ActionAssertNameAbsent,
}

// Step is one instruction of a scenario. Which fields matter depends on the
// action; Validate enforces the required ones.
type Step struct {
	Name    string        `yaml:"name,omitempty" json:"name,omitempty"`
	Action  Action        `yaml:"action" json:"action"`
	Locator string        `yaml:"locator,omitempty" json:"locator,omitempty"`
	Value   string        `yaml:"value,omitempty" json:"value,omitempty"`
	Index   int           `yaml:"index,omitempty" json:"index,omitempty"`
	Save    string        `yaml:"save,omitempty" json:"save,omitempty"`
	Expect  string        `yaml:"expect,omitempty" json:"expect,omitempty"`
	Table   string        `yaml:"table,omitempty" json:"table,omitempty"`
	Column  *int          `yaml:"column,omitempty" json:"column,omitempty"`
	Cell    int           `yaml:"cell,omitempty" json:"cell,omitempty"`
	Row     string        `yaml:"row,omitempty" json:"row,omitempty"`
	Base    string        `yaml:"baseline,omitempty" json:"baseline,omitempty"`
	Delta   int           `yaml:"delta,omitempty" json:"delta,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Label is the step name, or a generated one when the step has none.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	switch {
	case s.Locator != "":
		return fmt.Sprintf("%s %s", s.Action, s.Locator)
	case s.Table != "":
		return fmt.Sprintf("%s %s", s.Action, s.Table)
	case s.Value != "":
		return fmt.Sprintf("%s %s", s.Action, s.Value)
	default:
		return string(s.Action)
	}
}

// Validate checks that the fields the action needs are present.
func (s Step) Validate() error {
	need := func(field, v string) error {
		if v == "" {
			return fmt.Errorf("%s: %s is required", s.Label(), field)
		}
		return nil
	}
	if s.Index < 0 || s.Cell < 0 || (s.Column != nil && *s.Column < 0) {
		return fmt.Errorf("%s: indexes must not be negative", s.Label())
	}
	switch s.Action {
	case ActionNavigate:
		return need("value", s.Value)
	case ActionFind, ActionClear, ActionClick, ActionWait:
		return need("locator", s.Locator)
	case ActionType:
		return need("locator", s.Locator)
	case ActionReadText:
		return errors.Join(need("locator", s.Locator), need("save", s.Save))
	case ActionSnapshotRows:
		return errors.Join(need("table", s.Table), need("save", s.Save))
	case ActionFindRow:
		return errors.Join(need("table", s.Table), need("save", s.Save))
	case ActionClickInRow:
		return errors.Join(need("row", s.Row), need("locator", s.Locator))
	case ActionReadCell:
		return errors.Join(need("row", s.Row), need("save", s.Save))
	case ActionAssertText, ActionAssertContains, ActionAssertNotContains:
		if s.Locator == "" && s.Value == "" {
			return fmt.Errorf("%s: locator or value is required", s.Label())
		}
		return nil
	case ActionAssertRowCount:
		if s.Base == "" && s.Expect == "" {
			return fmt.Errorf("%s: baseline or expect is required", s.Label())
		}
		return need("table", s.Table)
	case ActionAssertNamePresent, ActionAssertNameAbsent:
		return errors.Join(need("table", s.Table), need("value", s.Value))
	case "":
		return errors.New("step without action")
	default:
		return fmt.Errorf("%s: unknown action %q", s.Label(), s.Action)
	}
}

// Scenario is one user workflow.
type Scenario struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Steps       []Step   `yaml:"steps" json:"steps"`
}

// Validate checks every step.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("scenario without name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, st := range s.Steps {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Suite is a group of scenarios sharing one browser session. Setup runs
// before the first scenario and Teardown after the last, even on failure.
type Suite struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Login       bool              `yaml:"login,omitempty" json:"login,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Setup       []Step            `yaml:"setup,omitempty" json:"setup,omitempty"`
	Scenarios   []Scenario        `yaml:"scenarios" json:"scenarios"`
	Teardown    []Step            `yaml:"teardown,omitempty" json:"teardown,omitempty"`
}

// Validate checks the suite and everything in it.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return errors.New("suite without name")
	}
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("suite %q has no scenarios", s.Name)
	}
	for i, st := range s.Setup {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("suite %q setup step %d: %w", s.Name, i+1, err)
		}
	}
	for i, st := range s.Teardown {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("suite %q teardown step %d: %w", s.Name, i+1, err)
		}
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if err := sc.Validate(); err != nil {
			return err
		}
		if seen[sc.Name] {
			return fmt.Errorf("suite %q: duplicate scenario %q", s.Name, sc.Name)
		}
		seen[sc.Name] = true
	}
	return nil
}

// Filter returns a copy of the suite keeping only scenarios for which keep
// returns true. Setup and teardown are kept as they are.
func (s *Suite) Filter(keep func(*Scenario) bool) *Suite {
	out := *s
	out.Scenarios = nil
	for i := range s.Scenarios {
		if keep(&s.Scenarios[i]) {
			out.Scenarios = append(out.Scenarios, s.Scenarios[i])
		}
	}
	return &out
}
