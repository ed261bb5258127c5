package scenario

import (
	"time"
)

// Status is the outcome of a step, scenario or suite.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records one executed step.
type StepResult struct {
	Name     string        `json:"name"`
	Action   Action        `json:"action"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Kind     string        `json:"kind,omitempty"`
}

// ScenarioResult records one scenario run. Err is the first failing step's
// error; later steps of a failed scenario are not executed.
type ScenarioResult struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Steps      []StepResult  `json:"steps"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`
}

func (r *ScenarioResult) fail(err error) {
	r.Status = StatusFailed
	r.Err = err
	r.Error = err.Error()
}

// SuiteResult records one run of a suite.
type SuiteResult struct {
	ID        string            `json:"id"`
	Suite     string            `json:"suite"`
	Driver    string            `json:"driver,omitempty"`
	Started   time.Time         `json:"started"`
	Duration  time.Duration     `json:"duration"`
	Setup     *ScenarioResult   `json:"setup,omitempty"`
	Scenarios []*ScenarioResult `json:"scenarios"`
	Teardown  *ScenarioResult   `json:"teardown,omitempty"`
}

// Failed reports whether setup or any scenario failed.
func (r *SuiteResult) Failed() bool {
	if r.Setup != nil && r.Setup.Status == StatusFailed {
		return true
	}
	for _, s := range r.Scenarios {
		if s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Counts tallies scenario outcomes.
func (r *SuiteResult) Counts() (passed, failed, skipped int) {
	for _, s := range r.Scenarios {
		switch s.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Scenario returns the result for the named scenario, or nil.
func (r *SuiteResult) Scenario(name string) *ScenarioResult {
	for _, s := range r.Scenarios {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Observer is notified as a run progresses. Calls happen on the runner's
// goroutine, in execution order.
type Observer interface {
	StepFinished(suite, scenario string, step StepResult)
	ScenarioFinished(suite string, result *ScenarioResult)
}
