package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
	"github.com/gotrs-io/configurator-e2e/internal/table"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 250 * time.Millisecond
)

// Runner executes scenarios against one page. A Runner is not safe for
// concurrent use; steps run strictly in order.
type Runner struct {
	page          browser.Page
	timeout       time.Duration
	interval      time.Duration
	logger        *log.Logger
	observers     []Observer
	env           map[string]string
	baseURL       string
	driver        string
	failFast      bool
	screenshotDir string

	// run state, shared by every scenario of a suite run
	suiteEnv  map[string]string
	vars      map[string]string
	snapshots map[string][]table.RowSnapshot
	rows      map[string]*table.Row
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the default bound of every wait.
func WithTimeout(d time.Duration) Option { return func(r *Runner) { r.timeout = d } }

// WithPollInterval sets how often waits re-probe the page.
func WithPollInterval(d time.Duration) Option { return func(r *Runner) { r.interval = d } }

// WithLogger sets the logger for step and scenario events.
func WithLogger(l *log.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithObserver adds an observer; observers are called in the order added.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithEnv supplies values for ${NAME} expansion below saved variables and
// suite env but above the process environment.
func WithEnv(env map[string]string) Option {
	return func(r *Runner) {
		for k, v := range env {
			r.env[k] = v
		}
	}
}

// WithBaseURL makes navigate values starting with "/" relative to base.
func WithBaseURL(base string) Option {
	return func(r *Runner) { r.baseURL = strings.TrimRight(base, "/") }
}

// WithDriverName records the driver name in results.
func WithDriverName(name string) Option { return func(r *Runner) { r.driver = name } }

// WithFailFast skips the remaining scenarios after the first failure.
func WithFailFast(on bool) Option { return func(r *Runner) { r.failFast = on } }

// WithScreenshotDir enables a screenshot of the page when a scenario fails.
func WithScreenshotDir(dir string) Option { return func(r *Runner) { r.screenshotDir = dir } }

// New creates a runner driving page.
func New(page browser.Page, opts ...Option) *Runner {
	r := &Runner{
		page:     page,
		timeout:  DefaultTimeout,
		interval: DefaultPollInterval,
		logger:   &log.DefaultLogger,
		env:      map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset(nil)
	return r
}

func (r *Runner) reset(suiteEnv map[string]string) {
	r.suiteEnv = suiteEnv
	r.vars = map[string]string{}
	r.snapshots = map[string][]table.RowSnapshot{}
	r.rows = map[string]*table.Row{}
}

// Var returns a variable saved by a read-text or read-cell step.
func (r *Runner) Var(name string) (string, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// Snapshot returns rows saved by a snapshot-rows step.
func (r *Runner) Snapshot(name string) ([]table.RowSnapshot, bool) {
	s, ok := r.snapshots[name]
	return s, ok
}

// RunSuite runs setup, every scenario in order, then teardown. State saved
// by one scenario is visible to the next. A failed setup skips all
// scenarios; teardown always runs.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) *SuiteResult {
	r.reset(suite.Env)
	res := &SuiteResult{
		ID:      uuid.NewString(),
		Suite:   suite.Name,
		Driver:  r.driver,
		Started: time.Now(),
	}
	r.logger.Info().Str("suite", suite.Name).Str("run_id", res.ID).Int("scenarios", len(suite.Scenarios)).Msg("suite started")

	skipAll := false
	if len(suite.Setup) > 0 {
		res.Setup = r.run(ctx, suite.Name, &Scenario{Name: "setup", Steps: suite.Setup})
		skipAll = res.Setup.Status == StatusFailed
	}

	for i := range suite.Scenarios {
		sc := &suite.Scenarios[i]
		if skipAll || ctx.Err() != nil {
			sr := &ScenarioResult{Name: sc.Name, Status: StatusSkipped, Started: time.Now()}
			res.Scenarios = append(res.Scenarios, sr)
			r.notifyScenario(suite.Name, sr)
			continue
		}
		sr := r.run(ctx, suite.Name, sc)
		res.Scenarios = append(res.Scenarios, sr)
		if sr.Status == StatusFailed && r.failFast {
			skipAll = true
		}
	}

	if len(suite.Teardown) > 0 {
		// teardown runs even after cancellation so the target is left clean
		res.Teardown = r.run(context.WithoutCancel(ctx), suite.Name, &Scenario{Name: "teardown", Steps: suite.Teardown})
	}

	res.Duration = time.Since(res.Started)
	passed, failed, skipped := res.Counts()
	r.logger.Info().Str("suite", suite.Name).Int("passed", passed).Int("failed", failed).Int("skipped", skipped).
		Dur("duration", res.Duration).Msg("suite finished")
	return res
}

// RunScenario runs a single scenario with fresh state.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) *ScenarioResult {
	r.reset(nil)
	return r.run(ctx, "", sc)
}

// Run executes steps outside of any suite, keeping state from earlier calls.
// The first failing step's error is returned.
func (r *Runner) Run(ctx context.Context, steps ...Step) error {
	for _, st := range steps {
		if err := r.exec(ctx, st); err != nil {
			return fmt.Errorf("%s: %w", st.Label(), err)
		}
	}
	return nil
}

func (r *Runner) run(ctx context.Context, suite string, sc *Scenario) *ScenarioResult {
	res := &ScenarioResult{Name: sc.Name, Status: StatusPassed, Started: time.Now()}
	logger := r.logger
	logger.Info().Str("suite", suite).Str("scenario", sc.Name).Msg("scenario started")

	for i, st := range sc.Steps {
		start := time.Now()
		err := r.exec(ctx, st)
		sr := StepResult{Name: st.Label(), Action: st.Action, Status: StatusPassed, Duration: time.Since(start)}
		if err != nil {
			sr.Status = StatusFailed
			sr.Err = err
			sr.Error = err.Error()
			sr.Kind = Kind(err)
		}
		res.Steps = append(res.Steps, sr)
		r.notifyStep(suite, sc.Name, sr)

		logger.Debug().Str("scenario", sc.Name).Int("step", i+1).Str("action", string(st.Action)).
			Dur("duration", sr.Duration).Msg(sr.Name)

		if err != nil {
			res.fail(fmt.Errorf("step %d (%s): %w", i+1, st.Label(), err))
			res.Screenshot = r.screenshot(ctx, suite, sc.Name)
			logger.Error().Str("scenario", sc.Name).Int("step", i+1).Str("kind", sr.Kind).Err(err).Msg("scenario failed")
			break
		}
	}

	res.Duration = time.Since(res.Started)
	if res.Status == StatusPassed {
		logger.Info().Str("scenario", sc.Name).Dur("duration", res.Duration).Msg("scenario passed")
	}
	r.notifyScenario(suite, res)
	return res
}

func (r *Runner) notifyStep(suite, scenario string, sr StepResult) {
	for _, o := range r.observers {
		o.StepFinished(suite, scenario, sr)
	}
}

func (r *Runner) notifyScenario(suite string, sr *ScenarioResult) {
	for _, o := range r.observers {
		o.ScenarioFinished(suite, sr)
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (r *Runner) screenshot(ctx context.Context, suite, scenario string) string {
	if r.screenshotDir == "" {
		return ""
	}
	if err := os.MkdirAll(r.screenshotDir, 0o755); err != nil {
		r.logger.Warn().Err(err).Msg("cannot create screenshot dir")
		return ""
	}
	name := unsafeFileChars.ReplaceAllString(suite+"_"+scenario, "_")
	path := filepath.Join(r.screenshotDir, fmt.Sprintf("%s_%d.png", name, time.Now().Unix()))
	if err := r.page.Screenshot(context.WithoutCancel(ctx), path); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("screenshot failed")
		return ""
	}
	return path
}

func (r *Runner) expand(s string) string {
	return Expand(s, r.vars, r.suiteEnv, r.env)
}

func (r *Runner) timeoutFor(st Step) time.Duration {
	if st.Timeout > 0 {
		return st.Timeout
	}
	return r.timeout
}

func column(st Step) int {
	if st.Column != nil {
		return *st.Column
	}
	return table.DefaultNameColumn
}

func (r *Runner) exec(ctx context.Context, st Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch st.Action {
	case ActionNavigate:
		return r.navigate(ctx, st)
	case ActionFind, ActionWait:
		el, err := r.locate(ctx, st)
		if err != nil {
			return err
		}
		if st.Action == ActionWait && st.Expect != "" {
			return r.waitText(ctx, st, el)
		}
		if st.Save != "" {
			txt, err := el.Text(ctx)
			if err != nil {
				return err
			}
			r.vars[st.Save] = strings.TrimSpace(txt)
		}
		return nil
	case ActionType:
		el, err := r.locate(ctx, st)
		if err != nil {
			return err
		}
		return el.Type(ctx, r.expand(st.Value))
	case ActionClear:
		el, err := r.locate(ctx, st)
		if err != nil {
			return err
		}
		return el.Clear(ctx)
	case ActionClick:
		el, err := r.locate(ctx, st)
		if err != nil {
			return err
		}
		return el.Click(ctx)
	case ActionReadText:
		el, err := r.locate(ctx, st)
		if err != nil {
			return err
		}
		txt, err := el.Text(ctx)
		if err != nil {
			return err
		}
		r.vars[st.Save] = strings.TrimSpace(txt)
		return nil
	case ActionSnapshotRows:
		rows, err := table.Capture(ctx, r.page, r.expand(st.Table))
		if err != nil {
			return err
		}
		r.snapshots[st.Save] = table.Snapshots(rows)
		return nil
	case ActionFindRow:
		return r.findRow(ctx, st)
	case ActionClickInRow:
		el, err := r.locateInRow(ctx, st)
		if err != nil {
			return err
		}
		return el.Click(ctx)
	case ActionReadCell:
		row, ok := r.rows[st.Row]
		if !ok || row == nil {
			return &MissingElementError{Step: st.Label(), What: "row " + st.Row}
		}
		txt, ok := row.Cell(st.Cell)
		if !ok {
			return &MissingElementError{Step: st.Label(), What: fmt.Sprintf("cell %d of row %s", st.Cell, st.Row)}
		}
		r.vars[st.Save] = strings.TrimSpace(txt)
		return nil
	case ActionAssertText, ActionAssertContains, ActionAssertNotContains:
		return r.assertText(ctx, st)
	case ActionAssertRowCount:
		return r.assertRowCount(ctx, st)
	case ActionAssertNamePresent, ActionAssertNameAbsent:
		return r.assertName(ctx, st)
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
}

func (r *Runner) navigate(ctx context.Context, st Step) error {
	url := r.expand(st.Value)
	if strings.HasPrefix(url, "/") && r.baseURL != "" {
		url = r.baseURL + url
	}
	return r.page.Navigate(ctx, url)
}

// locate polls until the step's locator has more than Index matches.
func (r *Runner) locate(ctx context.Context, st Step) (browser.Element, error) {
	sel := r.expand(st.Locator)
	timeout := r.timeoutFor(st)
	var found browser.Element
	err := Poll(ctx, timeout, r.interval, func(ctx context.Context) (bool, error) {
		els, err := r.page.Query(ctx, sel)
		if err != nil {
			return false, err
		}
		if len(els) > st.Index {
			found = els[st.Index]
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, ErrTimeout) {
		return nil, &NotFoundError{Locator: sel, Index: st.Index, Timeout: timeout}
	}
	return found, err
}

func (r *Runner) waitText(ctx context.Context, st Step, el browser.Element) error {
	want := r.expand(st.Expect)
	var last string
	err := Poll(ctx, r.timeoutFor(st), r.interval, func(ctx context.Context) (bool, error) {
		// re-query so a navigation that replaced the element is seen
		els, err := r.page.Query(ctx, r.expand(st.Locator))
		if err != nil {
			return false, err
		}
		if len(els) <= st.Index {
			return false, nil
		}
		txt, err := els[st.Index].Text(ctx)
		if err != nil {
			return false, err
		}
		last = strings.TrimSpace(txt)
		return last == want, nil
	})
	if errors.Is(err, ErrTimeout) {
		return &AssertionError{Step: st.Label(), Expected: want, Actual: last}
	}
	return err
}

func (r *Runner) findRow(ctx context.Context, st Step) error {
	rows, err := table.Capture(ctx, r.page, r.expand(st.Table))
	if err != nil {
		return err
	}
	delete(r.rows, st.Save)
	if st.Value != "" {
		if row, ok := table.Find(rows, table.NameEquals(column(st), r.expand(st.Value))); ok {
			r.rows[st.Save] = &row
		}
		return nil
	}
	if st.Index < len(rows) {
		row := rows[st.Index]
		r.rows[st.Save] = &row
	}
	return nil
}

func (r *Runner) locateInRow(ctx context.Context, st Step) (browser.Element, error) {
	row, ok := r.rows[st.Row]
	if !ok || row == nil {
		return nil, &MissingElementError{Step: st.Label(), What: "row " + st.Row}
	}
	if st.Cell >= len(row.Elements) {
		return nil, &MissingElementError{Step: st.Label(), What: fmt.Sprintf("cell %d of row %s", st.Cell, st.Row)}
	}
	cell := row.Elements[st.Cell]
	sel := r.expand(st.Locator)
	timeout := r.timeoutFor(st)
	var found browser.Element
	err := Poll(ctx, timeout, r.interval, func(ctx context.Context) (bool, error) {
		els, err := cell.Query(ctx, sel)
		if err != nil {
			return false, err
		}
		if len(els) > st.Index {
			found = els[st.Index]
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, ErrTimeout) {
		return nil, &NotFoundError{Locator: sel, Index: st.Index, Timeout: timeout}
	}
	return found, err
}

// observe returns the text an assertion checks: the element text when a
// locator is given, otherwise the expanded value.
func (r *Runner) observe(ctx context.Context, st Step) (string, error) {
	if st.Locator == "" {
		return r.expand(st.Value), nil
	}
	els, err := r.page.Query(ctx, r.expand(st.Locator))
	if err != nil {
		return "", err
	}
	if len(els) <= st.Index {
		return "", errNoMatch
	}
	txt, err := els[st.Index].Text(ctx)
	return strings.TrimSpace(txt), err
}

var errNoMatch = errors.New("no match")

func (r *Runner) assertText(ctx context.Context, st Step) error {
	want := r.expand(st.Expect)
	check := func(got string) bool {
		switch st.Action {
		case ActionAssertContains:
			return strings.Contains(got, want)
		case ActionAssertNotContains:
			return !strings.Contains(got, want)
		default:
			return got == want
		}
	}
	timeout := r.timeoutFor(st)
	var last string
	seen := false
	err := Poll(ctx, timeout, r.interval, func(ctx context.Context) (bool, error) {
		got, err := r.observe(ctx, st)
		if errors.Is(err, errNoMatch) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		seen = true
		last = got
		return check(got), nil
	})
	if errors.Is(err, ErrTimeout) {
		if !seen {
			return &NotFoundError{Locator: r.expand(st.Locator), Index: st.Index, Timeout: timeout}
		}
		expected := want
		if st.Action == ActionAssertContains {
			expected = "text containing " + want
		} else if st.Action == ActionAssertNotContains {
			expected = "text without " + want
		}
		return &AssertionError{Step: st.Label(), Expected: expected, Actual: last}
	}
	return err
}

func (r *Runner) assertRowCount(ctx context.Context, st Step) error {
	var want int
	if st.Base != "" {
		base, ok := r.snapshots[st.Base]
		if !ok {
			return &MissingElementError{Step: st.Label(), What: "snapshot " + st.Base}
		}
		want = len(base) + st.Delta
	} else {
		n, err := strconv.Atoi(r.expand(st.Expect))
		if err != nil {
			return fmt.Errorf("%s: expect must be a number: %w", st.Label(), err)
		}
		want = n
	}
	sel := r.expand(st.Table)
	var last int
	err := Poll(ctx, r.timeoutFor(st), r.interval, func(ctx context.Context) (bool, error) {
		els, err := r.page.Query(ctx, sel)
		if err != nil {
			return false, err
		}
		last = len(els)
		return last == want, nil
	})
	if errors.Is(err, ErrTimeout) {
		return &AssertionError{Step: st.Label(), Expected: strconv.Itoa(want) + " rows", Actual: strconv.Itoa(last) + " rows"}
	}
	return err
}

func (r *Runner) assertName(ctx context.Context, st Step) error {
	name := r.expand(st.Value)
	sel := r.expand(st.Table)
	col := column(st)
	wantPresent := st.Action == ActionAssertNamePresent
	var names []string
	err := Poll(ctx, r.timeoutFor(st), r.interval, func(ctx context.Context) (bool, error) {
		rows, err := table.Capture(ctx, r.page, sel)
		if err != nil {
			return false, err
		}
		snaps := table.Snapshots(rows)
		names = table.Names(snaps, col)
		return table.Contains(snaps, col, name) == wantPresent, nil
	})
	if errors.Is(err, ErrTimeout) {
		expected := "listing containing " + name
		if !wantPresent {
			expected = "listing without " + name
		}
		return &AssertionError{Step: st.Label(), Expected: expected, Actual: strings.Join(names, ", ")}
	}
	return err
}
