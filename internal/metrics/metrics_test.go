package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

func feed(c *Collector) {
	c.StepFinished("application", "create", scenario.StepResult{
		Action: scenario.ActionClick, Status: scenario.StatusPassed, Duration: 20 * time.Millisecond,
	})
	c.StepFinished("application", "create", scenario.StepResult{
		Action: scenario.ActionAssertText, Status: scenario.StatusFailed, Kind: "assertion_failed", Duration: time.Second,
	})
	c.ScenarioFinished("application", &scenario.ScenarioResult{
		Name: "create", Status: scenario.StatusFailed, Started: time.Unix(1000, 0), Duration: 2 * time.Second,
	})
	c.ScenarioFinished("application", &scenario.ScenarioResult{Name: "edit", Status: scenario.StatusSkipped})
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	feed(c)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.steps.WithLabelValues("application", "click", "passed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.steps.WithLabelValues("application", "assert-text", "failed", "assertion_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scenarios.WithLabelValues("application", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scenarios.WithLabelValues("application", "skipped")))
	assert.Equal(t, 1002.0, testutil.ToFloat64(c.lastRun.WithLabelValues("application", "create")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.lastOK.WithLabelValues("application", "create")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.lastOK))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	feed(c)
	path := filepath.Join(t.TempDir(), "scenarios.prom")
	require.NoError(t, c.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `scenarios_total{status="failed",suite="application"} 1`)
	assert.Contains(t, string(raw), "scenario_step_duration_seconds_bucket")
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	feed(c)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "scenario_last_run_success"))
}
