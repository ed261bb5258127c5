package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

func sampleResult() *scenario.SuiteResult {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	failErr := errors.New(`expected "Applications" | got <script>alert(1)</script>`)
	return &scenario.SuiteResult{
		ID:       "0f8c2a8e-1111-2222-3333-444455556666",
		Suite:    "application",
		Driver:   "html",
		Started:  started,
		Duration: 3 * time.Second,
		Scenarios: []*scenario.ScenarioResult{
			{
				Name: "app:create - valid", Status: scenario.StatusPassed, Started: started, Duration: time.Second,
				Steps: []scenario.StepResult{{Name: "open", Action: scenario.ActionNavigate, Status: scenario.StatusPassed}},
			},
			{
				Name: "app:edit - valid", Status: scenario.StatusFailed, Started: started, Duration: 2 * time.Second,
				Err: failErr, Error: failErr.Error(), Screenshot: "shots/edit.png",
				Steps: []scenario.StepResult{
					{Name: "find row", Action: scenario.ActionFindRow, Status: scenario.StatusPassed},
					{Name: "title", Action: scenario.ActionAssertText, Status: scenario.StatusFailed, Kind: "assertion_failed", Error: failErr.Error()},
				},
			},
			{Name: "app:delete - valid", Status: scenario.StatusSkipped},
		},
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "application: 1 passed, 1 failed, 1 skipped in 3s", Summary(sampleResult()))

	res := sampleResult()
	res.Setup = &scenario.ScenarioResult{Name: "setup", Status: scenario.StatusFailed}
	assert.True(t, strings.HasSuffix(Summary(res), "(setup failed)"))
}

func TestMarkdown(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	md := Markdown(sampleResult())
	assert.Contains(t, md, "# application")
	assert.Contains(t, md, "- Driver: html")
	assert.Contains(t, md, "2 hours ago")
	assert.Contains(t, md, "| app:create - valid | PASS | 1s |  |")
	assert.Contains(t, md, `\| got`)
	assert.Contains(t, md, "## app:edit - valid")
	assert.Contains(t, md, "2. FAIL `assert-text` title")
	assert.Contains(t, md, "Screenshot: `shots/edit.png`")
	assert.NotContains(t, md, "## app:delete")
}

func TestHTMLIsSanitized(t *testing.T) {
	out, err := HTML(sampleResult())
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>application</title>")
	assert.NotContains(t, page, "<script>")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	res := sampleResult()

	paths, err := Write(dir, res, Formats...)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for i, p := range paths {
		assert.Equal(t, "."+Formats[i], filepath.Ext(p))
		assert.Contains(t, filepath.Base(p), "application-20260301T100000-0f8c2a8e")
	}

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var decoded scenario.SuiteResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "application", decoded.Suite)
	require.Len(t, decoded.Scenarios, 3)
	assert.Equal(t, scenario.StatusFailed, decoded.Scenarios[1].Status)

	f, err := excelize.OpenFile(paths[3])
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(scenarioSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Scenario", rows[0][1])
	assert.Equal(t, "failed", rows[2][2])
	steps, err := f.GetRows(stepSheet)
	require.NoError(t, err)
	assert.Len(t, steps, 4)
}

func TestWriteUnknownFormat(t *testing.T) {
	_, err := Write(t.TempDir(), sampleResult(), "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown report format "pdf"`)
}

func TestWriteDefaultsToJSON(t *testing.T) {
	paths, err := Write(t.TempDir(), sampleResult())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".json", filepath.Ext(paths[0]))
}
