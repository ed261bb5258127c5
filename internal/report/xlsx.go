package report

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

const (
	scenarioSheet = "Scenarios"
	stepSheet     = "Steps"
)

func writeXLSX(path string, res *scenario.SuiteResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scenarioSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(stepSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	scenarioRows := [][]interface{}{{"Suite", "Scenario", "Status", "Started", "Duration (s)", "Error", "Screenshot"}}
	stepRows := [][]interface{}{{"Scenario", "#", "Step", "Action", "Status", "Duration (s)", "Kind", "Error"}}

	all := make([]*scenario.ScenarioResult, 0, len(res.Scenarios)+2)
	if res.Setup != nil {
		all = append(all, res.Setup)
	}
	all = append(all, res.Scenarios...)
	if res.Teardown != nil {
		all = append(all, res.Teardown)
	}
	for _, sc := range all {
		scenarioRows = append(scenarioRows, []interface{}{
			res.Suite, sc.Name, string(sc.Status), started(sc), sc.Duration.Seconds(), sc.Error, sc.Screenshot,
		})
		for i, st := range sc.Steps {
			stepRows = append(stepRows, []interface{}{
				sc.Name, i + 1, st.Name, string(st.Action), string(st.Status), st.Duration.Seconds(), st.Kind, st.Error,
			})
		}
	}

	for sheet, rows := range map[string][][]interface{}{scenarioSheet: scenarioRows, stepSheet: stepRows} {
		for i, row := range rows {
			cellName, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
				return err
			}
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(scenarioSheet, "B", "B", 60); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func started(sc *scenario.ScenarioResult) string {
	if sc.Started.IsZero() {
		return ""
	}
	return sc.Started.UTC().Format(time.RFC3339)
}
