// Package report renders suite results as JSON, Markdown, HTML and XLSX
// files.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xeonx/timeago"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

// Supported formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatXLSX     = "xlsx"
)

// Formats lists every supported format.
var Formats = []string{FormatJSON, FormatMarkdown, FormatHTML, FormatXLSX}

// now is replaced in tests.
var now = time.Now

// Write renders res in each format into dir and returns the written paths.
func Write(dir string, res *scenario.SuiteResult, formats ...string) ([]string, error) {
	if len(formats) == 0 {
		formats = []string{FormatJSON}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	base := filepath.Join(dir, baseName(res))
	var written []string
	for _, format := range formats {
		path := base + "." + format
		var err error
		switch format {
		case FormatJSON:
			err = writeJSON(path, res)
		case FormatMarkdown:
			err = os.WriteFile(path, []byte(Markdown(res)), 0o644)
		case FormatHTML:
			var out []byte
			if out, err = HTML(res); err == nil {
				err = os.WriteFile(path, out, 0o644)
			}
		case FormatXLSX:
			err = writeXLSX(path, res)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, fmt.Errorf("%s report: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func baseName(res *scenario.SuiteResult) string {
	id := res.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := res.Suite
	if name == "" {
		name = "suite"
	}
	return fmt.Sprintf("%s-%s-%s", name, res.Started.UTC().Format("20060102T150405"), id)
}

func writeJSON(path string, res *scenario.SuiteResult) error {
	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

// Summary is a one line outcome of the run.
func Summary(res *scenario.SuiteResult) string {
	passed, failed, skipped := res.Counts()
	s := fmt.Sprintf("%s: %d passed, %d failed, %d skipped in %s",
		res.Suite, passed, failed, skipped, res.Duration.Round(time.Millisecond))
	if res.Setup != nil && res.Setup.Status == scenario.StatusFailed {
		s += " (setup failed)"
	}
	return s
}

// Markdown renders res as a Markdown document.
func Markdown(res *scenario.SuiteResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", res.Suite)
	fmt.Fprintf(&b, "- Run: `%s`\n", res.ID)
	if res.Driver != "" {
		fmt.Fprintf(&b, "- Driver: %s\n", res.Driver)
	}
	fmt.Fprintf(&b, "- Started: %s (%s)\n", res.Started.UTC().Format(time.RFC3339),
		timeago.English.FormatReference(res.Started, now()))
	fmt.Fprintf(&b, "- Result: %s\n\n", Summary(res))

	b.WriteString("| Scenario | Status | Duration | Error |\n")
	b.WriteString("|---|---|---|---|\n")
	rows := res.Scenarios
	if res.Setup != nil && res.Setup.Status == scenario.StatusFailed {
		rows = append([]*scenario.ScenarioResult{res.Setup}, rows...)
	}
	for _, sc := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			cell(sc.Name), statusIcon(sc.Status), sc.Duration.Round(time.Millisecond), cell(sc.Error))
	}

	for _, sc := range rows {
		if sc.Status != scenario.StatusFailed {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", sc.Name)
		for i, st := range sc.Steps {
			fmt.Fprintf(&b, "%d. %s `%s` %s", i+1, statusIcon(st.Status), st.Action, st.Name)
			if st.Error != "" {
				fmt.Fprintf(&b, ": %s", st.Error)
			}
			b.WriteString("\n")
		}
		if sc.Screenshot != "" {
			fmt.Fprintf(&b, "\nScreenshot: `%s`\n", sc.Screenshot)
		}
	}
	return b.String()
}

func statusIcon(s scenario.Status) string {
	switch s {
	case scenario.StatusPassed:
		return "PASS"
	case scenario.StatusFailed:
		return "FAIL"
	default:
		return "SKIP"
	}
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// HTML renders the Markdown report as a sanitized standalone page.
func HTML(res *scenario.SuiteResult) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(res)), &body); err != nil {
		return nil, err
	}
	safe := bluemonday.UGCPolicy().SanitizeBytes(body.Bytes())

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(res.Suite))
	out.WriteString("<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(safe)
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
