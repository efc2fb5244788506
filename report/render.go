package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

func statusColor(s testcase.Status) text.Colors {
	switch s {
	case testcase.StatusPassed:
		return text.Colors{text.FgGreen}
	case testcase.StatusFailed:
		return text.Colors{text.FgRed}
	case testcase.StatusSkipped:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// WriteTable renders the per-test rows and the summary footer.
func WriteTable(w io.Writer, r *Report) {
	t := newTable(w)
	t.SetTitle("Run " + r.RunID)
	t.AppendHeader(table.Row{"#", "Key", "Status", "Duration (s)", "Input tokens", "Output tokens", "Cost ($)"})
	for i, c := range r.Cases {
		t.AppendRow(table.Row{
			i + 1,
			c.Key,
			statusColor(c.Status).Sprint(strings.ToUpper(string(c.Status))),
			fmt.Sprintf("%.2f", c.DurationSeconds),
			c.InputTokens,
			c.OutputTokens,
			fmt.Sprintf("%.4f", c.Cost),
		})
	}
	s := r.Summary
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d tests", s.TotalTests),
		fmt.Sprintf("%d/%d/%d", s.Passed, s.Failed, s.Skipped),
		fmt.Sprintf("%.2f", s.TotalDuration),
		s.InputTokens,
		s.OutputTokens,
		fmt.Sprintf("%.4f", s.Cost),
	})
	t.Render()

	fmt.Fprintf(w, "%s %.1f%% (%d passed, %d failed, %d skipped)\n",
		text.FgHiBlue.Sprint("Pass rate:"), s.PassRate*100, s.Passed, s.Failed, s.Skipped)
}

// WriteRunsTable renders a run history listing.
func WriteRunsTable(w io.Writer, runs []*Report) {
	if len(runs) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No runs recorded"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Started", "Tests", "Passed", "Failed", "Skipped", "Pass rate", "Cost ($)"})
	for _, r := range runs {
		s := r.Summary
		t.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			s.TotalTests,
			s.Passed,
			s.Failed,
			s.Skipped,
			fmt.Sprintf("%.1f%%", s.PassRate*100),
			fmt.Sprintf("%.4f", s.Cost),
		})
	}
	t.Render()
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
