package report

// This file contains the console renderer used when the report is shown in
// a terminal instead of a check run.

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/perfgo/testcheck/tree"
)

// Table writes run as a console table to w.
func Table(w io.Writer, run *tree.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(run.Duration)))
	t.AppendHeader(table.Row{"Suite", "Test", "Duration", "Result"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", AutoMerge: true},
		{Name: "Test", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, s := range run.Registry.Suites() {
		title := fmt.Sprintf("Suite %d", s.ID)
		if s.Path != nil && *s.Path != "" {
			title = *s.Path
		}
		for _, test := range run.Registry.SuiteTests(s) {
			if test.Hidden {
				continue
			}
			groups, err := run.Registry.Ancestors(test.Parent)
			if err != nil {
				continue
			}
			t.AppendRow(table.Row{title, displayPath(groups, test), testDuration(test), resultString(test)})
		}
		t.AppendSeparator()
	}

	switch run.Conclusion {
	case tree.ConclusionSuccess:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case tree.ConclusionFailure:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("Ran %d/%d Suites", run.Registry.SuiteCount(), run.ExpectedSuites),
		fmt.Sprintf("%d passed, %d failed, %d errored, %d skipped, %d pending",
			run.Stats.Passed, run.Stats.Failed, run.Stats.Errored, run.Stats.Skipped, run.Stats.Pending),
		formatDuration(run.Duration),
		run.Conclusion.String(),
	})
	t.Render()
}

// displayPath prefixes the test name with its innermost named group. Group
// names already carry the names of their parents.
func displayPath(groups []*tree.Group, test *tree.Test) string {
	for i := len(groups) - 1; i >= 0; i-- {
		if groups[i].Name != "" {
			return groups[i].Name + " › " + test.Name
		}
	}
	return test.Name
}

func resultString(test *tree.Test) string {
	marker := Marker(test.Result)
	switch {
	case test.Result == nil:
		return marker + " pending"
	case test.Skipped:
		return marker + " skipped"
	default:
		return marker + " " + string(*test.Result)
	}
}

func testDuration(test *tree.Test) string {
	d, ok := test.Duration()
	if !ok {
		return "-"
	}
	return formatDuration(d)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
