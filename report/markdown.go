// Package report renders the suite/group/test tree of a run.
package report

import (
	"fmt"
	"strings"

	"github.com/perfgo/testcheck/event"
	"github.com/perfgo/testcheck/tree"
)

const (
	suiteHeadingLevel = 2
	groupHeadingLevel = 3
	maxHeadingLevel   = 6
)

// Options configures the markdown renderer.
type Options struct {
	// BaseURL is prepended to suite paths to build source links, usually
	// the result of SourceURL. Links are omitted when empty.
	BaseURL string
}

// SourceURL returns the URL of the source tree of repository at sha.
func SourceURL(serverURL, repository, sha string) string {
	return fmt.Sprintf("%s/%s/tree/%s", strings.TrimSuffix(serverURL, "/"), repository, sha)
}

// Marker returns the emoji shown for a test result. A nil result means the
// test never finished.
func Marker(result *event.Result) string {
	if result == nil {
		return "❓"
	}
	switch *result {
	case event.ResultSuccess:
		return "✔️"
	case event.ResultError:
		return "🚩"
	case event.ResultFailure:
		return "❌"
	default:
		return "❓"
	}
}

// Markdown renders run as a markdown document suitable for a check run or a
// job summary.
func Markdown(run *tree.Run, opts Options) string {
	m := &markdown{baseURL: opts.BaseURL}
	m.heading(1, "Test Results")
	m.line(run.Summary)
	m.line("")

	for _, s := range run.Registry.Suites() {
		title := fmt.Sprintf("Suite %d", s.ID)
		if s.Path != nil && *s.Path != "" {
			title = *s.Path
		}
		m.heading(suiteHeadingLevel, title)
		if s.HasTests() {
			m.table(s, s.Tests())
		}
		for _, g := range s.Groups() {
			m.group(s, g, groupHeadingLevel)
		}
	}

	m.line(fmt.Sprintf("Ran %d/%d Suites", run.Registry.SuiteCount(), run.ExpectedSuites))
	return m.b.String()
}

type markdown struct {
	b       strings.Builder
	baseURL string
}

func (m *markdown) line(s string) {
	m.b.WriteString(s)
	m.b.WriteByte('\n')
}

func (m *markdown) heading(level int, title string) {
	level = min(level, maxHeadingLevel)
	m.line(strings.Repeat("#", level) + " " + title)
	m.line("")
}

// group renders the direct tests of g and then its child groups, each child
// headed by its name at the given level.
func (m *markdown) group(s *tree.Suite, g *tree.Group, level int) {
	if g.HasTests() {
		m.table(s, g.Tests())
	}
	for _, child := range g.Groups() {
		m.heading(level, child.Name)
		m.group(s, child, level+1)
	}
}

func (m *markdown) table(s *tree.Suite, tests []*tree.Test) {
	m.line("| Result | Name |")
	m.line("| --- | --- |")
	for _, t := range tests {
		if t.Hidden {
			continue
		}
		m.line(fmt.Sprintf("%s | %s", Marker(t.Result), m.link(s, t)))
	}
	m.line("")
}

func (m *markdown) link(s *tree.Suite, t *tree.Test) string {
	name := escape(t.Name)
	if m.baseURL == "" || s.Path == nil {
		return name
	}
	url := m.baseURL + *s.Path
	if t.Line != nil {
		url += fmt.Sprintf("#L%d", *t.Line)
	}
	return fmt.Sprintf("[%s](%s)", name, url)
}

var escaper = strings.NewReplacer(
	`|`, `\|`,
	`[`, `\[`,
	`]`, `\]`,
	"\n", " ",
)

func escape(s string) string {
	return escaper.Replace(s)
}
