package tree

// This file contains the stream processor that turns reporter events into
// the suite/group/test hierarchy held by a Registry.

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/acarl005/stripansi"
	"github.com/perfgo/testcheck/event"
	"github.com/rs/zerolog"
)

// ErrDecode wraps every failure to decode an input line.
var ErrDecode = errors.New("failed to decode event")

// maxLineInError limits how much of an offending line ends up in errors.
const maxLineInError = 200

// Options configures a Builder.
type Options struct {
	// BaseDir is stripped from the front of suite paths so that they become
	// relative to the run directory.
	BaseDir string
	// OnEvent, if set, is called for every successfully decoded event
	// before it is applied.
	OnEvent func(event.Event)
}

// Builder consumes events one at a time and builds the hierarchy of a run.
// It is not safe for concurrent use; events must be fed in arrival order.
type Builder struct {
	logger   zerolog.Logger
	opts     Options
	registry *Registry

	expectedSuites int
	start          *event.StartEvent
	done           bool
	conclusion     Conclusion
	lastEvent      time.Duration
	lines          int
}

func NewBuilder(logger zerolog.Logger, opts Options) *Builder {
	return &Builder{
		logger:   logger,
		opts:     opts,
		registry: NewRegistry(),
	}
}

// Registry returns the registry being built.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// ProcessLine decodes a single line of reporter output and applies it.
func (b *Builder) ProcessLine(line []byte) error {
	b.lines++
	ev, err := event.Decode(line)
	if err != nil {
		return fmt.Errorf("%w: line %d: %w: %q", ErrDecode, b.lines, err, truncate(line, maxLineInError))
	}
	if err := b.Process(ev); err != nil {
		return fmt.Errorf("line %d: %w", b.lines, err)
	}
	return nil
}

// Process applies a decoded event.
func (b *Builder) Process(ev event.Event) error {
	if b.opts.OnEvent != nil {
		b.opts.OnEvent(ev)
	}
	if ev.Elapsed() > b.lastEvent {
		b.lastEvent = ev.Elapsed()
	}

	switch e := ev.(type) {
	case *event.StartEvent:
		b.start = e
		b.logger.Debug().
			Str("protocol", e.ProtocolVersion).
			Int("pid", e.PID).
			Msg("Test runner started")
	case *event.AllSuitesEvent:
		b.expectedSuites += e.Count
		b.logger.Debug().Int("count", e.Count).Int("expected", b.expectedSuites).Msg("Suites announced")
	case *event.SuiteEvent:
		return b.onSuite(e)
	case *event.GroupEvent:
		return b.onGroup(e)
	case *event.TestStartEvent:
		return b.onTestStart(e)
	case *event.TestDoneEvent:
		return b.onTestDone(e)
	case *event.DoneEvent:
		b.onDone(e)
	case *event.PrintEvent:
		b.logger.Info().Int("test", e.TestID).Str("type", e.MessageType).Msg(stripansi.Strip(e.Message))
	case *event.ErrorEvent:
		b.logger.Warn().
			Int("test", e.TestID).
			Bool("failure", e.IsFailure).
			Str("stack", stripansi.Strip(e.StackTrace)).
			Msg(stripansi.Strip(e.Error))
	case *event.DebugEvent:
		b.logger.Debug().Int("suite", e.SuiteID).Msg("Debug information")
	default:
		b.logger.Debug().Str("type", string(ev.EventType())).Msg("Ignoring unknown event")
	}
	return nil
}

func (b *Builder) onSuite(e *event.SuiteEvent) error {
	s := &Suite{
		GroupContainer: newGroupContainer(),
		ID:             e.Suite.ID,
		Platform:       e.Suite.Platform,
	}
	if e.Suite.Path != nil {
		p := relativePath(*e.Suite.Path, b.opts.BaseDir)
		s.Path = &p
	}
	if err := b.registry.addSuite(s); err != nil {
		return fmt.Errorf("suite event: %w", err)
	}
	b.logger.Debug().Int("suite", s.ID).Str("platform", s.Platform).Msg("Suite registered")
	return nil
}

func (b *Builder) onGroup(e *event.GroupEvent) error {
	g := &Group{
		GroupContainer: newGroupContainer(),
		ID:             e.Group.ID,
		SuiteID:        e.Group.SuiteID,
		Parent:         ParentRef{Kind: ParentSuite, ID: e.Group.SuiteID},
		Name:           e.Group.Name,
		TestCount:      e.Group.TestCount,
		Line:           e.Group.Line,
		Column:         e.Group.Column,
	}
	if e.Group.ParentID != nil {
		g.Parent = ParentRef{Kind: ParentGroup, ID: *e.Group.ParentID}
	}
	if err := b.registry.addGroup(g); err != nil {
		return fmt.Errorf("group event for group %d: %w", g.ID, err)
	}
	b.logger.Debug().Int("group", g.ID).Stringer("parent", g.Parent).Str("name", g.Name).Msg("Group registered")
	return nil
}

func (b *Builder) onTestStart(e *event.TestStartEvent) error {
	suite, err := b.registry.Suite(e.Test.SuiteID)
	if err != nil {
		return fmt.Errorf("testStart event for test %d: %w", e.Test.ID, err)
	}

	t := &Test{
		ID:        e.Test.ID,
		SuiteID:   suite.ID,
		Parent:    ParentRef{Kind: ParentSuite, ID: suite.ID},
		FullName:  e.Test.Name,
		Line:      e.Test.Line,
		Column:    e.Test.Column,
		StartedAt: e.Elapsed(),
	}
	if e.Test.RootLine != nil {
		t.Line = e.Test.RootLine
	}
	if e.Test.RootColumn != nil {
		t.Column = e.Test.RootColumn
	}

	container := &suite.GroupContainer
	name := e.Test.Name
	for _, id := range e.Test.GroupIDs {
		g, ok := container.Group(id)
		if !ok {
			return fmt.Errorf("testStart event for test %d: %w: %d is not below %s", t.ID, ErrUnknownGroup, id, t.Parent)
		}
		name = trimGroupPrefix(name, g.Name)
		container = &g.GroupContainer
		t.Parent = ParentRef{Kind: ParentGroup, ID: g.ID}
	}
	t.Name = name

	if err := b.registry.addTest(t, container); err != nil {
		return fmt.Errorf("testStart event: %w", err)
	}
	b.logger.Debug().Int("test", t.ID).Stringer("parent", t.Parent).Str("name", t.Name).Msg("Test started")
	return nil
}

func (b *Builder) onTestDone(e *event.TestDoneEvent) error {
	t, err := b.registry.Test(e.TestID)
	if err != nil {
		return fmt.Errorf("testDone event: %w", err)
	}
	result := e.Result
	doneAt := e.Elapsed()
	t.Hidden = e.Hidden
	t.Skipped = e.Skipped
	t.Result = &result
	t.DoneAt = &doneAt
	b.logger.Debug().Int("test", t.ID).Str("result", string(result)).Bool("hidden", t.Hidden).Msg("Test done")
	return nil
}

func (b *Builder) onDone(e *event.DoneEvent) {
	b.done = true
	b.conclusion = ConclusionFromSuccess(e.Success)
	b.logger.Debug().Stringer("conclusion", b.conclusion).Msg("Test runner done")
}

// Finalize returns the outcome of the run. It can be called on a partially
// built tree, in which case the conclusion is ConclusionUnknown.
func (b *Builder) Finalize() *Run {
	run := &Run{
		Registry:       b.registry,
		Conclusion:     b.conclusion,
		Summary:        b.conclusion.Message(),
		ExpectedSuites: b.expectedSuites,
		Completed:      b.done,
		Duration:       b.lastEvent,
		Stats:          computeStats(b.registry),
	}
	if b.start != nil {
		run.ProtocolVersion = b.start.ProtocolVersion
		if b.start.RunnerVersion != nil {
			run.RunnerVersion = *b.start.RunnerVersion
		}
	}
	return run
}

// trimGroupPrefix removes groupName and any following whitespace from the
// front of name. The match is a plain string prefix, not a word match.
func trimGroupPrefix(name, groupName string) string {
	if groupName == "" || !strings.HasPrefix(name, groupName) {
		return name
	}
	return strings.TrimLeftFunc(name[len(groupName):], unicode.IsSpace)
}

// ShortenName strips the given group names, outermost first, from the front
// of a test name.
func ShortenName(name string, groupNames []string) string {
	for _, g := range groupNames {
		name = trimGroupPrefix(name, g)
	}
	return name
}

// relativePath strips baseDir from path at a path boundary. The separator
// after baseDir is kept. A root baseDir strips nothing.
func relativePath(path, baseDir string) string {
	baseDir = strings.TrimRight(baseDir, "/"+string(filepath.Separator))
	if baseDir == "" || !strings.HasPrefix(path, baseDir) {
		return path
	}
	rest := path[len(baseDir):]
	if rest != "" && rest[0] != '/' && rest[0] != filepath.Separator {
		return path
	}
	return rest
}

func truncate(line []byte, n int) string {
	if len(line) <= n {
		return string(line)
	}
	return string(line[:n]) + "..."
}
