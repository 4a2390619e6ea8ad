// Package timing turns the test durations of a run into a pprof profile, so
// slow suites and groups can be inspected with `go tool pprof`.
package timing

import (
	"fmt"
	"os"
	"time"

	"github.com/google/pprof/profile"
	"github.com/perfgo/testcheck/tree"
)

// Builder builds a profile where every completed test is one sample whose
// stack is suite, groups and test, innermost last.
type Builder struct {
	profile   *profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
}

func New() *Builder {
	return &Builder{
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
	}
}

// Build returns the timing profile of run. Hidden tests and tests that never
// finished are left out.
func (b *Builder) Build(run *tree.Run, startedAt time.Time) (*profile.Profile, error) {
	clear(b.functions)
	clear(b.locations)
	b.profile = &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "duration", Unit: "milliseconds"},
			{Type: "tests", Unit: "count"},
		},
		DefaultSampleType: "duration",
		PeriodType:        &profile.ValueType{Type: "duration", Unit: "milliseconds"},
		Period:            1,
		TimeNanos:         startedAt.UnixNano(),
		DurationNanos:     run.Duration.Nanoseconds(),
	}

	for _, s := range run.Registry.Suites() {
		suiteName := fmt.Sprintf("Suite %d", s.ID)
		var filename string
		if s.Path != nil {
			suiteName = *s.Path
			filename = *s.Path
		}
		suiteLoc := b.getOrCreateLocation(fmt.Sprintf("suite:%d", s.ID), suiteName, filename, 0)

		for _, t := range run.Registry.SuiteTests(s) {
			d, ok := t.Duration()
			if t.Hidden || !ok {
				continue
			}
			groups, err := run.Registry.Ancestors(t.Parent)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve groups of test %d: %w", t.ID, err)
			}

			// pprof stacks are leaf first
			stack := make([]*profile.Location, 0, len(groups)+2)
			var line int64
			if t.Line != nil {
				line = int64(*t.Line)
			}
			stack = append(stack, b.getOrCreateLocation(fmt.Sprintf("test:%d", t.ID), t.Name, filename, line))
			for i := len(groups) - 1; i >= 0; i-- {
				g := groups[i]
				if g.Name == "" {
					continue
				}
				var groupLine int64
				if g.Line != nil {
					groupLine = int64(*g.Line)
				}
				stack = append(stack, b.getOrCreateLocation(fmt.Sprintf("group:%d", g.ID), g.Name, filename, groupLine))
			}
			stack = append(stack, suiteLoc)

			result := "pending"
			if t.Result != nil {
				result = string(*t.Result)
			}
			b.profile.Sample = append(b.profile.Sample, &profile.Sample{
				Location: stack,
				Value:    []int64{d.Milliseconds(), 1},
				Label:    map[string][]string{"result": {result}},
			})
		}
	}

	if err := b.profile.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid timing profile: %w", err)
	}
	return b.profile, nil
}

// getOrCreateLocation returns the location for key, creating it and its
// function on first use.
func (b *Builder) getOrCreateLocation(key, name, filename string, line int64) *profile.Location {
	if loc, exists := b.locations[key]; exists {
		return loc
	}
	fn := b.getOrCreateFunction(key, name, filename, line)
	loc := &profile.Location{
		ID:   uint64(len(b.profile.Location) + 1),
		Line: []profile.Line{{Function: fn, Line: line}},
	}
	b.locations[key] = loc
	b.profile.Location = append(b.profile.Location, loc)
	return loc
}

func (b *Builder) getOrCreateFunction(key, name, filename string, line int64) *profile.Function {
	if fn, exists := b.functions[key]; exists {
		return fn
	}
	fn := &profile.Function{
		ID:         uint64(len(b.profile.Function) + 1),
		Name:       name,
		SystemName: key,
		Filename:   filename,
		StartLine:  line,
	}
	b.functions[key] = fn
	b.profile.Function = append(b.profile.Function, fn)
	return fn
}

// WriteFile writes p to path, the usual name being timing.pb.gz.
func WriteFile(path string, p *profile.Profile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create profile file: %w", err)
	}
	if err := p.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return f.Close()
}
