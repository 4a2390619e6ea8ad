package tree

import (
	"time"

	"github.com/perfgo/testcheck/event"
)

// Conclusion is the overall outcome announced by the done event.
type Conclusion uint8

const (
	// ConclusionUnknown means the runner terminated before reporting an
	// outcome.
	ConclusionUnknown Conclusion = iota
	ConclusionSuccess
	ConclusionFailure
)

// ConclusionFromSuccess maps the success field of a done event.
func ConclusionFromSuccess(success *bool) Conclusion {
	switch {
	case success == nil:
		return ConclusionUnknown
	case *success:
		return ConclusionSuccess
	default:
		return ConclusionFailure
	}
}

func (c Conclusion) String() string {
	switch c {
	case ConclusionSuccess:
		return "success"
	case ConclusionFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Message is the one line summary shown for the conclusion.
func (c Conclusion) Message() string {
	switch c {
	case ConclusionSuccess:
		return "All tests succeeded"
	case ConclusionFailure:
		return "Some tests failed"
	default:
		return "Test runner terminated early"
	}
}

// Stats counts tests by outcome. Hidden tests are only counted in Hidden.
type Stats struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Pending int `json:"pending"`
	Hidden  int `json:"hidden"`
}

// Run is the result of feeding a stream of events to a Builder.
type Run struct {
	Registry   *Registry
	Conclusion Conclusion
	Summary    string
	// ExpectedSuites is the sum of all allSuites counts.
	ExpectedSuites int
	// Completed is true if a done event was seen.
	Completed bool
	// Duration is the time of the last event seen.
	Duration        time.Duration
	ProtocolVersion string
	RunnerVersion   string
	Stats           Stats
}

// Fail marks the run as failed by fault. The summary becomes the fault so a
// report of the partial tree never reads as a successful run.
func (r *Run) Fail(fault error) {
	r.Conclusion = ConclusionFailure
	r.Summary = fault.Error()
}

func computeStats(r *Registry) Stats {
	var s Stats
	for _, t := range r.Tests() {
		if t.Hidden {
			s.Hidden++
			continue
		}
		s.Total++
		switch {
		case t.Result == nil:
			s.Pending++
		case t.Skipped:
			s.Skipped++
		case *t.Result == event.ResultSuccess:
			s.Passed++
		case *t.Result == event.ResultFailure:
			s.Failed++
		default:
			s.Errored++
		}
	}
	return s
}
