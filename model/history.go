package model

import (
	"time"

	"github.com/perfgo/testcheck/tree"
)

// History represents a single testcheck run of the test runner.
type History struct {
	// Unique ID for this run (UUID)
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments of testcheck (including command name)
	Args []string `json:"args"`
	// Runner command, shell quoted
	Command string `json:"command"`
	// Project directory the runner was started in (relative to repo root)
	Project string `json:"project"`
	// Working directory where testcheck was run (relative to repo root)
	WorkDir string `json:"workdir"`
	// Exit code of the runner, -1 if it could not be started
	ExitCode int `json:"exit_code"`
	// Wall clock duration of the run
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Target execution environment
	Target *Target `json:"target,omitempty"`
	// Outcome of the run as seen in the event stream
	Result *Result `json:"result,omitempty"`
	// Check run the results were published to
	CheckRun *CheckRun `json:"check_run,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
	// Repository in owner/repo form, if known
	Repo string `json:"repo,omitempty"`
}

// Target contains information about the execution environment
type Target struct {
	OS   string `json:"os,omitempty"`
	Arch string `json:"arch,omitempty"`
	// Runner executable (flutter or dart)
	Runner string `json:"runner,omitempty"`
	// Version reported by the runner in its start event
	RunnerVersion string `json:"runner_version,omitempty"`
	// Reporter protocol version
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

// Result summarizes the finalized event stream.
type Result struct {
	Conclusion     string     `json:"conclusion"`
	Summary        string     `json:"summary"`
	SuitesExpected int        `json:"suites_expected"`
	SuitesRan      int        `json:"suites_ran"`
	Stats          tree.Stats `json:"stats"`
	// Fault is the error that stopped processing of the stream, if any
	Fault string `json:"fault,omitempty"`
}

// NewResult summarizes run. A non-nil fault overrides the conclusion.
func NewResult(run *tree.Run, fault error) *Result {
	r := &Result{
		Conclusion:     run.Conclusion.String(),
		Summary:        run.Summary,
		SuitesExpected: run.ExpectedSuites,
		SuitesRan:      run.Registry.SuiteCount(),
		Stats:          run.Stats,
	}
	if fault != nil {
		r.Conclusion = tree.ConclusionFailure.String()
		r.Fault = fault.Error()
		r.Summary = fault.Error()
	}
	return r
}

type CheckRun struct {
	ID  int64  `json:"id"`
	URL string `json:"url,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeEvents ArtifactType = iota
	ArtifactTypeReport
	ArtifactTypeTimingProfile
	ArtifactTypeMetrics
	ArtifactTypeStderr
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeEvents:
		return "events"
	case ArtifactTypeReport:
		return "report"
	case ArtifactTypeTimingProfile:
		return "profile"
	case ArtifactTypeMetrics:
		return "metrics"
	case ArtifactTypeStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Artifact represents a file generated during execution
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}

// Artifact returns the first artifact of type t, or nil.
func (h *History) Artifact(t ArtifactType) *Artifact {
	for i := range h.Artifacts {
		if h.Artifacts[i].Type == t {
			return &h.Artifacts[i]
		}
	}
	return nil
}
