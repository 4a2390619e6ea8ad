// Package event contains the typed events of the JSON test reporter protocol
// emitted by `flutter test -r json` and `dart test -r json`.
package event

import "time"

// Type is the value of the "type" field carried by every event.
type Type string

const (
	TypeStart     Type = "start"
	TypeAllSuites Type = "allSuites"
	TypeSuite     Type = "suite"
	TypeDebug     Type = "debug"
	TypeGroup     Type = "group"
	TypeTestStart Type = "testStart"
	TypePrint     Type = "print"
	TypeError     Type = "error"
	TypeTestDone  Type = "testDone"
	TypeDone      Type = "done"
)

// Result is the terminal result of a single test.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Event is implemented by every decoded event, including Unknown.
type Event interface {
	EventType() Type
	// Elapsed is the time since the test runner started.
	Elapsed() time.Duration
}

// Base holds the fields shared by all events.
type Base struct {
	Kind Type `json:"type"`
	// Time in milliseconds since the test runner started.
	Time int64 `json:"time"`
}

func (b Base) EventType() Type { return b.Kind }

func (b Base) Elapsed() time.Duration { return time.Duration(b.Time) * time.Millisecond }

// Metadata is deprecated in the protocol but still emitted for groups.
type Metadata struct {
	Skip bool `json:"skip"`
	// SkipReason is nil when the group was not skipped.
	SkipReason *string `json:"skipReason,omitempty"`
}

// Suite describes a single test file.
type Suite struct {
	ID       int    `json:"id"`
	Platform string `json:"platform"`
	// Path is nil when the runner does not know the file of the suite.
	Path *string `json:"path,omitempty"`
}

// Group describes a group() block, or the implicit root group of a suite
// when Name is empty.
type Group struct {
	ID      int `json:"id"`
	SuiteID int `json:"suiteID"`
	// ParentID is nil for groups directly below the suite.
	ParentID  *int     `json:"parentID,omitempty"`
	Name      string   `json:"name"`
	TestCount int      `json:"testCount"`
	Line      *int     `json:"line,omitempty"`
	Column    *int     `json:"column,omitempty"`
	URL       *string  `json:"url,omitempty"`
	Metadata  Metadata `json:"metadata"`
}

// Test describes a single test. Name includes the names of all
// containing groups.
type Test struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	SuiteID int    `json:"suiteID"`
	// GroupIDs lists containing groups from outermost to innermost.
	GroupIDs []int   `json:"groupIDs"`
	Line     *int    `json:"line,omitempty"`
	Column   *int    `json:"column,omitempty"`
	URL      *string `json:"url,omitempty"`
	// The root fields are only present when the test was declared in a
	// different file than the one reported in URL.
	RootLine   *int    `json:"root_line,omitempty"`
	RootColumn *int    `json:"root_column,omitempty"`
	RootURL    *string `json:"root_url,omitempty"`
}

type StartEvent struct {
	Base
	ProtocolVersion string `json:"protocolVersion"`
	// RunnerVersion is nil if the runner could not load its own version.
	RunnerVersion *string `json:"runnerVersion,omitempty"`
	PID           int     `json:"pid"`
}

type AllSuitesEvent struct {
	Base
	Count int `json:"count"`
}

type SuiteEvent struct {
	Base
	Suite Suite `json:"suite"`
}

type DebugEvent struct {
	Base
	SuiteID        int     `json:"suiteID"`
	Observatory    *string `json:"observatory,omitempty"`
	RemoteDebugger *string `json:"remoteDebugger,omitempty"`
}

type GroupEvent struct {
	Base
	Group Group `json:"group"`
}

type TestStartEvent struct {
	Base
	Test Test `json:"test"`
}

// PrintEvent is emitted for print() calls and skip messages.
type PrintEvent struct {
	Base
	TestID      int    `json:"testID"`
	MessageType string `json:"messageType"`
	Message     string `json:"message"`
}

type ErrorEvent struct {
	Base
	TestID     int    `json:"testID"`
	Error      string `json:"error"`
	StackTrace string `json:"stackTrace"`
	IsFailure  bool   `json:"isFailure"`
}

type TestDoneEvent struct {
	Base
	TestID  int    `json:"testID"`
	Result  Result `json:"result"`
	Hidden  bool   `json:"hidden"`
	Skipped bool   `json:"skipped"`
}

type DoneEvent struct {
	Base
	// Success is nil when the runner was closed before all tests finished.
	Success *bool `json:"success,omitempty"`
}

// Unknown is any event whose type this package does not know about.
type Unknown struct {
	Base
}
