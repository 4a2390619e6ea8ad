package runner

// runner.go contains utilities for invoking `flutter test` or `dart test`
// with the JSON reporter.

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v2"
)

// DefaultRunner is the executable used unless --runner is given.
const DefaultRunner = "flutter"

// Options contains options for a test runner invocation.
type Options struct {
	Runner string   // Executable, flutter or dart
	Dir    string   // Project directory the runner is started in
	Args   []string // Extra arguments passed after the reporter flags
}

// BuildArgs builds the runner arguments, excluding the executable.
func BuildArgs(opts Options) []string {
	args := []string{"test", "-r", "json"}
	return append(args, opts.Args...)
}

// BuildCommand builds the runner command as a shell-quoted string, for logs
// and history.
func BuildCommand(opts Options) string {
	args := BuildArgs(opts)

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellescape.Quote(runnerOrDefault(opts.Runner)))
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Command creates the exec.Cmd for opts. Cancelling ctx interrupts the
// runner first so it can clean up its own child processes.
func Command(ctx context.Context, opts Options) *exec.Cmd {
	cmd := exec.CommandContext(ctx, runnerOrDefault(opts.Runner), BuildArgs(opts)...)
	cmd.Dir = opts.Dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 10 * time.Second
	return cmd
}

func runnerOrDefault(r string) string {
	if r == "" {
		return DefaultRunner
	}
	return r
}

// RunnerFlag returns the flag selecting the test runner executable.
func RunnerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "runner",
		Usage:   "Test runner executable (flutter or dart)",
		Value:   DefaultRunner,
		EnvVars: []string{"INPUT_RUNNER"},
	}
}

// ProjectFlag returns the flag selecting the project directory.
func ProjectFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"C"},
		Usage:   "Project directory to run the tests in",
		Value:   ".",
		EnvVars: []string{"INPUT_PROJECT"},
	}
}
