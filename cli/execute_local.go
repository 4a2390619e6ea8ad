package cli

// This file contains local test execution functionality for running the
// test runner and feeding its JSON output into the tree builder.

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/perfgo/testcheck/cli/runner"
	"github.com/perfgo/testcheck/tree"
)

// maxLineSize bounds a single reporter line. Error events carry full stack
// traces, so this is far above bufio's default.
const maxLineSize = 64 * 1024 * 1024

// execution is the outcome of running the test runner.
type execution struct {
	// ExitCode of the runner, -1 if it did not start or was killed.
	ExitCode int
	// Fault stopped the processing of the event stream.
	Fault error
}

// executeLocal starts the runner, streams its stdout into b and waits for it
// to exit. events receives a copy of every stdout line, stderr receives the
// runner's stderr. A fault interrupts the runner.
func (a *App) executeLocal(ctx context.Context, opts runner.Options, b *tree.Builder, events, stderr io.Writer) (*execution, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := runner.Command(ctx, opts)
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open runner stdout: %w", err)
	}

	a.logger.Info().
		Str("command", runner.BuildCommand(opts)).
		Str("dir", opts.Dir).
		Msg("Starting test runner")

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start test runner: %w", err)
	}

	result := &execution{}
	result.Fault = a.stream(stdout, b, events)
	if result.Fault != nil {
		a.logger.Error().Err(result.Fault).Msg("Stopping test runner")
		cancel()
		// Wait must not block on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}

	err = cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		a.logger.Debug().Int("exit_code", result.ExitCode).Msg("Test runner exited")
	default:
		result.ExitCode = -1
		if result.Fault == nil {
			return result, fmt.Errorf("failed to wait for test runner: %w", err)
		}
	}

	return result, nil
}

// stream feeds every line of r into b, stopping at the first fault. Blank
// lines are skipped.
func (a *App) stream(r io.Reader, b *tree.Builder, events io.Writer) error {
	var tee *bufio.Writer
	if events != nil {
		tee = bufio.NewWriter(events)
		defer tee.Flush()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if tee != nil {
			_, _ = tee.Write(line)
			_ = tee.WriteByte('\n')
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := b.ProcessLine(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	return nil
}

// openInput opens the event stream named by arg, stdin for "" and "-".
func openInput(arg string) (io.ReadCloser, error) {
	if arg == "" || arg == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	return f, nil
}
