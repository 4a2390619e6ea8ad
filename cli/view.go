package cli

// This file contains the view command for displaying test runs from history.

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/perfgo/testcheck/history"
	"github.com/perfgo/testcheck/model"
	"github.com/urfave/cli/v2"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, pprofArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are pprof args
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A negative index is "-" followed by digits, anything else starting
	// with "-" is a pprof flag.
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", in
		}
	}

	return in[0], removeFirstDashDash(in[1:])
}

func (a *App) view(ctx *cli.Context) error {
	arg, pprofArgs := parseViewArgs(ctx.Args().Slice())

	root, err := history.GetRoot()
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := history.Find(entries, arg)
	if err != nil {
		return err
	}

	return a.displayHistoryEntry(entry, pprofArgs)
}

func (a *App) displayHistoryEntry(entry *history.Entry, pprofArgs []string) error {
	h := entry.History

	fmt.Printf("=== Test Run: %s ===\n", shortID(h.ID))
	fmt.Printf("Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration: %s\n", h.Duration)
	fmt.Printf("Exit Code: %d\n", h.ExitCode)
	if h.Command != "" {
		fmt.Printf("Command: %s\n", h.Command)
	}
	if h.Project != "" {
		fmt.Printf("Project: %s\n", h.Project)
	}
	if h.Git != nil && h.Git.Commit != "" {
		fmt.Printf("Git Commit: %s", shortID(h.Git.Commit))
		if h.Git.Branch != "" {
			fmt.Printf(" (%s)", h.Git.Branch)
		}
		fmt.Println()
	}
	if h.Target != nil && h.Target.RunnerVersion != "" {
		fmt.Printf("Runner: %s %s (protocol %s)\n", h.Target.Runner, h.Target.RunnerVersion, h.Target.ProtocolVersion)
	}
	if h.Result != nil {
		fmt.Printf("Conclusion: %s %s\n", conclusionMarker(h.Result.Conclusion), h.Result.Summary)
		fmt.Printf("Suites: %d/%d\n", h.Result.SuitesRan, h.Result.SuitesExpected)
	}
	if h.CheckRun != nil && h.CheckRun.URL != "" {
		fmt.Printf("Check Run: %s\n", h.CheckRun.URL)
	}
	fmt.Println()

	// pprof arguments select the timing profile, the report is shown otherwise.
	if profile := h.Artifact(model.ArtifactTypeTimingProfile); profile != nil && len(pprofArgs) > 0 {
		return a.displayProfile(entry.FullPath, profile, pprofArgs)
	}
	if report := h.Artifact(model.ArtifactTypeReport); report != nil {
		return a.displayFile(entry.FullPath, report)
	}
	if stderr := h.Artifact(model.ArtifactTypeStderr); stderr != nil {
		return a.displayFile(entry.FullPath, stderr)
	}

	fmt.Println("No displayable artifacts found")
	fmt.Printf("History directory: %s\n", entry.FullPath)
	return nil
}

func (a *App) displayProfile(runDir string, artifact *model.Artifact, pprofArgs []string) error {
	profilePath := filepath.Join(runDir, artifact.File)
	fmt.Printf("Profile: %s (%.1f KB)\n", profilePath, float64(artifact.Size)/1024)

	args := []string{"tool", "pprof"}
	args = append(args, pprofArgs...)
	args = append(args, profilePath)

	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = runDir

	return cmd.Run()
}

func (a *App) displayFile(runDir string, artifact *model.Artifact) error {
	path := filepath.Join(runDir, artifact.File)
	fmt.Printf("%s: %s\n\n", artifact.Type, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", artifact.Type, err)
	}
	fmt.Println(string(data))
	return nil
}
