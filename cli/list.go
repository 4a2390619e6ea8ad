package cli

// This file contains the list command for displaying previous test runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/perfgo/testcheck/history"
	"github.com/perfgo/testcheck/tree"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	filterPath := ctx.String("path")
	limit := ctx.Int("limit")

	root, err := history.GetRoot()
	if err != nil {
		return err
	}

	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterPath == "" || strings.Contains(entry.History.Project, filterPath) {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	if len(filteredEntries) == 0 {
		if filterPath != "" {
			fmt.Printf("No history entries found matching path: %s\n", filterPath)
		} else {
			fmt.Println("No history entries found")
		}
		return nil
	}

	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Printf("\n=== History (%d total) ===\n\n", len(filteredEntries))

	for _, entry := range displayRuns {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Millisecond)

		status := "❓"
		summary := ""
		if h.Result != nil {
			status = conclusionMarker(h.Result.Conclusion)
			summary = h.Result.Summary
		}

		fmt.Printf("%s  %s  [%s]  exit=%d  id=%s\n", status, timestamp, duration, h.ExitCode, shortID(h.ID))
		if summary != "" {
			fmt.Printf("   %s\n", summary)
		}
		if h.Result != nil {
			s := h.Result.Stats
			fmt.Printf("   Suites: %d/%d  Tests: %d passed, %d failed, %d skipped\n",
				h.Result.SuitesRan, h.Result.SuitesExpected, s.Passed, s.Failed+s.Errored, s.Skipped)
		}
		if h.Project != "" {
			fmt.Printf("   Project: %s\n", h.Project)
		}
		if h.Command != "" {
			fmt.Printf("   Command: %s\n", h.Command)
		}
		if h.Git != nil && h.Git.Commit != "" {
			fmt.Printf("   Commit: %s", shortID(h.Git.Commit))
			if h.Git.Branch != "" {
				fmt.Printf(" (%s)", h.Git.Branch)
			}
			fmt.Println()
		}
		if h.CheckRun != nil && h.CheckRun.URL != "" {
			fmt.Printf("   Check: %s\n", h.CheckRun.URL)
		}
		for _, artifact := range h.Artifacts {
			fmt.Printf("   %s: %s (%.1f KB)\n", artifact.Type, artifact.File, float64(artifact.Size)/1024)
		}
		fmt.Printf("   %s\n", entry.FullPath)
		fmt.Println()
	}

	fmt.Println("\nView report: testcheck view <ID>")
	fmt.Println("View slowest tests: testcheck view <ID> -- -top")

	return nil
}

// conclusionMarker returns the marker of a recorded conclusion.
func conclusionMarker(conclusion string) string {
	switch conclusion {
	case tree.ConclusionSuccess.String():
		return "✔️"
	case tree.ConclusionFailure.String():
		return "❌"
	default:
		return "❓"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
