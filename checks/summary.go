package checks

import (
	"fmt"
	"os"
)

// AppendStepSummary appends markdown to the job summary file of a GitHub
// Actions step, usually the path in GITHUB_STEP_SUMMARY.
func AppendStepSummary(path, markdown string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open step summary: %w", err)
	}
	if _, err := f.WriteString(markdown); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write step summary: %w", err)
	}
	return f.Close()
}
