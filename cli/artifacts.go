package cli

// This file contains artifact management functionality for the files kept
// in a run directory.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/testcheck/model"
)

// Names of the artifacts within a run directory.
const (
	eventsFile  = "events.jsonl"
	stderrFile  = "stderr.txt"
	reportFile  = "report.md"
	profileFile = "timing.pb.gz"
	metricsFile = "metrics.prom"
)

// registerArtifact adds the file of runDir to the artifacts of h if it
// exists and is not empty.
func (a *App) registerArtifact(h *model.History, runDir string, t model.ArtifactType, name string) {
	info, err := os.Stat(filepath.Join(runDir, name))
	if err != nil {
		return
	}
	if info.Size() == 0 {
		_ = os.Remove(filepath.Join(runDir, name))
		return
	}
	h.Artifacts = append(h.Artifacts, model.Artifact{
		Type: t,
		Size: uint64(info.Size()),
		File: name,
	})
	a.logger.Debug().Str("type", t.String()).Str("file", name).Msg("Registered artifact")
}

// writeArtifact writes the file name of runDir using write and registers it.
func (a *App) writeArtifact(h *model.History, runDir string, t model.ArtifactType, name string, write func(path string) error) error {
	if err := write(filepath.Join(runDir, name)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	a.registerArtifact(h, runDir, t, name)
	return nil
}

func writeString(path, s string) error {
	return os.WriteFile(path, []byte(s), 0644)
}
