package cli

// This file contains test run recording functionality for saving
// run metadata and artifacts to the history directory.

import (
	"path/filepath"

	"github.com/google/pprof/profile"
	"github.com/perfgo/testcheck/history"
	"github.com/perfgo/testcheck/metrics"
	"github.com/perfgo/testcheck/model"
	"github.com/perfgo/testcheck/timing"
)

// prepareHistoryDir creates the run directory of h below the repository
// root and makes the paths of h relative to that root.
func (a *App) prepareHistoryDir(h *model.History) (string, error) {
	repoRoot, err := history.RepoRoot()
	if err != nil {
		return "", err
	}

	// Store paths relative to the repository root
	if h.WorkDir != "" {
		if rel, err := filepath.Rel(repoRoot, h.WorkDir); err == nil {
			h.WorkDir = rel
		}
	}
	if filepath.IsAbs(h.Project) {
		if rel, err := filepath.Rel(repoRoot, h.Project); err == nil {
			h.Project = rel
		}
	}

	runDir, err := history.CreateRunDir(filepath.Join(repoRoot, history.DirName), h)
	if err != nil {
		return "", err
	}
	a.logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Created run directory")
	return runDir, nil
}

// recordHistory writes the report artifacts of the run to runDir and saves
// the metadata of h next to them. The events and stderr files are written
// while the runner executes and are only registered here.
func (a *App) recordHistory(h *model.History, runDir, markdown string, rec *metrics.Recorder, prof *profile.Profile) error {
	a.registerArtifact(h, runDir, model.ArtifactTypeEvents, eventsFile)
	a.registerArtifact(h, runDir, model.ArtifactTypeStderr, stderrFile)

	if err := a.writeArtifact(h, runDir, model.ArtifactTypeReport, reportFile, func(path string) error {
		return writeString(path, markdown)
	}); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save report")
	}

	if prof != nil {
		if err := a.writeArtifact(h, runDir, model.ArtifactTypeTimingProfile, profileFile, func(path string) error {
			return timing.WriteFile(path, prof)
		}); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to save timing profile")
		}
	}

	if err := a.writeArtifact(h, runDir, model.ArtifactTypeMetrics, metricsFile, rec.WriteTextfile); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save metrics")
	}

	if err := history.Save(runDir, h); err != nil {
		return err
	}

	a.logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded test run")
	return nil
}
