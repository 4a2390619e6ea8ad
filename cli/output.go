package cli

// This file contains the handling of report outputs shared by the run and
// report commands.

import (
	"fmt"
	"os"
	"time"

	"github.com/google/pprof/profile"
	"github.com/perfgo/testcheck/checks"
	"github.com/perfgo/testcheck/metrics"
	"github.com/perfgo/testcheck/report"
	"github.com/perfgo/testcheck/timing"
	"github.com/perfgo/testcheck/tree"
	"github.com/urfave/cli/v2"
)

type outputConfig struct {
	Format      string
	Repository  string
	SHA         string
	ServerURL   string
	StepSummary string
	MetricsFile string
	Profile     string
}

func (a *App) readOutputConfig(ctx *cli.Context) (outputConfig, error) {
	cfg := outputConfig{
		Format:      ctx.String("format"),
		Repository:  ctx.String("repository"),
		SHA:         ctx.String("sha"),
		ServerURL:   ctx.String("server-url"),
		StepSummary: ctx.String("step-summary"),
		MetricsFile: ctx.String("metrics-file"),
		Profile:     ctx.String("profile"),
	}
	switch cfg.Format {
	case formatMarkdown, formatTable, "none":
	default:
		return cfg, fmt.Errorf("unknown format %q (use markdown, table or none)", cfg.Format)
	}

	if cfg.Repository == "" {
		if repo, err := a.getGitRepository(); err == nil {
			cfg.Repository = repo
		} else {
			a.logger.Debug().Err(err).Msg("Repository unknown")
		}
	}
	if cfg.SHA == "" {
		if commit, _, err := a.getGitInfo(); err == nil {
			cfg.SHA = commit
		} else {
			a.logger.Debug().Err(err).Msg("Commit unknown")
		}
	}
	return cfg, nil
}

// baseURL returns the prefix of source links, empty if the repository or
// commit is unknown.
func (c outputConfig) baseURL() string {
	if c.Repository == "" || c.SHA == "" || c.ServerURL == "" {
		return ""
	}
	return report.SourceURL(c.ServerURL, c.Repository, c.SHA)
}

// writeOutputs prints the report and writes the optional output files. A
// nil prof skips the profile output.
func (a *App) writeOutputs(cfg outputConfig, run *tree.Run, markdown string, rec *metrics.Recorder, prof *profile.Profile) error {
	switch cfg.Format {
	case formatMarkdown:
		fmt.Print(markdown)
	case formatTable:
		report.Table(os.Stdout, run)
	}

	if cfg.StepSummary != "" {
		if err := checks.AppendStepSummary(cfg.StepSummary, markdown); err != nil {
			return err
		}
		a.logger.Debug().Str("file", cfg.StepSummary).Msg("Appended job summary")
	}

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		a.logger.Info().Str("file", cfg.MetricsFile).Msg("Metrics written")
	}

	if cfg.Profile != "" && prof != nil {
		if err := timing.WriteFile(cfg.Profile, prof); err != nil {
			return err
		}
		a.logger.Info().Str("file", cfg.Profile).Msg("Timing profile written")
	}
	return nil
}

// buildProfile builds the timing profile of run, logging instead of failing
// since the profile is never essential.
func (a *App) buildProfile(run *tree.Run, startedAt time.Time) *profile.Profile {
	prof, err := timing.New().Build(run, startedAt)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to build timing profile")
		return nil
	}
	return prof
}
