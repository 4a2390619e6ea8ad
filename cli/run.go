package cli

// This file contains the run command: it executes the test runner, builds
// the report and publishes it as a check run.

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/perfgo/testcheck/checks"
	"github.com/perfgo/testcheck/cli/runner"
	"github.com/perfgo/testcheck/metrics"
	"github.com/perfgo/testcheck/model"
	"github.com/perfgo/testcheck/report"
	"github.com/perfgo/testcheck/tree"
	"github.com/urfave/cli/v2"
)

func (a *App) run(ctx *cli.Context) error {
	startTime := time.Now()

	cfg, err := a.readOutputConfig(ctx)
	if err != nil {
		return err
	}

	opts := runner.Options{
		Runner: ctx.String("runner"),
		Dir:    ctx.String("project"),
		Args:   removeFirstDashDash(ctx.Args().Slice()),
	}
	project := opts.Dir

	// Suite paths are absolute, links are relative to the directory
	// testcheck runs in.
	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	h := &model.History{
		ID:        uuid.NewString(),
		Timestamp: startTime,
		Args:      os.Args,
		Command:   runner.BuildCommand(opts),
		Project:   project,
		WorkDir:   baseDir,
		Target: &model.Target{
			OS:     runtime.GOOS,
			Arch:   runtime.GOARCH,
			Runner: opts.Runner,
		},
	}
	if commit, branch, err := a.getGitInfo(); err == nil {
		h.Git = &model.Git{Commit: commit, Branch: branch, Repo: cfg.Repository}
	}

	var runDir string
	if !ctx.Bool("no-history") {
		runDir, err = a.prepareHistoryDir(h)
		if err != nil {
			a.logger.Warn().Err(err).Msg("History disabled")
		}
	}

	var client *checks.Client
	if !ctx.Bool("no-check") {
		client, err = a.newChecksClient(ctx, cfg)
		if err != nil {
			return err
		}
	}

	checkName := fmt.Sprintf("test (%s)", project)
	var checkRun *checks.CheckRun
	if client != nil {
		if cfg.SHA == "" {
			return fmt.Errorf("commit unknown: set --sha or GITHUB_SHA")
		}
		checkRun, err = client.Create(ctx.Context, checkName, cfg.SHA, h.ID)
		if err != nil {
			return err
		}
		h.CheckRun = &model.CheckRun{ID: checkRun.ID, URL: checkRun.HTMLURL}
	}

	rec := metrics.New(a.logger, project)
	b := tree.NewBuilder(a.logger, tree.Options{BaseDir: baseDir, OnEvent: rec.ObserveEvent})

	events, stderr, closeFiles := a.openRunFiles(runDir)
	exec, execErr := a.executeLocal(ctx.Context, opts, b, events, stderr)
	closeFiles()

	var fault error
	switch {
	case execErr != nil:
		fault = execErr
		h.ExitCode = -1
	case exec.Fault != nil:
		fault = exec.Fault
		h.ExitCode = exec.ExitCode
	default:
		h.ExitCode = exec.ExitCode
	}

	result := b.Finalize()
	if fault != nil {
		result.Fail(fault)
	}
	rec.RecordRun(result)
	markdown := report.Markdown(result, report.Options{BaseURL: cfg.baseURL()})
	h.Result = model.NewResult(result, fault)
	h.Target.RunnerVersion = result.RunnerVersion
	h.Target.ProtocolVersion = result.ProtocolVersion

	if checkRun != nil {
		a.completeCheckRun(ctx.Context, client, checkRun, checkName, project, result, markdown)
	}

	prof := a.buildProfile(result, startTime)
	outErr := a.writeOutputs(cfg, result, markdown, rec, prof)

	if runDir != "" {
		h.Duration = time.Since(startTime)
		if err := a.recordHistory(h, runDir, markdown, rec, prof); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		}
	}

	if fault != nil {
		return fault
	}
	if outErr != nil {
		return outErr
	}
	if result.Conclusion != tree.ConclusionSuccess {
		return cli.Exit(result.Summary, 1)
	}
	return nil
}

func (a *App) newChecksClient(ctx *cli.Context, cfg outputConfig) (*checks.Client, error) {
	token := ctx.String("token")
	if token == "" {
		a.logger.Warn().Msg("No GitHub token given, skipping check run")
		return nil, nil
	}
	return checks.New(a.logger, checks.Config{
		Token:      token,
		Repository: cfg.Repository,
		APIURL:     ctx.String("api-url"),
	})
}

// completeCheckRun completes the check run with the conclusion and summary of
// result. Failures are logged, the local report is still produced.
func (a *App) completeCheckRun(ctx context.Context, client *checks.Client, cr *checks.CheckRun, name, project string, result *tree.Run, markdown string) {
	opts := checks.CompleteOptions{
		Name:       name,
		Conclusion: result.Conclusion,
		Title:      fmt.Sprintf("Tests of %s", project),
		Summary:    result.Summary,
		Text:       markdown,
	}
	// The run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	if err := client.Complete(ctx, cr.ID, opts); err != nil {
		a.logger.Error().Err(err).Int64("id", cr.ID).Msg("Failed to complete check run")
	}
}

// openRunFiles opens the events and stderr files of runDir. Without a
// history directory events are dropped and stderr is only forwarded.
func (a *App) openRunFiles(runDir string) (events, stderr io.Writer, closeFn func()) {
	if runDir == "" {
		return nil, os.Stderr, func() {}
	}

	var closers []io.Closer
	stderr = os.Stderr
	if f, err := os.Create(filepath.Join(runDir, eventsFile)); err == nil {
		events = f
		closers = append(closers, f)
	} else {
		a.logger.Warn().Err(err).Msg("Failed to create events file")
	}
	if f, err := os.Create(filepath.Join(runDir, stderrFile)); err == nil {
		stderr = io.MultiWriter(os.Stderr, f)
		closers = append(closers, f)
	} else {
		a.logger.Warn().Err(err).Msg("Failed to create stderr file")
	}

	return events, stderr, func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
}
