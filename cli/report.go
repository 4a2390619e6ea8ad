package cli

// This file contains the report command which renders a recorded event
// stream without running any tests.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/perfgo/testcheck/metrics"
	"github.com/perfgo/testcheck/report"
	"github.com/perfgo/testcheck/tree"
	"github.com/urfave/cli/v2"
)

func (a *App) report(ctx *cli.Context) error {
	startTime := time.Now()

	cfg, err := a.readOutputConfig(ctx)
	if err != nil {
		return err
	}

	baseDir := ctx.String("base-dir")
	if baseDir == "" {
		if baseDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	if baseDir, err = filepath.Abs(baseDir); err != nil {
		return fmt.Errorf("invalid base directory: %w", err)
	}

	in, err := openInput(ctx.Args().First())
	if err != nil {
		return err
	}
	defer in.Close()

	rec := metrics.New(a.logger, filepath.Base(baseDir))
	b := tree.NewBuilder(a.logger, tree.Options{BaseDir: baseDir, OnEvent: rec.ObserveEvent})
	fault := a.stream(in, b, nil)

	result := b.Finalize()
	if fault != nil {
		result.Fail(fault)
	}
	rec.RecordRun(result)
	markdown := report.Markdown(result, report.Options{BaseURL: cfg.baseURL()})

	if err := a.writeOutputs(cfg, result, markdown, rec, a.buildProfile(result, startTime)); err != nil {
		return err
	}
	if fault != nil {
		return fault
	}

	a.logger.Debug().
		Str("conclusion", result.Conclusion.String()).
		Str("summary", result.Summary).
		Msg("Report built")
	return nil
}
