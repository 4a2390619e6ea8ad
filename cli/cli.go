package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/perfgo/testcheck/cli/runner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "testcheck"

const (
	formatMarkdown = "markdown"
	formatTable    = "table"
)

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Run Flutter/Dart tests and publish the results as a GitHub check run",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run the tests of a project with the JSON reporter and publish the results",
		ArgsUsage: "[-- RUNNER ARGS...]",
		Action:    app.run,
		Flags: append([]cli.Flag{
			runner.ProjectFlag(),
			runner.RunnerFlag(),
			&cli.StringFlag{
				Name:    "token",
				Usage:   "GitHub token used to create the check run",
				EnvVars: []string{"INPUT_TOKEN", "GITHUB_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "GitHub API URL, for GitHub Enterprise Server",
				EnvVars: []string{"GITHUB_API_URL"},
			},
			&cli.BoolFlag{
				Name:  "no-check",
				Usage: "Do not create a check run",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history directory",
			},
		}, outputFlags(formatTable)...),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Build a report from a recorded JSON reporter event stream",
		ArgsUsage: "[FILE|-]",
		Action:    app.report,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "base-dir",
				Usage: "Directory stripped from suite paths (default: current directory)",
			},
		}, outputFlags(formatMarkdown)...),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous test runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Filter by project path (e.g., packages/app)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View test results from history",
		ArgsUsage:       "[ID|INDEX] [-- PPROF ARGS...]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View test results from history.

Arguments:
  0           View last test run (default)
  -1          View 2nd last test run
  -2          View 3rd last test run
  <hex-id>    View test run matching the ID prefix

Examples:
  testcheck view                  # Show the report of the last test run
  testcheck view -1               # Show the report of the 2nd last test run
  testcheck view abc123           # Show the report of the run with ID starting with abc123
  testcheck view 0 -- -top        # Show the slowest tests of the last run
  testcheck view -- -http=:8080   # Open the timing profile in the pprof web UI

Any arguments after the ID are passed to 'go tool pprof' together with the
timing profile (timing.pb.gz) of the run.`,
	})
	return app
}

// outputFlags returns the flags shared by commands that produce a report.
func outputFlags(defaultFormat string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format on stdout: markdown, table or none",
			Value:   defaultFormat,
		},
		&cli.StringFlag{
			Name:    "repository",
			Usage:   "Repository in owner/repo form, used for check runs and source links",
			EnvVars: []string{"GITHUB_REPOSITORY"},
		},
		&cli.StringFlag{
			Name:    "sha",
			Usage:   "Commit the results belong to (default: git HEAD)",
			EnvVars: []string{"GITHUB_SHA"},
		},
		&cli.StringFlag{
			Name:    "server-url",
			Usage:   "GitHub server URL used for source links",
			Value:   "https://github.com",
			EnvVars: []string{"GITHUB_SERVER_URL"},
		},
		&cli.StringFlag{
			Name:    "step-summary",
			Usage:   "Append the markdown report to this file",
			EnvVars: []string{"GITHUB_STEP_SUMMARY"},
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write prometheus metrics in text format to this file",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "Write a pprof profile of test durations to this file",
		},
	}
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
