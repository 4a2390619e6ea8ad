// Package checks publishes test results as GitHub check runs.
package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v59/github"
	"github.com/perfgo/testcheck/tree"
	"github.com/rs/zerolog"
)

var (
	ErrMissingRepository = errors.New("repository must be given as owner/repo")
	ErrMissingToken      = errors.New("missing GitHub token")
	ErrCheckRunCreate    = errors.New("failed to create check run")
	ErrCheckRunUpdate    = errors.New("failed to update check run")
)

// GitHub API status values.
const (
	statusInProgress = "in_progress"
	statusCompleted  = "completed"
)

const (
	defaultAPIURL = "https://api.github.com"
	// maxTextLength is the limit GitHub puts on the text of a check run
	// output.
	maxTextLength = 65535
	truncatedNote = "\n\n_Report truncated._\n"
)

type Config struct {
	Token string
	// Repository in owner/repo form.
	Repository string
	// APIURL is only needed for GitHub Enterprise Server.
	APIURL string
}

// Client creates and completes check runs for a single repository.
type Client struct {
	logger zerolog.Logger
	client *github.Client
	owner  string
	repo   string
}

// New creates a client authenticated with cfg.Token.
func New(logger zerolog.Logger, cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	gh := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.APIURL != "" && strings.TrimSuffix(cfg.APIURL, "/") != defaultAPIURL {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("failed to use API URL %q: %w", cfg.APIURL, err)
		}
	}
	return NewWithClient(logger, gh, cfg.Repository)
}

// NewWithClient wraps an existing go-github client.
func NewWithClient(logger zerolog.Logger, gh *github.Client, repository string) (*Client, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%w: %q", ErrMissingRepository, repository)
	}
	return &Client{
		logger: logger,
		client: gh,
		owner:  owner,
		repo:   repo,
	}, nil
}

// CheckRun identifies a created check run.
type CheckRun struct {
	ID      int64
	Name    string
	HTMLURL string
}

// Create starts an in progress check run on sha.
func (c *Client) Create(ctx context.Context, name, sha, externalID string) (*CheckRun, error) {
	opts := github.CreateCheckRunOptions{
		Name:      name,
		HeadSHA:   sha,
		Status:    github.String(statusInProgress),
		StartedAt: &github.Timestamp{Time: time.Now()},
	}
	if externalID != "" {
		opts.ExternalID = github.String(externalID)
	}

	cr, _, err := c.client.Checks.CreateCheckRun(ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckRunCreate, err)
	}
	c.logger.Info().
		Int64("id", cr.GetID()).
		Str("name", cr.GetName()).
		Str("url", cr.GetHTMLURL()).
		Msg("Check run created")
	return &CheckRun{ID: cr.GetID(), Name: cr.GetName(), HTMLURL: cr.GetHTMLURL()}, nil
}

// CompleteOptions is the final state of a check run.
type CompleteOptions struct {
	Name       string
	Conclusion tree.Conclusion
	Title      string
	Summary    string
	// Text is the markdown report. It is truncated to what GitHub accepts.
	Text string
}

// Complete marks the check run as completed.
func (c *Client) Complete(ctx context.Context, id int64, opts CompleteOptions) error {
	conclusion := Conclusion(opts.Conclusion)
	update := github.UpdateCheckRunOptions{
		Name:        opts.Name,
		Status:      github.String(statusCompleted),
		Conclusion:  github.String(conclusion),
		CompletedAt: &github.Timestamp{Time: time.Now()},
		Output: &github.CheckRunOutput{
			Title:   github.String(opts.Title),
			Summary: github.String(opts.Summary),
			Text:    github.String(truncateText(opts.Text, maxTextLength)),
		},
	}

	if _, _, err := c.client.Checks.UpdateCheckRun(ctx, c.owner, c.repo, id, update); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckRunUpdate, err)
	}
	c.logger.Info().Int64("id", id).Str("conclusion", conclusion).Msg("Check run completed")
	return nil
}

// Conclusion maps the outcome of a run to a check run conclusion. A runner
// that terminated early is reported as timed out.
func Conclusion(c tree.Conclusion) string {
	switch c {
	case tree.ConclusionSuccess:
		return "success"
	case tree.ConclusionFailure:
		return "failure"
	default:
		return "timed_out"
	}
}

// truncateText cuts s to at most n bytes on a rune boundary, appending a
// note if anything was cut.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - len(truncatedNote)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedNote
}
