package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"docsdiff/internal/archive"
	"docsdiff/internal/common"
	"docsdiff/internal/config"
	"docsdiff/internal/directory"
	"docsdiff/internal/git"
	"docsdiff/internal/observability"
	"docsdiff/internal/security"
	"docsdiff/internal/syncer"
	"docsdiff/internal/ui"
	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

var cutoffFlag string

// cutoffLayouts are tried in order; the layouts without an offset are read
// in local time
var cutoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func syncFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	fs.StringVar(&cutoffFlag, "cutoff", "", "cutoff timestamp (RFC 3339 or 2006-01-02[T15:04:05]); defaults to now")
	return fs
}

// parseCutoff returns now when value is empty
func parseCutoff(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	for _, layout := range cutoffLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid cutoff %q", value)).
		WithContext("field", "cutoff").
		WithSuggestions("Use RFC 3339, e.g. 2024-01-10T00:00:00Z, or a date such as 2024-01-10")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// The cutoff is fixed here, before anything else runs, and handed to
	// every step of the pass.
	cutoff, err := parseCutoff(cutoffFlag, time.Now())
	if err != nil {
		return err
	}

	if err := config.ResolveCredentials(cfg, security.NewCredentialManager(), logger); err != nil {
		return err
	}

	client, err := newDirectoryClient(ctx, cfg)
	if err != nil {
		return err
	}

	adapter, err := git.NewAdapter(git.AdapterOptions{
		Backend: cfg.Git.Backend,
		Binary:  cfg.Git.Binary,
		Auth:    cloneAuth(cfg.GitHub),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	writer := archive.NewWriter(common.DiffsRoot(cfg.ContentRoot), archive.Signature{
		Name:  cfg.Archive.AuthorName,
		Email: cfg.Archive.AuthorEmail,
	}, logger)

	metrics := observability.NewPassMetrics()
	progress := ui.NewProgressPrinter(cmd.OutOrStdout())

	orchestrator := syncer.New(client, adapter, writer, syncer.Options{
		Org:      cfg.GitHub.Org,
		DocsRoot: common.DocsRoot(cfg.ContentRoot),
		OnError:  cfg.Sync.OnError,
		Logger:   logger,
		Metrics:  metrics,
		Observer: progress.Repository,
	})

	report, syncErr := orchestrator.Sync(ctx, cutoff)

	if len(report.Results) > 0 {
		progress.Finish()
		fmt.Fprintln(cmd.OutOrStdout())
		ui.RenderReport(cmd.OutOrStdout(), report)
	}
	switch {
	case report.Committed:
		ui.ShowSuccess(fmt.Sprintf("archive commit %s dated %s", git.ShortHash(report.CommitHash), archive.FormatTimestamp(cutoff)))
	case syncErr == nil:
		ui.ShowInfo("nothing to commit")
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics")
		}
	}
	return syncErr
}

func newDirectoryClient(ctx context.Context, cfg *models.Config) (*directory.Client, error) {
	excludes, err := directory.CompileExcludes(cfg.GitHub.Excludes)
	if err != nil {
		return nil, err
	}
	return directory.NewClient(ctx, directory.Options{
		BaseURL: cfg.GitHub.BaseURL,
		Credentials: directory.Credentials{
			Username: cfg.GitHub.Username,
			Password: cfg.GitHub.Password,
			Token:    cfg.GitHub.Token,
		},
		Excludes:     excludes,
		PerPage:      cfg.GitHub.PerPage,
		PageInterval: cfg.GitHub.PageInterval,
		Timeout:      cfg.GitHub.Timeout,
		Logger:       logger,
	})
}

// cloneAuth reuses the directory credentials for HTTPS clones
func cloneAuth(gh models.GitHub) transport.AuthMethod {
	if gh.Token != "" {
		return git.TokenAuth(gh.Token)
	}
	return git.BasicAuth(gh.Username, gh.Password)
}
