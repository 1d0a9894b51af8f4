// Package syncer runs sync passes: it brings every tracked repository's
// local clone up to a cutoff, records what changed in the diff archive and
// then advances the clones.
package syncer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"docsdiff/internal/common"
	"docsdiff/internal/git"
	"docsdiff/internal/observability"
	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

// RepositoryLister supplies the repositories to track
type RepositoryLister interface {
	ListRepositories(ctx context.Context, org string) ([]models.Repository, error)
}

// Archive records diffs and commits them once per pass
type Archive interface {
	Write(repoName, diff string, ts time.Time) error
	CommitAll(ts time.Time) (committed bool, hash string, err error)
}

// Observer is told about each repository as soon as it is processed
type Observer func(index, total int, result models.RepoResult)

// Options configures an Orchestrator
type Options struct {
	Org      string
	DocsRoot string
	OnError  string
	Logger   zerolog.Logger
	Metrics  *observability.PassMetrics
	Observer Observer
}

// Orchestrator coordinates one sync pass over every listed repository
type Orchestrator struct {
	lister   RepositoryLister
	adapter  git.Adapter
	resolver *git.Resolver
	archive  Archive
	opts     Options
	logger   zerolog.Logger
}

// New creates an orchestrator
func New(lister RepositoryLister, adapter git.Adapter, archive Archive, opts Options) *Orchestrator {
	if opts.OnError == "" {
		opts.OnError = models.OnErrorAbort
	}
	return &Orchestrator{
		lister:   lister,
		adapter:  adapter,
		resolver: git.NewResolver(adapter),
		archive:  archive,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "syncer").Logger(),
	}
}

// Sync runs one pass at cutoff. Every repository is cloned or fetched and
// its diff written to the archive; the archive is committed once; only then
// are the clones checked out at their resolved fetch head.
//
// With the abort policy the first failure ends the pass before anything is
// committed or advanced. With the continue policy failed repositories are
// skipped and the pass returns their combined error at the end. The report
// is returned in every case and holds the results gathered so far.
func (o *Orchestrator) Sync(ctx context.Context, cutoff time.Time) (report *models.PassReport, err error) {
	start := time.Now()
	report = &models.PassReport{Cutoff: cutoff}

	ctx, span := observability.StartSpan(ctx, "sync.pass",
		"org", o.opts.Org,
		"cutoff", cutoff.Format(time.RFC3339))
	defer func() {
		report.Duration = time.Since(start)
		o.observe(report, err)
		observability.EndSpan(span, err)
	}()

	o.logger.Info().
		Str("org", o.opts.Org).
		Time("cutoff", cutoff).
		Str("on_error", o.opts.OnError).
		Msg("starting sync pass")

	repos, err := o.lister.ListRepositories(ctx, o.opts.Org)
	if err != nil {
		return report, err
	}
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveListing(len(repos))
	}

	var failures *multierror.Error
	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := o.syncRepository(ctx, repo, cutoff)
		report.Results = append(report.Results, result)
		if o.opts.Observer != nil {
			o.opts.Observer(i, len(repos), result)
		}

		if result.Failed() {
			if o.opts.OnError != models.OnErrorContinue {
				o.logger.Error().Err(result.Err).Str("repo", repo.Name).Msg("aborting pass, nothing committed")
				return report, result.Err
			}
			o.logger.Warn().Err(result.Err).Str("repo", repo.Name).Msg("skipping repository")
			failures = multierror.Append(failures, result.Err)
		}
	}

	committed, hash, err := o.archive.CommitAll(cutoff)
	if err != nil {
		return report, errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to commit diff archive").
			WithContext("cutoff", cutoff)
	}
	report.Committed = committed
	report.CommitHash = hash
	if !committed {
		o.logger.Info().Msg("nothing to commit")
	}

	for i := range report.Results {
		res := &report.Results[i]
		if res.Failed() {
			continue
		}
		if err := o.advance(ctx, res); err != nil {
			res.Err = err
			if o.opts.OnError != models.OnErrorContinue {
				return report, err
			}
			failures = multierror.Append(failures, err)
		}
	}

	o.logger.Info().
		Int("repositories", len(report.Results)).
		Int("changed", report.Changed()).
		Int("failed", len(report.Failures())).
		Bool("committed", report.Committed).
		Msg("sync pass finished")

	return report, failures.ErrorOrNil()
}

// syncRepository clones or fetches one repository and records its diff
func (o *Orchestrator) syncRepository(ctx context.Context, repo models.Repository, cutoff time.Time) (result models.RepoResult) {
	ctx, span := observability.StartSpan(ctx, "sync.repository", "repo", repo.Name)
	result = models.RepoResult{Name: repo.Name}
	defer func() { observability.EndSpan(span, result.Err) }()

	logger := o.logger.With().Str("repo", repo.Name).Logger()
	path := common.ClonePath(o.opts.DocsRoot, repo.Name)

	err := func() error {
		if err := git.ValidateCloneURL(repo.CloneURL); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidState, "directory returned an unusable clone URL").
				WithContext("url", repo.CloneURL)
		}

		exists, err := cloneExists(path)
		if err != nil {
			return err
		}

		var diff string
		if !exists {
			pair, err := o.cloneRepository(ctx, repo, path, cutoff)
			if err != nil {
				return err
			}
			result.Cloned = true
			result.Pair = pair
			logger.Info().Str("commit", git.ShortHash(pair.Head)).Msg("cloned")
		} else {
			if err := o.adapter.Fetch(ctx, path, repo.CloneURL); err != nil {
				return err
			}
			pair, err := o.resolver.ResolvePair(ctx, path, cutoff)
			if err != nil {
				return err
			}
			result.Pair = pair

			if pair.Updated() {
				diff, err = o.adapter.Diff(ctx, path, pair.Head, pair.FetchHead, git.DiffContextLines)
				if err != nil {
					return err
				}
			}
			logger.Info().
				Str("head", git.ShortHash(pair.Head)).
				Str("fetch_head", git.ShortHash(pair.FetchHead)).
				Int("diff_bytes", len(diff)).
				Msg("fetched")
		}

		if err := o.archive.Write(repo.Name, diff, cutoff); err != nil {
			return err
		}
		result.DiffBytes = len(diff)
		return nil
	}()

	if err != nil {
		result.Err = errors.Wrap(err, errors.ErrCodeRepoSyncFailed, fmt.Sprintf("failed to sync %s", repo.Name)).
			WithContext("repo", repo.Name)
	}
	return result
}

// cloneRepository creates the local clone pinned at the newest commit not
// after cutoff, then fetches so both references exist
func (o *Orchestrator) cloneRepository(ctx context.Context, repo models.Repository, path string, cutoff time.Time) (models.ResolvedPair, error) {
	if err := o.adapter.Clone(ctx, repo.CloneURL, path); err != nil {
		return models.ResolvedPair{}, err
	}

	head, err := o.resolver.Resolve(ctx, path, git.HeadRef, cutoff)
	if err != nil {
		return models.ResolvedPair{}, err
	}
	if err := o.adapter.Checkout(ctx, path, head); err != nil {
		return models.ResolvedPair{}, err
	}
	if err := o.adapter.Fetch(ctx, path, repo.CloneURL); err != nil {
		return models.ResolvedPair{}, err
	}

	fetchHead, err := o.resolver.Resolve(ctx, path, git.FetchHeadRef, cutoff)
	if err != nil {
		return models.ResolvedPair{}, err
	}
	return models.ResolvedPair{Head: head, FetchHead: fetchHead}, nil
}

// advance checks the clone out at its resolved fetch head
func (o *Orchestrator) advance(ctx context.Context, res *models.RepoResult) error {
	path := common.ClonePath(o.opts.DocsRoot, res.Name)
	if err := o.adapter.Checkout(ctx, path, res.Pair.FetchHead); err != nil {
		return errors.Wrap(err, errors.ErrCodeRepoSyncFailed, fmt.Sprintf("failed to advance %s", res.Name)).
			WithContext("repo", res.Name).
			WithContext("commit", res.Pair.FetchHead)
	}
	res.Advanced = true
	o.logger.Debug().Str("repo", res.Name).Str("commit", git.ShortHash(res.Pair.FetchHead)).Msg("advanced")
	return nil
}

func (o *Orchestrator) observe(report *models.PassReport, err error) {
	if o.opts.Metrics == nil {
		return
	}
	for _, res := range report.Results {
		o.opts.Metrics.ObserveRepository(res)
	}
	o.opts.Metrics.ObservePass(report, err)
}

func cloneExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return true, nil
	case err == nil:
		return false, errors.New(errors.ErrCodeInvalidState, "clone path exists and is not a directory").
			WithContext("path", path)
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to inspect clone path").
			WithContext("path", path)
	}
}
