package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/rs/zerolog"

	"docsdiff/internal/common"
	"docsdiff/pkg/errors"
)

const originRemote = "origin"

// GoGitAdapter implements Adapter in-process with go-git
type GoGitAdapter struct {
	auth   transport.AuthMethod
	logger zerolog.Logger
}

// NewGoGitAdapter creates a go-git backed adapter. auth is only sent to
// HTTP(S) remotes and may be nil.
func NewGoGitAdapter(auth transport.AuthMethod, logger zerolog.Logger) *GoGitAdapter {
	return &GoGitAdapter{
		auth:   auth,
		logger: logger.With().Str("backend", BackendGoGit).Logger(),
	}
}

// Clone clones url into path with full history
func (a *GoGitAdapter) Clone(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create clone directory").
			WithContext("path", path)
	}

	a.logger.Debug().Str("url", url).Str("path", path).Msg("cloning")
	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:      url,
		Auth:     a.authFor(url),
		Progress: NewProgressLogger(a.logger, "clone"),
	})
	if err != nil {
		return errors.GitError("clone", path, err).WithContext("url", url)
	}
	return nil
}

// Fetch updates the remote-tracking ref of the clone's default branch
func (a *GoGitAdapter) Fetch(ctx context.Context, path, url string) error {
	repo, err := open(path)
	if err != nil {
		return err
	}

	branch, err := trackedBranch(repo, path)
	if err != nil {
		return err
	}

	refSpec := config.RefSpec(fmt.Sprintf("+%s:%s",
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName(originRemote, branch)))

	a.logger.Debug().Str("url", url).Str("path", path).Str("branch", branch).Msg("fetching")
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: originRemote,
		RemoteURL:  url,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       a.authFor(url),
		Progress:   NewProgressLogger(a.logger, "fetch"),
		Tags:       git.NoTags,
		Force:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return errors.GitError("fetch", path, err).
			WithContext("url", url).
			WithContext("branch", branch).
			WithSuggestions(
				fmt.Sprintf("Check that branch '%s' still exists on the remote", branch),
				"A renamed default branch requires removing the local clone",
			)
	}
	return nil
}

// Checkout detaches HEAD at commit
func (a *GoGitAdapter) Checkout(ctx context.Context, path, commit string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo, err := open(path)
	if err != nil {
		return err
	}

	hash, err := resolve(repo, path, commit)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.GitError("checkout", path, err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return errors.GitError("checkout", path, err).WithContext("commit", commit)
	}
	return nil
}

// RevListBefore walks ref in committer-time order and returns the first
// commit not newer than cutoff.
func (a *GoGitAdapter) RevListBefore(ctx context.Context, path, ref string, cutoff time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := open(path)
	if err != nil {
		return "", err
	}

	from, err := resolve(repo, path, ref)
	if err != nil {
		return "", err
	}

	iter, err := repo.Log(&git.LogOptions{
		From:  from,
		Order: git.LogOrderCommitterTime,
		Until: &cutoff,
	})
	if err != nil {
		return "", errors.GitError("rev-list", path, err).WithContext("ref", ref)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", errors.GitError("rev-list", path, err).WithContext("ref", ref)
	}
	return commit.Hash.String(), nil
}

// Diff renders the patch between two commits as a unified diff
func (a *GoGitAdapter) Diff(ctx context.Context, path, from, to string, contextLines int) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}

	fromCommit, err := commitObject(repo, path, from)
	if err != nil {
		return "", err
	}
	toCommit, err := commitObject(repo, path, to)
	if err != nil {
		return "", err
	}

	patch, err := fromCommit.PatchContext(ctx, toCommit)
	if err != nil {
		return "", errors.GitError("diff", path, err).
			WithContext("from", from).
			WithContext("to", to)
	}

	var buf bytes.Buffer
	if err := fdiff.NewUnifiedEncoder(&buf, contextLines).Encode(patch); err != nil {
		return "", errors.GitError("diff", path, err)
	}
	return buf.String(), nil
}

func (a *GoGitAdapter) authFor(url string) transport.AuthMethod {
	if a.auth == nil || !IsHTTPSURL(url) {
		return nil
	}
	return a.auth
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.GitError("open", path, err)
	}
	return repo, nil
}

// trackedBranch returns the single local branch created by the initial
// clone; it names the remote branch every later fetch follows.
func trackedBranch(repo *git.Repository, path string) (string, error) {
	iter, err := repo.Branches()
	if err != nil {
		return "", errors.GitError("branches", path, err)
	}

	var branches []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, ref.Name().Short())
		return nil
	})
	if err != nil && err != storer.ErrStop {
		return "", errors.GitError("branches", path, err)
	}

	if len(branches) != 1 {
		return "", errors.New(errors.ErrCodeInvalidState,
			fmt.Sprintf("expected exactly one local branch, found %d", len(branches))).
			WithContext("path", path).
			WithContext("branches", branches)
	}
	return branches[0], nil
}

func resolve(repo *git.Repository, path, ref string) (plumbing.Hash, error) {
	switch ref {
	case HeadRef:
		head, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, errors.GitError("rev-parse", path, err).WithContext("ref", ref)
		}
		return head.Hash(), nil
	case FetchHeadRef:
		branch, err := trackedBranch(repo, path)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(originRemote, branch), true)
		if err != nil {
			return plumbing.ZeroHash, errors.GitError("rev-parse", path, err).WithContext("ref", ref)
		}
		return remoteRef.Hash(), nil
	default:
		hash, err := repo.ResolveRevision(plumbing.Revision(ref))
		if err != nil {
			return plumbing.ZeroHash, errors.GitError("rev-parse", path, err).WithContext("ref", ref)
		}
		return *hash, nil
	}
}

func commitObject(repo *git.Repository, path, ref string) (*object.Commit, error) {
	hash, err := resolve(repo, path, ref)
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, errors.GitError("cat-file", path, err).WithContext("ref", ref)
	}
	return commit, nil
}
