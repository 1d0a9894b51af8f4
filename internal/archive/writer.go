// Package archive maintains the diff archive: a git repository holding one
// <repo>.diff file per tracked repository and one commit per sync pass.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"docsdiff/internal/common"
	"docsdiff/pkg/errors"
)

// Signature identifies the author of archive commits
type Signature struct {
	Name  string
	Email string
}

// Writer owns every mutation of the diff archive
type Writer struct {
	root      string
	signature Signature
	logger    zerolog.Logger
	repo      *git.Repository
}

// NewWriter creates a writer for the archive rooted at root. The archive is
// not touched until the first Write.
func NewWriter(root string, signature Signature, logger zerolog.Logger) *Writer {
	return &Writer{
		root:      root,
		signature: signature,
		logger:    logger.With().Str("component", "archive").Logger(),
	}
}

// Root returns the archive directory
func (w *Writer) Root() string {
	return w.root
}

// Write stores diff as <repoName>.diff and stamps the file with ts
func (w *Writer) Write(repoName, diff string, ts time.Time) error {
	if _, err := w.open(); err != nil {
		return err
	}

	path := filepath.Join(w.root, common.DiffFileName(repoName))
	if err := os.WriteFile(path, []byte(diff), common.FilePermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to write diff file").
			WithContext("path", path)
	}
	if err := os.Chtimes(path, ts, ts); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to set diff file time").
			WithContext("path", path)
	}

	w.logger.Debug().Str("repo", repoName).Int("bytes", len(diff)).Msg("diff written")
	return nil
}

// CommitAll stages every change and commits it dated ts. When the staged
// tree matches the previous commit nothing is committed and committed is
// false.
func (w *Writer) CommitAll(ts time.Time) (committed bool, hash string, err error) {
	repo, err := w.open()
	if err != nil {
		return false, "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to open archive worktree")
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to stage archive changes")
	}

	status, err := worktree.Status()
	if err != nil {
		return false, "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to read archive status")
	}
	if status.IsClean() {
		w.logger.Info().Msg("nothing to commit")
		return false, "", nil
	}

	signature := &object.Signature{
		Name:  w.signature.Name,
		Email: w.signature.Email,
		When:  ts,
	}
	commit, err := worktree.Commit(FormatTimestamp(ts), &git.CommitOptions{
		All:       true,
		Author:    signature,
		Committer: signature,
	})
	if err != nil {
		return false, "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to commit archive").
			WithContext("timestamp", ts)
	}

	w.logger.Info().Str("commit", commit.String()).Int("files", len(status)).Msg("archive committed")
	return true, commit.String(), nil
}

// open returns the archive repository, initializing it on first use
func (w *Writer) open() (*git.Repository, error) {
	if w.repo != nil {
		return w.repo, nil
	}

	repo, err := git.PlainOpen(w.root)
	if err == git.ErrRepositoryNotExists {
		if err := os.MkdirAll(w.root, common.DirPermissionNormal); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create archive directory").
				WithContext("path", w.root)
		}
		repo, err = git.PlainInit(w.root, false)
		if err == nil {
			w.logger.Info().Str("path", w.root).Msg("initialized diff archive")
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArchiveFailed, fmt.Sprintf("failed to open diff archive %s", w.root))
	}

	w.repo = repo
	return repo, nil
}

// FormatTimestamp renders a pass timestamp as used in commit messages
func FormatTimestamp(ts time.Time) string {
	return ts.Format(time.RFC3339)
}
