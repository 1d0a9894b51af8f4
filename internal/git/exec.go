package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docsdiff/internal/common"
	"docsdiff/pkg/errors"
)

// ExecAdapter implements Adapter by running the git binary. Each call is a
// separate synchronous process; a non-zero exit becomes an error carrying
// the tool's stderr.
type ExecAdapter struct {
	binary string
	logger zerolog.Logger
}

// NewExecAdapter creates an adapter for the given git binary ("git" if empty)
func NewExecAdapter(binary string, logger zerolog.Logger) *ExecAdapter {
	if binary == "" {
		binary = "git"
	}
	return &ExecAdapter{
		binary: binary,
		logger: logger.With().Str("backend", BackendExec).Logger(),
	}
}

// Clone runs git clone
func (a *ExecAdapter) Clone(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create clone directory").
			WithContext("path", path)
	}

	if _, err := a.run(ctx, "", "clone", "--quiet", url, path); err != nil {
		return errors.GitError("clone", path, err).WithContext("url", url)
	}
	return nil
}

// Fetch fetches the clone's default branch from url into FETCH_HEAD
func (a *ExecAdapter) Fetch(ctx context.Context, path, url string) error {
	branch, err := a.trackedBranch(ctx, path)
	if err != nil {
		return err
	}

	if _, err := a.run(ctx, path, "fetch", "--quiet", "--no-tags", url, branch); err != nil {
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
func (a *ExecAdapter) Checkout(ctx context.Context, path, commit string) error {
	_, err := a.run(ctx, path, "-c", "advice.detachedHead=false", "checkout", "--quiet", "--detach", commit)
	if err != nil {
		return errors.GitError("checkout", path, err).WithContext("commit", commit)
	}
	return nil
}

// RevListBefore runs git rev-list -1 --before
func (a *ExecAdapter) RevListBefore(ctx context.Context, path, ref string, cutoff time.Time) (string, error) {
	out, err := a.run(ctx, path, "rev-list", "-1", "--before="+beforeArg(cutoff), ref, "--")
	if err != nil {
		return "", errors.GitError("rev-list", path, err).WithContext("ref", ref)
	}
	return strings.TrimSpace(out), nil
}

// Diff runs git diff with the requested context width
func (a *ExecAdapter) Diff(ctx context.Context, path, from, to string, contextLines int) (string, error) {
	out, err := a.run(ctx, path, "diff", "--no-color", "--no-ext-diff",
		fmt.Sprintf("--unified=%d", contextLines), from, to, "--")
	if err != nil {
		return "", errors.GitError("diff", path, err).
			WithContext("from", from).
			WithContext("to", to)
	}
	return out, nil
}

func (a *ExecAdapter) trackedBranch(ctx context.Context, path string) (string, error) {
	out, err := a.run(ctx, path, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return "", errors.GitError("for-each-ref", path, err)
	}

	branches := strings.Fields(out)
	if len(branches) != 1 {
		return "", errors.New(errors.ErrCodeInvalidState,
			fmt.Sprintf("expected exactly one local branch, found %d", len(branches))).
			WithContext("path", path).
			WithContext("branches", branches)
	}
	return branches[0], nil
}

// run executes git, with -C dir when dir is set, and returns stdout
func (a *ExecAdapter) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}

	a.logger.Debug().Strs("args", args).Msg("running git")

	cmd := exec.CommandContext(ctx, a.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %s: %w", a.binary, strings.Join(args, " "),
			strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}
