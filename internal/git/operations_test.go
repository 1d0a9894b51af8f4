package git

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsdiff/pkg/errors"
)

func TestGoGitCloneAndRevListBefore(t *testing.T) {
	ctx := context.Background()
	remoteDir, remote := createRemote(t)
	c1 := commitAt(t, remote, remoteDir, "index.md", "# Docs\n", day(5))
	c2 := commitAt(t, remote, remoteDir, "index.md", "# Docs\n\nMore.\n", day(12))

	clonePath := filepath.Join(t.TempDir(), "docs", "docs-a")
	adapter := testAdapter()
	require.NoError(t, adapter.Clone(ctx, remoteDir, clonePath))

	commit, err := adapter.RevListBefore(ctx, clonePath, HeadRef, day(10))
	require.NoError(t, err)
	assert.Equal(t, c1.String(), commit)

	commit, err = adapter.RevListBefore(ctx, clonePath, HeadRef, day(12))
	require.NoError(t, err)
	assert.Equal(t, c2.String(), commit, "a commit exactly at the cutoff qualifies")

	commit, err = adapter.RevListBefore(ctx, clonePath, FetchHeadRef, day(20))
	require.NoError(t, err)
	assert.Equal(t, c2.String(), commit)

	commit, err = adapter.RevListBefore(ctx, clonePath, HeadRef, day(1))
	require.NoError(t, err)
	assert.Empty(t, commit)
}

func TestGoGitRevListBeforeIsMonotonic(t *testing.T) {
	ctx := context.Background()
	remoteDir, remote := createRemote(t)
	for d := 2; d <= 20; d += 3 {
		commitAt(t, remote, remoteDir, "page.md", time.Duration(d).String(), day(d))
	}

	clonePath := filepath.Join(t.TempDir(), "clone")
	adapter := testAdapter()
	require.NoError(t, adapter.Clone(ctx, remoteDir, clonePath))

	repo, err := git.PlainOpen(clonePath)
	require.NoError(t, err)

	var previous time.Time
	for d := 2; d <= 25; d++ {
		commit, err := adapter.RevListBefore(ctx, clonePath, HeadRef, day(d))
		require.NoError(t, err)
		require.NotEmpty(t, commit)

		obj, err := repo.CommitObject(plumbing.NewHash(commit))
		require.NoError(t, err)
		when := obj.Committer.When
		assert.False(t, when.After(day(d)), "resolved commit must not postdate the cutoff")
		assert.False(t, when.Before(previous), "later cutoffs never resolve to older commits")
		previous = when
	}
}

func TestGoGitFetchCheckoutAndDiff(t *testing.T) {
	ctx := context.Background()
	remoteDir, remote := createRemote(t)
	c1 := commitAt(t, remote, remoteDir, "guide.md", "line 1\nline 2\nline 3\n", day(5))

	clonePath := filepath.Join(t.TempDir(), "clone")
	adapter := testAdapter()
	require.NoError(t, adapter.Clone(ctx, remoteDir, clonePath))
	require.NoError(t, adapter.Checkout(ctx, clonePath, c1.String()))

	c2 := commitAt(t, remote, remoteDir, "guide.md", "line 1\nline 2 changed\nline 3\n", day(8))
	require.NoError(t, adapter.Fetch(ctx, clonePath, remoteDir))

	fetchHead, err := adapter.RevListBefore(ctx, clonePath, FetchHeadRef, day(10))
	require.NoError(t, err)
	assert.Equal(t, c2.String(), fetchHead)

	head, err := adapter.RevListBefore(ctx, clonePath, HeadRef, day(10))
	require.NoError(t, err)
	assert.Equal(t, c1.String(), head)

	diff, err := adapter.Diff(ctx, clonePath, head, fetchHead, DiffContextLines)
	require.NoError(t, err)
	assert.Contains(t, diff, "diff --git a/guide.md b/guide.md")
	assert.Contains(t, diff, "-line 2\n")
	assert.Contains(t, diff, "+line 2 changed\n")
	assert.Contains(t, diff, " line 3\n")

	// fetching again with nothing new is not an error
	require.NoError(t, adapter.Fetch(ctx, clonePath, remoteDir))

	require.NoError(t, adapter.Checkout(ctx, clonePath, fetchHead))
	repo, err := git.PlainOpen(clonePath)
	require.NoError(t, err)
	ref, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.HEAD, ref.Name(), "checkout leaves HEAD detached")
	assert.Equal(t, c2, ref.Hash())
}

func TestGoGitFetchRequiresSingleBranch(t *testing.T) {
	ctx := context.Background()
	remoteDir, remote := createRemote(t)
	commitAt(t, remote, remoteDir, "a.md", "a", day(3))

	clonePath := filepath.Join(t.TempDir(), "clone")
	adapter := testAdapter()
	require.NoError(t, adapter.Clone(ctx, remoteDir, clonePath))

	repo, err := git.PlainOpen(clonePath)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("extra"), head.Hash())))

	err = adapter.Fetch(ctx, clonePath, remoteDir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidState, errors.GetErrorCode(err))
}

func TestGoGitOpenFailure(t *testing.T) {
	_, err := testAdapter().RevListBefore(context.Background(), "/non/existent/path", HeadRef, day(1))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGit, errors.GetErrorCode(err))
}

func TestNewAdapter(t *testing.T) {
	adapter, err := NewAdapter(AdapterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &GoGitAdapter{}, adapter)

	adapter, err = NewAdapter(AdapterOptions{Backend: BackendExec})
	require.NoError(t, err)
	assert.IsType(t, &ExecAdapter{}, adapter)

	_, err = NewAdapter(AdapterOptions{Backend: "svn"})
	assert.Error(t, err)
}
