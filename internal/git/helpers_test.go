package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

// createRemote initializes a repository that plays the part of the origin
func createRemote(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir, repo
}

// commitAt writes file and commits it with author and committer time when
func commitAt(t *testing.T, repo *git.Repository, dir, file, content string, when time.Time) plumbing.Hash {
	t.Helper()
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, file)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
	_, err = worktree.Add(file)
	require.NoError(t, err)

	hash, err := worktree.Commit("update "+file, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Docs Writer",
			Email: "writer@example.com",
			When:  when,
		},
	})
	require.NoError(t, err)
	return hash
}

func testAdapter() *GoGitAdapter {
	return NewGoGitAdapter(nil, zerolog.Nop())
}
