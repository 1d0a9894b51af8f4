package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	abs, err := CleanPath("content/docs")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = CleanPath("../outside")
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"docs-a", "docs-a"},
		{"org/docs-a", "org_docs-a"},
		{`a\b`, "a_b"},
		{"..", "_.."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeName(tt.in))
		})
	}
}

func TestLayout(t *testing.T) {
	assert.Equal(t, filepath.Join("content", "docs"), DocsRoot("content"))
	assert.Equal(t, filepath.Join("content", "diffs"), DiffsRoot("content"))
	assert.Equal(t, filepath.Join("content", "docs", "docs-a"), ClonePath(DocsRoot("content"), "docs-a"))
	assert.Equal(t, "docs-a.diff", DiffFileName("docs-a"))
}
