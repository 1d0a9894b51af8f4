package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"docsdiff/internal/security"
	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

// isolate points HOME and the working directory at empty temp dirs
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigFile, "")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestGetConfigFile(t *testing.T) {
	home := isolate(t)
	assert.Equal(t, filepath.Join(home, ".docsdiff"), GetConfigPath())
	assert.Equal(t, filepath.Join(home, ".docsdiff", "config.yaml"), GetConfigFile())

	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigFile, explicit)
	assert.Equal(t, explicit, GetConfigFile())
}

func TestDefaults(t *testing.T) {
	isolate(t)

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "content", cfg.ContentRoot)
	assert.Equal(t, "awsdocs", cfg.GitHub.Org)
	assert.Equal(t, []string{"-samples$"}, cfg.GitHub.Excludes)
	assert.Equal(t, 100, cfg.GitHub.PerPage)
	assert.Equal(t, 500*time.Millisecond, cfg.GitHub.PageInterval)
	assert.Equal(t, "gogit", cfg.Git.Backend)
	assert.Equal(t, models.OnErrorAbort, cfg.Sync.OnError)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, cfg, Default())
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("AWSDOCSDIFF_GITHUB_USER", "octo")
	t.Setenv("AWSDOCSDIFF_GITHUB_PASSWORD", "hunter2")
	t.Setenv("AWSDOCSDIFF_GITHUB_ORG", "otherdocs")
	t.Setenv("AWSDOCSDIFF_SYNC_ON_ERROR", "continue")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "octo", cfg.GitHub.Username)
	assert.Equal(t, "hunter2", cfg.GitHub.Password)
	assert.Equal(t, "otherdocs", cfg.GitHub.Org)
	assert.Equal(t, models.OnErrorContinue, cfg.Sync.OnError)
}

func TestLocalFileWinsOverUserFile(t *testing.T) {
	isolate(t)

	user := Default()
	user.GitHub.Org = "from-home"
	require.NoError(t, Save(user, GetConfigFile()))
	assert.Equal(t, GetConfigFile(), ResolveConfigFile(""))

	local := Default()
	local.GitHub.Org = "from-cwd"
	require.NoError(t, Save(local, LocalConfigFile))
	assert.Equal(t, LocalConfigFile, ResolveConfigFile(""))

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-cwd", cfg.GitHub.Org)
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "docsdiff.yaml")

	cfg := Default()
	cfg.ContentRoot = "/srv/content"
	cfg.GitHub.Excludes = []string{"-samples$", "^archived-"}
	cfg.GitHub.PageInterval = 2 * time.Second
	cfg.Git.Backend = "exec"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	v, err := New(path)
	require.NoError(t, err)
	loaded, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestExplicitFileMissing(t *testing.T) {
	isolate(t)
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetErrorCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*models.Config)
		field  string
	}{
		{"empty org", func(c *models.Config) { c.GitHub.Org = "" }, "github.org"},
		{"empty content root", func(c *models.Config) { c.ContentRoot = " " }, "content_root"},
		{"bad pattern", func(c *models.Config) { c.GitHub.Excludes = []string{"("} }, "github.excludes"},
		{"per page too large", func(c *models.Config) { c.GitHub.PerPage = 101 }, "github.per_page"},
		{"negative interval", func(c *models.Config) { c.GitHub.PageInterval = -time.Second }, "github.page_interval"},
		{"unknown backend", func(c *models.Config) { c.Git.Backend = "libgit2" }, "git.backend"},
		{"unknown policy", func(c *models.Config) { c.Sync.OnError = "retry" }, "sync.on_error"},
		{"unknown level", func(c *models.Config) { c.Log.Level = "loud" }, "log.level"},
		{"unknown format", func(c *models.Config) { c.Log.Format = "xml" }, "log.format"},
	}

	assert.NoError(t, Validate(Default()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrCodeConfigInvalid, appErr.Code)
			assert.Equal(t, tt.field, appErr.Context["field"])
		})
	}
}

func TestResolveCredentials(t *testing.T) {
	keyring.MockInit()
	store := security.NewCredentialManager()
	logger := zerolog.Nop()

	t.Run("nothing stored", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, ResolveCredentials(cfg, store, logger))
		assert.Empty(t, cfg.GitHub.Username)
		assert.Empty(t, cfg.GitHub.Password)
	})

	require.NoError(t, store.StoreGitHubLogin("octo", "hunter2"))

	t.Run("stored login fills the gap", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, ResolveCredentials(cfg, store, logger))
		assert.Equal(t, "octo", cfg.GitHub.Username)
		assert.Equal(t, "hunter2", cfg.GitHub.Password)
	})

	t.Run("environment wins", func(t *testing.T) {
		cfg := Default()
		cfg.GitHub.Username = "env-user"
		cfg.GitHub.Password = "env-pass"
		require.NoError(t, ResolveCredentials(cfg, store, logger))
		assert.Equal(t, "env-user", cfg.GitHub.Username)
		assert.Equal(t, "env-pass", cfg.GitHub.Password)
	})

	t.Run("stored login for another user is ignored", func(t *testing.T) {
		cfg := Default()
		cfg.GitHub.Username = "someone-else"
		require.NoError(t, ResolveCredentials(cfg, store, logger))
		assert.Empty(t, cfg.GitHub.Password)
	})

	t.Run("credential reference", func(t *testing.T) {
		require.NoError(t, store.StoreCredential("ci-token", security.TypeToken, "ghp_ci", nil))
		cfg := Default()
		cfg.GitHub.Token = "@credential:ci-token"
		require.NoError(t, ResolveCredentials(cfg, store, logger))
		assert.Equal(t, "ghp_ci", cfg.GitHub.Token)
	})

	t.Run("dangling reference", func(t *testing.T) {
		cfg := Default()
		cfg.GitHub.Password = "@credential:nope"
		err := ResolveCredentials(cfg, store, logger)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetErrorCode(err))
	})
}
