package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"docsdiff/internal/common"
	"docsdiff/internal/git"
	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

const (
	// EnvPrefix prefixes every environment override, e.g. AWSDOCSDIFF_GITHUB_ORG
	EnvPrefix = "AWSDOCSDIFF"

	// EnvConfigFile names an explicit configuration file
	EnvConfigFile = "AWSDOCSDIFF_CONFIG"

	// LocalConfigFile is looked up in the working directory first
	LocalConfigFile = "docsdiff.yaml"
)

// GetConfigPath returns the per-user configuration directory
func GetConfigPath() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		return filepath.Dir(configFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".docsdiff")
}

// GetConfigFile returns the per-user configuration file
func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// ResolveConfigFile picks the file to read: an explicit path wins, then
// ./docsdiff.yaml, then the per-user file. It returns "" when none exists.
func ResolveConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range []string{LocalConfigFile, GetConfigFile()} {
		if Exists(candidate) {
			return candidate
		}
	}
	return ""
}

// SetDefaults registers a default for every configuration key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("content_root", "content")

	v.SetDefault("github.org", "awsdocs")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.username", "")
	v.SetDefault("github.password", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.excludes", []string{"-samples$"})
	v.SetDefault("github.per_page", 100)
	v.SetDefault("github.page_interval", 500*time.Millisecond)
	v.SetDefault("github.timeout", time.Duration(0))

	v.SetDefault("git.backend", git.BackendGoGit)
	v.SetDefault("git.binary", "git")

	v.SetDefault("archive.author_name", "docsdiff")
	v.SetDefault("archive.author_email", "docsdiff@localhost")

	v.SetDefault("sync.on_error", models.OnErrorAbort)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("tracing.file", "")
}

// BindEnv maps AWSDOCSDIFF_* variables onto configuration keys. The
// credential variables keep their historical names.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("github.username", EnvPrefix+"_GITHUB_USER"); err != nil {
		return err
	}
	return v.BindEnv("github.password", EnvPrefix+"_GITHUB_PASSWORD")
}

// New returns a viper instance with defaults, environment bindings and the
// resolved configuration file read in.
func New(explicitFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to bind environment")
	}

	configFile := ResolveConfigFile(explicitFile)
	if configFile == "" {
		return v, nil
	}

	cleaned, err := common.CleanPath(configFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid config file path").
			WithContext("path", configFile)
	}
	if !Exists(cleaned) {
		return nil, errors.New(errors.ErrCodeConfigNotFound, "configuration file not found").
			WithContext("path", cleaned).
			WithSuggestions("Run 'docsdiff config init' to create one")
	}

	v.SetConfigFile(cleaned)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithContext("path", cleaned)
	}
	return v, nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration, ignoring files and environment
func Default() *models.Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("built-in configuration is invalid: %v", err))
	}
	return cfg
}

// Validate checks every value that has a closed set of options
func Validate(cfg *models.Config) error {
	if strings.TrimSpace(cfg.ContentRoot) == "" {
		return errors.ConfigError("content root must not be empty", "content_root")
	}
	if strings.TrimSpace(cfg.GitHub.Org) == "" {
		return errors.ConfigError("organization must not be empty", "github.org")
	}
	if cfg.GitHub.PerPage < 0 || cfg.GitHub.PerPage > 100 {
		return errors.ConfigError(fmt.Sprintf("per_page must be between 0 and 100, got %d", cfg.GitHub.PerPage), "github.per_page")
	}
	if cfg.GitHub.PageInterval < 0 {
		return errors.ConfigError("page interval must not be negative", "github.page_interval")
	}
	for _, pattern := range cfg.GitHub.Excludes {
		if _, err := regexp.Compile(pattern); err != nil {
			return errors.ConfigError(fmt.Sprintf("invalid exclusion pattern %q: %v", pattern, err), "github.excludes")
		}
	}

	switch cfg.Git.Backend {
	case git.BackendGoGit, git.BackendExec:
	default:
		return errors.ConfigError(fmt.Sprintf("unknown git backend %q", cfg.Git.Backend), "git.backend")
	}

	switch cfg.Sync.OnError {
	case models.OnErrorAbort, models.OnErrorContinue:
	default:
		return errors.ConfigError(fmt.Sprintf("unknown failure policy %q", cfg.Sync.OnError), "sync.on_error")
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return errors.ConfigError(fmt.Sprintf("unknown log level %q", cfg.Log.Level), "log.level")
	}
	switch cfg.Log.Format {
	case "auto", "console", "json":
	default:
		return errors.ConfigError(fmt.Sprintf("unknown log format %q", cfg.Log.Format), "log.format")
	}

	if cfg.Archive.AuthorName == "" || cfg.Archive.AuthorEmail == "" {
		return errors.ConfigError("archive author name and email are required", "archive")
	}
	return nil
}

// Save writes cfg as YAML to path, creating its directory. The file may
// hold credentials and is written owner-only.
func Save(cfg *models.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create config directory").
			WithContext("path", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// Exists reports whether path names an existing file
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
