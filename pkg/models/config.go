package models

import "time"

// Config is the full docsdiff configuration
type Config struct {
	ContentRoot string  `yaml:"content_root" mapstructure:"content_root"`
	GitHub      GitHub  `yaml:"github" mapstructure:"github"`
	Git         Git     `yaml:"git" mapstructure:"git"`
	Archive     Archive `yaml:"archive" mapstructure:"archive"`
	Sync        Sync    `yaml:"sync" mapstructure:"sync"`
	Log         Log     `yaml:"log" mapstructure:"log"`
	Metrics     Metrics `yaml:"metrics" mapstructure:"metrics"`
	Tracing     Tracing `yaml:"tracing" mapstructure:"tracing"`
}

// GitHub configures the repository directory listing
type GitHub struct {
	Org          string        `yaml:"org" mapstructure:"org"`
	BaseURL      string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Username     string        `yaml:"username,omitempty" mapstructure:"username"`
	Password     string        `yaml:"password,omitempty" mapstructure:"password"`
	Token        string        `yaml:"token,omitempty" mapstructure:"token"`
	Excludes     []string      `yaml:"excludes" mapstructure:"excludes"`
	PerPage      int           `yaml:"per_page" mapstructure:"per_page"`
	PageInterval time.Duration `yaml:"page_interval" mapstructure:"page_interval"`
	Timeout      time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Git selects the version-control backend used for local clones
type Git struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // "gogit" or "exec"
	Binary  string `yaml:"binary,omitempty" mapstructure:"binary"`
}

// Archive configures the diff archive commit signature
type Archive struct {
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

// Failure policies for sync.on_error
const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

// Sync holds pass-level policy
type Sync struct {
	OnError string `yaml:"on_error" mapstructure:"on_error"` // "abort" or "continue"
}

// Log configures the zerolog logger
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "auto", "console" or "json"
}

// Metrics configures the Prometheus textfile output
type Metrics struct {
	Textfile string `yaml:"textfile,omitempty" mapstructure:"textfile"`
}

// Tracing configures span export; spans are appended as JSON to File
type Tracing struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// Redacted returns a copy safe for printing
func (c Config) Redacted() Config {
	out := c
	out.GitHub.Excludes = append([]string(nil), c.GitHub.Excludes...)
	if out.GitHub.Password != "" {
		out.GitHub.Password = "********"
	}
	if out.GitHub.Token != "" {
		out.GitHub.Token = "********"
	}
	return out
}
