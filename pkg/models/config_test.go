package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	config := Config{
		ContentRoot: "content",
		GitHub: GitHub{
			Org:          "awsdocs",
			Excludes:     []string{`-samples$`},
			PerPage:      100,
			PageInterval: 500 * time.Millisecond,
		},
		Git:     Git{Backend: "gogit"},
		Archive: Archive{AuthorName: "docsdiff", AuthorEmail: "docsdiff@localhost"},
		Sync:    Sync{OnError: "abort"},
	}

	data, err := yaml.Marshal(&config)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "content_root: content")
	assert.NotContains(t, string(data), "password")

	var decoded Config
	assert.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, config.GitHub.Org, decoded.GitHub.Org)
	assert.Equal(t, config.GitHub.Excludes, decoded.GitHub.Excludes)
	assert.Equal(t, config.GitHub.PageInterval, decoded.GitHub.PageInterval)
}

func TestRedacted(t *testing.T) {
	config := Config{GitHub: GitHub{
		Username: "octo",
		Password: "hunter2",
		Token:    "ghp_secret",
		Excludes: []string{"a"},
	}}

	redacted := config.Redacted()
	assert.Equal(t, "octo", redacted.GitHub.Username)
	assert.Equal(t, "********", redacted.GitHub.Password)
	assert.Equal(t, "********", redacted.GitHub.Token)

	// the source config is untouched
	redacted.GitHub.Excludes[0] = "b"
	assert.Equal(t, "hunter2", config.GitHub.Password)
	assert.Equal(t, "a", config.GitHub.Excludes[0])

	assert.Empty(t, Config{}.Redacted().GitHub.Password)
}

func TestResolvedPairUpdated(t *testing.T) {
	assert.False(t, ResolvedPair{Head: "c1", FetchHead: "c1"}.Updated())
	assert.True(t, ResolvedPair{Head: "c1", FetchHead: "c2"}.Updated())
}

func TestPassReportSummaries(t *testing.T) {
	report := &PassReport{Results: []RepoResult{
		{Name: "docs-a", DiffBytes: 120},
		{Name: "docs-b"},
		{Name: "docs-c", Err: errors.New("fetch failed")},
	}}

	failures := report.Failures()
	assert.Len(t, failures, 1)
	assert.Equal(t, "docs-c", failures[0].Name)
	assert.Equal(t, 1, report.Changed())
}

func TestRepoResultOutcome(t *testing.T) {
	assert.Equal(t, OutcomeCloned, RepoResult{Cloned: true, Pair: ResolvedPair{Head: "c1", FetchHead: "c1"}}.Outcome())
	assert.Equal(t, OutcomeUpdated, RepoResult{Pair: ResolvedPair{Head: "c1", FetchHead: "c2"}}.Outcome())
	assert.Equal(t, OutcomeUnchanged, RepoResult{Pair: ResolvedPair{Head: "c1", FetchHead: "c1"}}.Outcome())
	assert.Equal(t, OutcomeFailed, RepoResult{Cloned: true, Err: errors.New("clone failed")}.Outcome())
}
