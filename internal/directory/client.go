// Package directory lists an organization's repositories from the GitHub
// REST API and filters them by exclusion pattern.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v48/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

// DefaultPageInterval is the pause between consecutive page requests
const DefaultPageInterval = 500 * time.Millisecond

// Credentials authenticate directory requests. Token wins over basic auth;
// with neither set requests are anonymous and get the lower rate limit.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Options configures a Client
type Options struct {
	BaseURL      string
	Credentials  Credentials
	Excludes     []*regexp.Regexp
	PerPage      int
	PageInterval time.Duration
	Timeout      time.Duration
	Logger       zerolog.Logger
}

// Client pages through an organization's repositories
type Client struct {
	gh       *github.Client
	excludes []*regexp.Regexp
	perPage  int
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewClient builds a directory client
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	httpClient := newHTTPClient(ctx, opts.Credentials)
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	gh := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid GitHub base URL: %v", err), "github.base_url")
		}
		gh.BaseURL = u
	}

	interval := opts.PageInterval
	if interval <= 0 {
		interval = DefaultPageInterval
	}

	return &Client{
		gh:       gh,
		excludes: opts.Excludes,
		perPage:  opts.PerPage,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   opts.Logger.With().Str("component", "directory").Logger(),
	}, nil
}

func newHTTPClient(ctx context.Context, creds Credentials) *http.Client {
	switch {
	case creds.Token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		return oauth2.NewClient(ctx, ts)
	case creds.Username != "":
		tp := &github.BasicAuthTransport{
			Username: creds.Username,
			Password: creds.Password,
		}
		return tp.Client()
	default:
		return &http.Client{}
	}
}

// ListRepositories fetches every page of org's repositories, following the
// rel="next" link of each response until it is absent, then drops excluded
// repositories. The result is sorted by name; a name listed twice keeps its
// last clone URL.
func (c *Client) ListRepositories(ctx context.Context, org string) ([]models.Repository, error) {
	opt := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: c.perPage},
	}

	var all []*github.Repository
	next := ""
	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var repos []*github.Repository
		var resp *github.Response
		var err error
		if page == 1 {
			repos, resp, err = c.gh.Repositories.ListByOrg(ctx, org, opt)
		} else {
			repos, resp, err = c.fetchPage(ctx, next)
		}
		if err != nil {
			return nil, listingError(err, org, page)
		}
		all = append(all, repos...)
		c.logger.Debug().Str("org", org).Int("page", page).Int("count", len(repos)).Msg("listed page")

		next = nextLink(resp.Header.Get("Link"))
		if next == "" {
			break
		}
	}

	byName := make(map[string]models.Repository, len(all))
	for _, repo := range all {
		if c.Excluded(repo.GetName(), repo.GetFullName()) {
			c.logger.Debug().Str("repo", repo.GetFullName()).Msg("excluded")
			continue
		}
		byName[repo.GetName()] = models.Repository{
			Name:     repo.GetName(),
			FullName: repo.GetFullName(),
			CloneURL: repo.GetCloneURL(),
		}
	}

	result := make([]models.Repository, 0, len(byName))
	for _, repo := range byName {
		result = append(result, repo)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	c.logger.Info().Str("org", org).Int("listed", len(all)).Int("tracked", len(result)).Msg("repositories listed")
	return result, nil
}

// Excluded reports whether any exclusion pattern matches the short or the
// full name
func (c *Client) Excluded(name, fullName string) bool {
	for _, re := range c.excludes {
		if re.MatchString(name) || re.MatchString(fullName) {
			return true
		}
	}
	return false
}

// CompileExcludes compiles exclusion patterns
func CompileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.ConfigError(fmt.Sprintf("invalid exclusion pattern %q: %v", p, err), "github.excludes")
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// fetchPage requests a page by the URL the previous response linked to
func (c *Client) fetchPage(ctx context.Context, link string) ([]*github.Repository, *github.Response, error) {
	req, err := c.gh.NewRequest(http.MethodGet, link, nil)
	if err != nil {
		return nil, nil, err
	}

	var repos []*github.Repository
	resp, err := c.gh.Do(ctx, req, &repos)
	if err != nil {
		return nil, resp, err
	}
	return repos, resp, nil
}

// nextLink returns the rel="next" target of an RFC 5988 Link header, or ""
func nextLink(header string) string {
	for _, link := range strings.Split(header, ",") {
		segments := strings.Split(strings.TrimSpace(link), ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}

func listingError(err error, org string, page int) error {
	code := errors.ErrCodeDirectoryListing
	var suggestions []string

	if ghErr, ok := err.(*github.ErrorResponse); ok && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			code = errors.ErrCodeAuthenticationFailed
			suggestions = append(suggestions, "Check AWSDOCSDIFF_GITHUB_USER and AWSDOCSDIFF_GITHUB_PASSWORD")
		case http.StatusNotFound:
			suggestions = append(suggestions, fmt.Sprintf("Verify the organization '%s' exists", org))
		}
	}
	if _, ok := err.(*github.RateLimitError); ok {
		suggestions = append(suggestions, "Authenticate to raise the API rate limit")
	}

	return errors.Wrap(err, code, fmt.Sprintf("failed to list repositories of %s", org)).
		WithContext("org", org).
		WithContext("page", page).
		WithSuggestions(suggestions...)
}
