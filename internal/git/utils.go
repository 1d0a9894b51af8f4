package git

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// IsSSHURL checks if a git URL is using SSH protocol
func IsSSHURL(gitURL string) bool {
	return strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://")
}

// IsHTTPSURL checks if a git URL is using HTTP(S) protocol
func IsHTTPSURL(gitURL string) bool {
	return strings.HasPrefix(gitURL, "https://") || strings.HasPrefix(gitURL, "http://")
}

// ValidateCloneURL performs basic validation on a clone URL from the directory
func ValidateCloneURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("clone URL cannot be empty")
	}

	if !IsSSHURL(gitURL) && !IsHTTPSURL(gitURL) && !strings.HasPrefix(gitURL, "file://") {
		if !filepath.IsAbs(gitURL) {
			return fmt.Errorf("invalid clone URL %q: must be SSH, HTTPS, file:// or an absolute local path", gitURL)
		}
	}

	return nil
}

// ShortHash abbreviates a commit id for logs and reports
func ShortHash(commit string) string {
	if len(commit) > 10 {
		return commit[:10]
	}
	return commit
}

// beforeArg formats a cutoff the way git's date parser accepts unambiguously
func beforeArg(cutoff time.Time) string {
	return cutoff.Format("2006-01-02T15:04:05-0700")
}
