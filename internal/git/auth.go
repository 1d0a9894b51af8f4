package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// BasicAuth returns HTTPS credentials for go-git, or nil when no username
// is set so that public remotes are cloned anonymously.
func BasicAuth(username, password string) transport.AuthMethod {
	if username == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: username,
		Password: password,
	}
}

// TokenAuth returns HTTPS credentials for a personal access token
func TokenAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}
}
