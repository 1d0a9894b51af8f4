package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"docsdiff/internal/security"
	"docsdiff/pkg/errors"
	"docsdiff/pkg/models"
)

// credentialRef marks a configuration value that names a keyring entry
const credentialRef = "@credential:"

// CredentialSource looks credentials up by name
type CredentialSource interface {
	GetCredential(name string) (*security.Credential, bool, error)
}

// ResolveCredentials fills the directory credentials of cfg from the
// keyring. Values of the form "@credential:<name>" must resolve. Otherwise,
// when no token and no password were configured, the stored login or token
// is used if present; keyring failures on that path are logged and ignored.
func ResolveCredentials(cfg *models.Config, source CredentialSource, logger zerolog.Logger) error {
	gh := &cfg.GitHub

	var err error
	if gh.Password, err = dereference(source, gh.Password, "github.password"); err != nil {
		return err
	}
	if gh.Token, err = dereference(source, gh.Token, "github.token"); err != nil {
		return err
	}

	if gh.Token != "" || gh.Password != "" {
		return nil
	}

	if login, ok, err := source.GetCredential(security.GitHubLogin); err != nil {
		logger.Debug().Err(err).Msg("keyring unavailable, continuing without stored login")
	} else if ok && (gh.Username == "" || gh.Username == login.Username()) {
		gh.Username = login.Username()
		gh.Password = login.Value
		logger.Debug().Str("username", gh.Username).Msg("using stored GitHub login")
		return nil
	}

	if token, ok, err := source.GetCredential(security.GitHubToken); err != nil {
		logger.Debug().Err(err).Msg("keyring unavailable, continuing without stored token")
	} else if ok {
		gh.Token = token.Value
		logger.Debug().Msg("using stored GitHub token")
	}
	return nil
}

func dereference(source CredentialSource, value, field string) (string, error) {
	if !strings.HasPrefix(value, credentialRef) {
		return value, nil
	}

	name := strings.TrimPrefix(value, credentialRef)
	cred, ok, err := source.GetCredential(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.ConfigError(fmt.Sprintf("credential %q is not stored", name), field).
			WithSuggestions("Run 'docsdiff auth login' to store it")
	}
	return cred.Value, nil
}
