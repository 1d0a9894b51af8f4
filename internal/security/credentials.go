package security

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"

	"docsdiff/pkg/errors"
)

const (
	// Keyring service name
	keyringService = "docsdiff"

	// GitHubLogin holds the basic auth password, with the user name in its metadata
	GitHubLogin = "github"
	// GitHubToken holds a personal access token
	GitHubToken = "github-token"

	TypePassword = "password"
	TypeToken    = "token"

	metadataUsername = "username"
)

// CredentialManager stores credentials in the operating system keyring
type CredentialManager struct {
	service string
}

// Credential represents a stored credential
type Credential struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     string            `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Username returns the user name recorded with a password credential
func (c *Credential) Username() string {
	return c.Metadata[metadataUsername]
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: keyringService}
}

// StoreCredential stores a credential, replacing any previous value
func (cm *CredentialManager) StoreCredential(name, credType, value string, metadata map[string]string) error {
	cred := Credential{
		Name:      name,
		Type:      credType,
		Value:     value,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal credential")
	}

	if err := keyring.Set(cm.service, name, string(data)); err != nil {
		return errors.Wrap(err, errors.ErrCodeCredentialStore, "failed to store in keyring").
			WithContext("name", name).
			WithSuggestions("Set AWSDOCSDIFF_GITHUB_USER and AWSDOCSDIFF_GITHUB_PASSWORD instead")
	}
	return nil
}

// GetCredential retrieves a stored credential. The second result is false
// when nothing is stored under name.
func (cm *CredentialManager) GetCredential(name string) (*Credential, bool, error) {
	data, err := keyring.Get(cm.service, name)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCredentialStore, "failed to get from keyring").
			WithContext("name", name)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCredentialStore,
			fmt.Sprintf("stored credential %q is corrupt", name))
	}
	return &cred, true, nil
}

// DeleteCredential removes a stored credential; a missing one is not an error
func (cm *CredentialManager) DeleteCredential(name string) error {
	err := keyring.Delete(cm.service, name)
	if err == nil || stderrors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return errors.Wrap(err, errors.ErrCodeCredentialStore, "failed to delete from keyring").
		WithContext("name", name)
}

// StoreGitHubLogin stores a user name and password for the directory API
func (cm *CredentialManager) StoreGitHubLogin(username, password string) error {
	return cm.StoreCredential(GitHubLogin, TypePassword, password, map[string]string{
		metadataUsername: username,
	})
}

// StoreGitHubToken stores an access token for the directory API
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	return cm.StoreCredential(GitHubToken, TypeToken, token, nil)
}

// DeleteGitHub removes every stored GitHub credential
func (cm *CredentialManager) DeleteGitHub() error {
	if err := cm.DeleteCredential(GitHubLogin); err != nil {
		return err
	}
	return cm.DeleteCredential(GitHubToken)
}
