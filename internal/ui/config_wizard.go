package ui

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"docsdiff/internal/git"
	"docsdiff/pkg/models"
)

// AskFunc matches survey.Ask
type AskFunc func(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error

// Login methods offered by the login prompt
const (
	LoginPassword = "password"
	LoginToken    = "token"
)

// Login holds the answers of the login prompt
type Login struct {
	Method   string
	Username string
	Secret   string
}

// ConfigWizard provides interactive configuration and login prompts
type ConfigWizard struct {
	ask AskFunc
}

// NewConfigWizard creates a wizard that prompts on the terminal
func NewConfigWizard() *ConfigWizard {
	return &ConfigWizard{ask: survey.Ask}
}

type configAnswers struct {
	Org         string `survey:"org"`
	ContentRoot string `survey:"content_root"`
	Excludes    string `survey:"excludes"`
	Backend     string `survey:"backend"`
	OnError     string `survey:"on_error"`
}

// Run asks for the main settings, starting from base, and returns the
// edited copy
func (w *ConfigWizard) Run(base *models.Config) (*models.Config, error) {
	ShowHeader("docsdiff configuration")

	questions := []*survey.Question{
		{
			Name: "org",
			Prompt: &survey.Input{
				Message: "Organization:",
				Default: base.GitHub.Org,
				Help:    "The organization whose repositories are tracked",
			},
			Validate: survey.Required,
		},
		{
			Name: "content_root",
			Prompt: &survey.Input{
				Message: "Content directory:",
				Default: base.ContentRoot,
				Help:    "Holds docs/ with the clones and diffs/ with the archive",
			},
			Validate: survey.Required,
		},
		{
			Name: "excludes",
			Prompt: &survey.Input{
				Message: "Exclusion patterns:",
				Default: strings.Join(base.GitHub.Excludes, ","),
				Help:    "Comma separated regular expressions matched against name and full name",
			},
		},
		{
			Name: "backend",
			Prompt: &survey.Select{
				Message: "Git backend:",
				Options: []string{git.BackendGoGit, git.BackendExec},
				Default: base.Git.Backend,
			},
		},
		{
			Name: "on_error",
			Prompt: &survey.Select{
				Message: "When a repository fails:",
				Options: []string{models.OnErrorAbort, models.OnErrorContinue},
				Default: base.Sync.OnError,
			},
		},
	}

	var answers configAnswers
	if err := w.ask(questions, &answers); err != nil {
		return nil, cancelled(err)
	}

	cfg := *base
	cfg.GitHub.Org = strings.TrimSpace(answers.Org)
	cfg.ContentRoot = strings.TrimSpace(answers.ContentRoot)
	cfg.GitHub.Excludes = splitPatterns(answers.Excludes)
	cfg.Git.Backend = answers.Backend
	cfg.Sync.OnError = answers.OnError
	return &cfg, nil
}

type methodAnswer struct {
	Method string `survey:"method"`
}

type passwordAnswers struct {
	Username string `survey:"username"`
	Password string `survey:"password"`
}

type tokenAnswer struct {
	Token string `survey:"token"`
}

// Login asks how to authenticate against the directory API and for the
// matching secret
func (w *ConfigWizard) Login(defaultUser string) (*Login, error) {
	var method methodAnswer
	err := w.ask([]*survey.Question{{
		Name: "method",
		Prompt: &survey.Select{
			Message: "Authenticate with:",
			Options: []string{LoginPassword, LoginToken},
			Default: LoginPassword,
		},
	}}, &method)
	if err != nil {
		return nil, cancelled(err)
	}

	if method.Method == LoginToken {
		var answer tokenAnswer
		err := w.ask([]*survey.Question{{
			Name:     "token",
			Prompt:   &survey.Password{Message: "Access token:"},
			Validate: survey.Required,
		}}, &answer)
		if err != nil {
			return nil, cancelled(err)
		}
		return &Login{Method: LoginToken, Secret: answer.Token}, nil
	}

	var answers passwordAnswers
	err = w.ask([]*survey.Question{
		{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Username:", Default: defaultUser},
			Validate: survey.Required,
		},
		{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Password:", Help: "Stored in the system keyring"},
			Validate: survey.Required,
		},
	}, &answers)
	if err != nil {
		return nil, cancelled(err)
	}
	return &Login{Method: LoginPassword, Username: answers.Username, Secret: answers.Password}, nil
}

func cancelled(err error) error {
	if stderrors.Is(err, terminal.InterruptErr) {
		return fmt.Errorf("cancelled")
	}
	return err
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
