package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env carries credentials and CI identifiers. They are never read from the
// config file so that secrets stay out of committed YAML.
type Env struct {
	APIKey           string `envconfig:"API_KEY"`
	GitHubToken      string `envconfig:"GITHUB_TOKEN"`
	GitHubRepository string `envconfig:"GITHUB_REPOSITORY"`
	RunID            string `envconfig:"GITHUB_RUN_ID" default:"manual-run"`
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", path, err)
	}
	return true, nil
}

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) RequireAPIKey() error {
	if strings.TrimSpace(e.APIKey) == "" {
		return fmt.Errorf("missing API_KEY environment variable")
	}
	return nil
}

// RequirePublish checks the credentials needed to open a pull request.
func (e *Env) RequirePublish() error {
	if strings.TrimSpace(e.GitHubToken) == "" {
		return fmt.Errorf("missing GITHUB_TOKEN environment variable")
	}
	if _, _, err := e.Repository(); err != nil {
		return err
	}
	return nil
}

// Repository splits GITHUB_REPOSITORY ("owner/name").
func (e *Env) Repository() (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(e.GitHubRepository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("GITHUB_REPOSITORY must be owner/name, got %q", e.GitHubRepository)
	}
	return owner, name, nil
}
