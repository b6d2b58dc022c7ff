package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(newViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.SourceDir != "trees" || s.TargetDir != "trees_en" {
		t.Errorf("unexpected dirs: %q -> %q", s.SourceDir, s.TargetDir)
	}
	if s.Suffix != "_en" || s.Extension != ".md" {
		t.Errorf("unexpected naming: suffix=%q ext=%q", s.Suffix, s.Extension)
	}
	if s.API.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", s.API.Timeout)
	}
	if s.API.MaxTokens != 4000 {
		t.Errorf("expected max_tokens=4000, got %d", s.API.MaxTokens)
	}
	if s.Retry.Attempts != 3 || s.Retry.Initial != 4*time.Second || s.Retry.Max != 10*time.Second {
		t.Errorf("unexpected retry settings: %+v", s.Retry)
	}
	if s.Breaker.Threshold != 5 {
		t.Errorf("expected breaker threshold 5, got %d", s.Breaker.Threshold)
	}
	if !reflect.DeepEqual(s.PR.Labels, []string{"translation", "needs-review"}) {
		t.Errorf("unexpected labels: %v", s.PR.Labels)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdtrans.yaml")
	content := "source_dir: docs\nworkers: 4\napi:\n  timeout: 5s\nretry:\n  initial: 1s\n  max: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	s, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SourceDir != "docs" {
		t.Errorf("expected source_dir=docs, got %q", s.SourceDir)
	}
	if s.Workers != 4 {
		t.Errorf("expected workers=4, got %d", s.Workers)
	}
	if s.API.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", s.API.Timeout)
	}
	if s.TargetDir != "trees_en" {
		t.Errorf("expected default target_dir, got %q", s.TargetDir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero workers", "workers", 0},
		{"empty suffix", "suffix", ""},
		{"extension without dot", "extension", "md"},
		{"zero attempts", "retry.attempts", 0},
		{"initial above max", "retry.initial", 20 * time.Second},
		{"empty endpoint", "api.endpoint", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			if _, err := Load(v); err == nil {
				t.Errorf("expected validation error for %s=%v", tt.key, tt.val)
			}
		})
	}
}

func TestReviewersList(t *testing.T) {
	s := &Settings{PR: PRSettings{Reviewers: " alice, ,bob,alice ,"}}
	got := s.ReviewersList()
	want := []string{"alice", "bob"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReviewersList() = %v, want %v", got, want)
	}
}

func TestEnv_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("GITHUB_RUN_ID", "")
	os.Unsetenv("GITHUB_RUN_ID")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.APIKey != "secret" {
		t.Errorf("expected API key from env, got %q", env.APIKey)
	}
	if env.RunID != "manual-run" {
		t.Errorf("expected default run id, got %q", env.RunID)
	}
	if err := env.RequireAPIKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnv_RequirePublish(t *testing.T) {
	tests := []struct {
		name    string
		env     Env
		wantErr bool
	}{
		{"complete", Env{GitHubToken: "t", GitHubRepository: "owner/repo"}, false},
		{"missing token", Env{GitHubRepository: "owner/repo"}, true},
		{"missing repository", Env{GitHubToken: "t"}, true},
		{"malformed repository", Env{GitHubToken: "t", GitHubRepository: "owner/repo/extra"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.env.RequirePublish()
			if (err != nil) != tt.wantErr {
				t.Errorf("RequirePublish() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnv_RequireAPIKey_Missing(t *testing.T) {
	env := &Env{}
	if err := env.RequireAPIKey(); err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"))
	if err != nil || loaded {
		t.Errorf("missing file: loaded=%v err=%v", loaded, err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MDTRANS_TEST_VAR=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MDTRANS_TEST_VAR", "")
	os.Unsetenv("MDTRANS_TEST_VAR")

	loaded, err = LoadDotEnv(path)
	if err != nil || !loaded {
		t.Fatalf("expected file to load: loaded=%v err=%v", loaded, err)
	}
	if got := os.Getenv("MDTRANS_TEST_VAR"); got != "from-file" {
		t.Errorf("expected variable from .env, got %q", got)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MDTRANS_KEEP=file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MDTRANS_KEEP", "process")

	if _, err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("MDTRANS_KEEP"); got != "process" {
		t.Errorf("expected existing variable to win, got %q", got)
	}
}
