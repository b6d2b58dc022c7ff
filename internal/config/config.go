// Package config holds the runtime settings of mdtrans.
//
// Settings come from viper (config file, MDTRANS_* environment, bound flags);
// credentials and CI identifiers come from the plain environment via envconfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type APISettings struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RetrySettings struct {
	Attempts int           `mapstructure:"attempts"`
	Initial  time.Duration `mapstructure:"initial"`
	Max      time.Duration `mapstructure:"max"`
}

type BreakerSettings struct {
	Threshold uint32        `mapstructure:"threshold"`
	Cooldown  time.Duration `mapstructure:"cooldown"`
}

type CacheSettings struct {
	DB string `mapstructure:"db"`
}

type GitSettings struct {
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	Remote      string `mapstructure:"remote"`
}

type PRSettings struct {
	Base      string   `mapstructure:"base"`
	Labels    []string `mapstructure:"labels"`
	Reviewers string   `mapstructure:"reviewers"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Settings struct {
	SourceDir string `mapstructure:"source_dir"`
	TargetDir string `mapstructure:"target_dir"`
	Suffix    string `mapstructure:"suffix"`
	Extension string `mapstructure:"extension"`
	Glossary  string `mapstructure:"glossary"`
	Workers   int    `mapstructure:"workers"`
	DryRun    bool   `mapstructure:"dry_run"`

	SourceLanguage string `mapstructure:"source_language"`
	TargetLanguage string `mapstructure:"target_language"`
	TargetLangCode string `mapstructure:"target_lang_code"`

	ProtectCode      bool `mapstructure:"protect_code"`
	ValidateLanguage bool `mapstructure:"validate_language"`
	StrictLanguage   bool `mapstructure:"strict_language"`

	API     APISettings     `mapstructure:"api"`
	Retry   RetrySettings   `mapstructure:"retry"`
	Breaker BreakerSettings `mapstructure:"breaker"`
	Cache   CacheSettings   `mapstructure:"cache"`
	Git     GitSettings     `mapstructure:"git"`
	PR      PRSettings      `mapstructure:"pr"`
	Log     LogSettings     `mapstructure:"log"`
}

// SetDefaults registers every key with its default so that viper's
// AutomaticEnv can resolve MDTRANS_* overrides for unset keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source_dir", "trees")
	v.SetDefault("target_dir", "trees_en")
	v.SetDefault("suffix", "_en")
	v.SetDefault("extension", ".md")
	v.SetDefault("glossary", "translate/glossary.json")
	v.SetDefault("workers", 1)
	v.SetDefault("dry_run", false)

	v.SetDefault("source_language", "Chinese")
	v.SetDefault("target_language", "English")
	v.SetDefault("target_lang_code", "en")

	v.SetDefault("protect_code", false)
	v.SetDefault("validate_language", false)
	v.SetDefault("strict_language", false)

	v.SetDefault("api.endpoint", "https://api.siliconflow.cn/v1/chat/completions")
	v.SetDefault("api.model", "Pro/deepseek-ai/DeepSeek-R1")
	v.SetDefault("api.temperature", 0.3)
	v.SetDefault("api.max_tokens", 4000)
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.initial", 4*time.Second)
	v.SetDefault("retry.max", 10*time.Second)

	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.cooldown", time.Minute)

	v.SetDefault("cache.db", "")

	v.SetDefault("git.author_name", "Translation Bot")
	v.SetDefault("git.author_email", "translation-bot@users.noreply.github.com")
	v.SetDefault("git.remote", "origin")

	v.SetDefault("pr.base", "main")
	v.SetDefault("pr.labels", []string{"translation", "needs-review"})
	v.SetDefault("pr.reviewers", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load decodes v into Settings and validates the result.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.SourceDir) == "" {
		return fmt.Errorf("source_dir is required")
	}
	if strings.TrimSpace(s.TargetDir) == "" {
		return fmt.Errorf("target_dir is required")
	}
	if s.Suffix == "" {
		return fmt.Errorf("suffix must not be empty")
	}
	if !strings.HasPrefix(s.Extension, ".") || len(s.Extension) < 2 {
		return fmt.Errorf("extension must start with a dot, got %q", s.Extension)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if strings.TrimSpace(s.API.Endpoint) == "" {
		return fmt.Errorf("api.endpoint is required")
	}
	if strings.TrimSpace(s.API.Model) == "" {
		return fmt.Errorf("api.model is required")
	}
	if s.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if s.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be >= 1")
	}
	if s.Retry.Initial < 0 || s.Retry.Max < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	if s.Retry.Max > 0 && s.Retry.Initial > s.Retry.Max {
		return fmt.Errorf("retry.initial (%s) cannot exceed retry.max (%s)", s.Retry.Initial, s.Retry.Max)
	}
	return nil
}

// ReviewersList splits the comma-separated reviewers setting, dropping
// blanks and duplicates.
func (s *Settings) ReviewersList() []string {
	if s == nil {
		return nil
	}

	parts := strings.Split(s.PR.Reviewers, ",")
	reviewers := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		r := strings.TrimSpace(part)
		if r == "" {
			continue
		}
		if _, exists := seen[r]; exists {
			continue
		}
		seen[r] = struct{}{}
		reviewers = append(reviewers, r)
	}
	return reviewers
}
