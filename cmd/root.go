/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/mdtrans/internal/config"
	"github.com/valpere/mdtrans/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string
	envFile string

	v = viper.New()

	settings *config.Settings
	env      *config.Env
	logger   zerolog.Logger
)

// flagKeys maps command-line flags to configuration keys. Only flags of the
// command being executed are bound.
var flagKeys = map[string]string{
	"log-level":         "log.level",
	"log-format":        "log.format",
	"source-dir":        "source_dir",
	"target-dir":        "target_dir",
	"suffix":            "suffix",
	"glossary":          "glossary",
	"workers":           "workers",
	"dry-run":           "dry_run",
	"pr-reviewers":      "pr.reviewers",
	"pr-base":           "pr.base",
	"model":             "api.model",
	"endpoint":          "api.endpoint",
	"protect-code":      "protect_code",
	"validate-language": "validate_language",
	"strict-language":   "strict_language",
	"db":                "cache.db",
}

var rootCmd = &cobra.Command{
	Use:   "mdtrans",
	Short: "Batch Markdown translation bot",
	Long: `Translates a tree of Markdown documents through an OpenAI-compatible
chat-completions endpoint, mirroring it into a target tree with language-suffixed
file names, and publishes the result as a GitHub pull request.

Configuration is read from .mdtrans.yaml (current directory or home), MDTRANS_*
environment variables and flags. Credentials come from API_KEY, GITHUB_TOKEN,
GITHUB_REPOSITORY and GITHUB_RUN_ID, optionally loaded from a .env file.

Use "mdtrans run --help" for the full bot cycle.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if settings != nil {
			logger.Error().Err(err).Msg("command failed")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is .mdtrans.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with credentials (ignored when missing)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
}

// setup loads .env, the config file, the environment and the bound flags,
// then builds the logger.
func setup(cmd *cobra.Command) error {
	if _, err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	config.SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".mdtrans")
	}
	v.SetEnvPrefix("MDTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	s, err := config.Load(v)
	if err != nil {
		return err
	}

	l, err := logging.New(s.Log.Format, s.Log.Level)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		l.Debug().Str("file", used).Msg("using config file")
	}

	e, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	settings, env, logger = s, e, l
	return nil
}
