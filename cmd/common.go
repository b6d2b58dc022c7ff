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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/valpere/mdtrans/internal/config"
	"github.com/valpere/mdtrans/internal/filetask"
	"github.com/valpere/mdtrans/internal/glossary"
	"github.com/valpere/mdtrans/internal/orchestrator"
	"github.com/valpere/mdtrans/internal/store"
	"github.com/valpere/mdtrans/internal/translator"
	"github.com/valpere/mdtrans/internal/validator"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
)

// openStore opens the translation memory when cache.db is set. A nil store
// means caching and run history are off.
func openStore(s *config.Settings) (*store.Store, error) {
	if s.Cache.DB == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Cache.DB), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(s.Cache.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildTranslator assembles the client chain: chat service, optional code
// protection, circuit breaker, then translation memory outermost.
func buildTranslator(s *config.Settings, apiKey string, glos *glossary.Glossary, db *store.Store) translator.Translator {
	var instructions string
	if s.ProtectCode {
		instructions = translator.ProtectInstructions()
	}
	prompt := translator.BuildSystemPrompt(translator.PromptOptions{
		SourceLanguage: s.SourceLanguage,
		TargetLanguage: s.TargetLanguage,
		Glossary:       glos.Format(),
		Instructions:   instructions,
	})

	chat := translator.NewChatService(translator.ChatConfig{
		Endpoint:     s.API.Endpoint,
		APIKey:       apiKey,
		Model:        s.API.Model,
		Temperature:  s.API.Temperature,
		MaxTokens:    s.API.MaxTokens,
		Timeout:      s.API.Timeout,
		SystemPrompt: prompt,
		Retry: translator.RetryPolicy{
			Attempts: s.Retry.Attempts,
			Backoff:  translator.Backoff{Initial: s.Retry.Initial, Max: s.Retry.Max},
		},
	}, logger)

	var t translator.Translator = chat
	if s.ProtectCode {
		t = translator.NewProtecting(t)
	}
	if s.Breaker.Threshold > 0 {
		t = translator.NewBreaker(t, s.Breaker.Threshold, s.Breaker.Cooldown, logger)
	}
	if db != nil {
		t = translator.NewMemory(t, db, chat.Model(), chat.SystemPrompt(), logger)
	}
	return t
}

func buildEngine(s *config.Settings, t translator.Translator) *orchestrator.Orchestrator {
	var opts []filetask.Option
	if s.ValidateLanguage {
		v := validator.New(s.SourceLanguage, s.TargetLanguage, s.TargetLangCode)
		opts = append(opts, filetask.WithLanguageCheck(v, s.TargetLangCode, s.StrictLanguage))
	}
	unit := filetask.New(t, logger, opts...)

	return orchestrator.New(unit, orchestrator.Config{
		Suffix:    s.Suffix,
		Extension: s.Extension,
		Workers:   s.Workers,
	}, logger)
}

// printSummary writes the batch outcome with failure reasons.
func printSummary(w io.Writer, stats *orchestrator.Stats) {
	fmt.Fprintf(w, "\n%s %d files in %s\n", cyan("Batch:"), stats.Total(), stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  %s %d\n", green("✅ translated:"), stats.Success)
	if stats.Skipped > 0 {
		fmt.Fprintf(w, "  %s %d\n", yellow("⏭  skipped (empty):"), stats.Skipped)
	}
	fmt.Fprintf(w, "  %s %d\n", red("❌ failed:"), stats.Failed-stats.Skipped)

	for _, r := range stats.Results {
		if r.Status != filetask.StatusFailed {
			continue
		}
		reason := "unknown error"
		if r.Err != nil {
			reason = strings.SplitN(r.Err.Error(), "\n", 2)[0]
		}
		fmt.Fprintf(w, "     %s %s\n", red(r.Task.Rel+":"), reason)
	}
}
