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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/valpere/mdtrans/internal/filetask"
	"github.com/valpere/mdtrans/internal/glossary"
	"github.com/valpere/mdtrans/internal/pipeline"
)

var noProgress bool

var translateCmd = &cobra.Command{
	Use:   "translate [file ...]",
	Short: "Translate Markdown files without touching git",
	Long: `Translates files from the source directory into the target directory.

With no arguments every file with the configured extension under the source
directory is translated (the target directory is skipped when nested inside).
Arguments are paths relative to the source directory; paths escaping it are
rejected before any work starts.

Each output is written atomically as <stem><suffix><ext> under the same
relative directory. Empty files are skipped. The command exits non-zero when
no file succeeded.

Example:
  mdtrans translate --source-dir docs/zh --target-dir docs/en guide/intro.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings
		if err := env.RequireAPIKey(); err != nil {
			return err
		}

		db, err := openStore(s)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}

		glos := glossary.Load(s.Glossary, logger)
		engine := buildEngine(s, buildTranslator(s, env.APIKey, glos, db))

		tasks, err := engine.Resolve(s.SourceDir, s.TargetDir, args)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No Markdown files to translate.")
			return nil
		}

		if !noProgress {
			bar := progressbar.NewOptions(len(tasks),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan]translating[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
			engine.OnResult = func(filetask.Result) { _ = bar.Add(1) }
			defer func() {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stats, err := engine.Run(ctx, s.SourceDir, s.TargetDir, args)
		if err != nil {
			return err
		}
		printSummary(os.Stdout, stats)

		if stats.Success == 0 {
			return fmt.Errorf("%w: %d of %d files failed", pipeline.ErrAllFailed, stats.Failed, stats.Total())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().String("source-dir", "trees", "Source root with the documents to translate")
	translateCmd.Flags().String("target-dir", "trees_en", "Target root for translated documents")
	translateCmd.Flags().String("suffix", "_en", "Suffix inserted before the output file extension")
	translateCmd.Flags().String("glossary", "translate/glossary.json", "Glossary file (JSON or YAML)")
	translateCmd.Flags().Int("workers", 1, "Files translated concurrently")
	translateCmd.Flags().String("model", "", "Chat model (overrides api.model)")
	translateCmd.Flags().String("endpoint", "", "Chat-completions URL (overrides api.endpoint)")
	translateCmd.Flags().String("db", "", "SQLite database for translation memory (empty disables)")
	translateCmd.Flags().Bool("protect-code", false, "Replace code and link targets with [PHn] markers before sending")
	translateCmd.Flags().Bool("validate-language", false, "Check that each output is in the target language")
	translateCmd.Flags().Bool("strict-language", false, "Fail files whose output is not in the target language")
	translateCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
}
