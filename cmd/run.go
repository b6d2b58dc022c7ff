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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	"github.com/valpere/mdtrans/internal/glossary"
	"github.com/valpere/mdtrans/internal/pipeline"
	"github.com/valpere/mdtrans/internal/publish"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Translate changed Markdown files and open a pull request",
	Long: `Runs one bot cycle:

  1. list Markdown files under the source directory that are modified or
     untracked in the git working tree
  2. translate them into the target directory (<stem><suffix><ext>)
  3. commit everything, force-push branch translation-<run id> and open a
     pull request labelled translation/needs-review

The run fails without committing when every file fails. With --dry-run the
translation happens but nothing is committed or pushed, and a source directory
outside any git repository only yields a warning.

Requires API_KEY, and GITHUB_TOKEN plus GITHUB_REPOSITORY (owner/name) unless
--dry-run is set. GITHUB_RUN_ID names the run (default "manual-run").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings
		if err := env.RequireAPIKey(); err != nil {
			return err
		}
		if !s.DryRun {
			if err := env.RequirePublish(); err != nil {
				return err
			}
		}

		changes, repo, err := openChanges(s.SourceDir, s.DryRun)
		if err != nil {
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

		var pub pipeline.Publisher
		if !s.DryRun {
			owner, name, err := env.Repository()
			if err != nil {
				return err
			}
			gh := publish.NewGitHub(env.GitHubToken, owner, name, logger)
			pub = publish.NewPublisher(repo, gh, publish.Config{
				Remote:      s.Git.Remote,
				Base:        s.PR.Base,
				Labels:      s.PR.Labels,
				Reviewers:   s.ReviewersList(),
				AuthorName:  s.Git.AuthorName,
				AuthorEmail: s.Git.AuthorEmail,
				Token:       env.GitHubToken,
			}, logger)
		}

		var opts []pipeline.Option
		if db != nil {
			opts = append(opts, pipeline.WithRecorder(db))
		}

		p := pipeline.New(pipeline.Config{
			RunID:     env.RunID,
			SourceDir: s.SourceDir,
			TargetDir: s.TargetDir,
			Extension: s.Extension,
			DryRun:    s.DryRun,
		}, changes, engine, pub, logger, opts...)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out, err := p.Run(ctx)
		if out != nil && out.Stats != nil {
			printSummary(os.Stdout, out.Stats)
		}
		if err != nil {
			return err
		}
		if out.PullRequest != nil {
			fmt.Printf("\n%s #%d %s\n", cyan("Pull request:"), out.PullRequest.Number, out.PullRequest.URL)
		}
		return nil
	},
}

type noChanges struct{}

func (noChanges) ChangedMarkdown(string, string) ([]string, error) { return nil, nil }

// openChanges opens the repository holding sourceDir. In dry-run mode a
// missing repository is not fatal and nothing counts as changed.
func openChanges(sourceDir string, dryRun bool) (pipeline.ChangeDetector, *publish.Repository, error) {
	repo, err := publish.OpenRepository(sourceDir)
	if err == nil {
		return repo, repo, nil
	}
	if dryRun && errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Warn().Err(err).Str("dir", sourceDir).Msg("continuing in dry-run mode without git")
		return noChanges{}, nil, nil
	}
	return nil, nil, err
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("source-dir", "trees", "Source root with the documents to translate")
	runCmd.Flags().String("target-dir", "trees_en", "Target root for translated documents")
	runCmd.Flags().String("pr-reviewers", "", "Comma-separated GitHub reviewers")
	runCmd.Flags().String("pr-base", "main", "Base branch of the pull request")
	runCmd.Flags().Bool("dry-run", false, "Translate but do not commit, push or open a pull request")
	runCmd.Flags().Int("workers", 1, "Files translated concurrently")
	runCmd.Flags().String("db", "", "SQLite database for translation memory and run history (empty disables)")
	runCmd.Flags().String("glossary", "translate/glossary.json", "Glossary file (JSON or YAML)")
}
