// Package pipeline runs one bot cycle: detect changed Markdown, translate it
// and publish the result as a pull request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/mdtrans/internal/filetask"
	"github.com/valpere/mdtrans/internal/orchestrator"
	"github.com/valpere/mdtrans/internal/publish"
	"github.com/valpere/mdtrans/internal/store"
)

// ErrAllFailed is returned when a non-empty batch had no successful file.
// Nothing is committed in that case.
var ErrAllFailed = errors.New("all translations failed")

const treeDepth = 3

type ChangeDetector interface {
	ChangedMarkdown(sourceDir, ext string) ([]string, error)
}

type BatchRunner interface {
	Run(ctx context.Context, inputDir, outputDir string, files []string) (*orchestrator.Stats, error)
}

type Publisher interface {
	Publish(ctx context.Context, report publish.Report) (*publish.PullRequest, error)
}

// Recorder stores finished batches.
type Recorder interface {
	RecordRun(ctx context.Context, run store.RunRecord) (string, error)
}

type Config struct {
	RunID     string
	SourceDir string
	TargetDir string
	Extension string
	DryRun    bool
}

// Outcome is what a cycle did. Stats is nil when no files changed; PullRequest
// is nil unless one was opened.
type Outcome struct {
	Files       []string
	Stats       *orchestrator.Stats
	PullRequest *publish.PullRequest
}

type Option func(*Pipeline)

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

type Pipeline struct {
	changes   ChangeDetector
	batch     BatchRunner
	publisher Publisher
	recorder  Recorder
	config    Config
	logger    zerolog.Logger
}

// New builds a pipeline. publisher may be nil when config.DryRun is set.
func New(config Config, changes ChangeDetector, batch BatchRunner, publisher Publisher, logger zerolog.Logger, opts ...Option) *Pipeline {
	if config.Extension == "" {
		config.Extension = orchestrator.DefaultExtension
	}
	p := &Pipeline{
		changes:   changes,
		batch:     batch,
		publisher: publisher,
		config:    config,
		logger:    logger.With().Str("component", "pipeline").Str("run", config.RunID).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	started := time.Now()
	p.logger.Info().Msg("starting translation run")

	files, err := p.changes.ChangedMarkdown(p.config.SourceDir, p.config.Extension)
	if err != nil {
		return nil, fmt.Errorf("detect changed files: %w", err)
	}
	out := &Outcome{Files: files}
	if len(files) == 0 {
		p.logger.Info().Msg("no changed Markdown files detected")
		return out, nil
	}
	p.logger.Info().Int("count", len(files)).Str("files", sample(files, 3)).Msg("detected changed files")

	stats, err := p.batch.Run(ctx, p.config.SourceDir, p.config.TargetDir, files)
	if err != nil {
		return out, fmt.Errorf("translate batch: %w", err)
	}
	out.Stats = stats
	p.record(ctx, started, stats)

	if stats.Success == 0 {
		return out, fmt.Errorf("%w: %d of %d files failed", ErrAllFailed, stats.Failed, stats.Total())
	}
	p.logger.Info().Int("success", stats.Success).Int("failed", stats.Failed).Msg("translation results")

	if p.config.DryRun {
		p.logger.Info().Int("files", len(files)).Msg("dry run: no changes will be committed, would create pull request")
		return out, nil
	}
	if p.publisher == nil {
		return out, errors.New("no publisher configured")
	}

	report := publish.Report{
		RunID:   p.config.RunID,
		Success: stats.Success,
		Failed:  stats.Failed,
		Files:   files,
	}
	if tree, err := publish.Tree(p.config.TargetDir, treeDepth); err != nil {
		p.logger.Warn().Err(err).Msg("failed to render output tree")
	} else {
		report.Tree = tree
	}

	pr, err := p.publisher.Publish(ctx, report)
	if err != nil {
		return out, fmt.Errorf("publish: %w", err)
	}
	out.PullRequest = pr
	p.logger.Info().Int("pr", pr.Number).Str("url", pr.URL).Msg("translation run completed")
	return out, nil
}

func (p *Pipeline) record(ctx context.Context, started time.Time, stats *orchestrator.Stats) {
	if p.recorder == nil {
		return
	}
	run := store.RunRecord{
		RunID:      p.config.RunID,
		SourceDir:  p.config.SourceDir,
		TargetDir:  p.config.TargetDir,
		Success:    stats.Success,
		Failed:     stats.Failed,
		Skipped:    stats.Skipped,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, r := range stats.Results {
		run.Files = append(run.Files, fileRecord(r))
	}
	if _, err := p.recorder.RecordRun(ctx, run); err != nil {
		p.logger.Warn().Err(err).Msg("failed to record run")
	}
}

func fileRecord(r filetask.Result) store.FileRecord {
	rec := store.FileRecord{Path: r.Task.Rel, Status: r.Status.String()}
	if r.Err != nil {
		rec.Reason = r.Err.Error()
	}
	return rec
}

// sample lists up to n files, noting how many were left out.
func sample(files []string, n int) string {
	if len(files) <= n {
		return strings.Join(files, ", ")
	}
	return fmt.Sprintf("%s, ...(+%d more)", strings.Join(files[:n], ", "), len(files)-n)
}
