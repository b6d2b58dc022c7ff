// Package orchestrator resolves a batch of Markdown files and runs the file
// translation unit over them with a bounded worker pool.
package orchestrator

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/mdtrans/internal/filetask"
)

const (
	DefaultSuffix    = "_en"
	DefaultExtension = ".md"
)

// FileTranslator is the per-file unit of work. Implementations must not
// return until the output for the task is final.
type FileTranslator interface {
	Translate(ctx context.Context, task filetask.Task) filetask.Result
}

type Config struct {
	Suffix    string
	Extension string
	// Workers bounds concurrent file tasks. Values below 1 mean sequential.
	Workers int
}

type Orchestrator struct {
	unit   FileTranslator
	config Config
	logger zerolog.Logger

	// OnResult, when set, is called once per task as it finishes. Calls are
	// serialized.
	OnResult func(filetask.Result)
}

func New(unit FileTranslator, config Config, logger zerolog.Logger) *Orchestrator {
	if config.Suffix == "" {
		config.Suffix = DefaultSuffix
	}
	if config.Extension == "" {
		config.Extension = DefaultExtension
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Orchestrator{
		unit:   unit,
		config: config,
		logger: logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Stats partitions a batch. Failed includes Skipped, so Success+Failed is
// always the number of resolved tasks.
type Stats struct {
	Success  int
	Failed   int
	Skipped  int
	Results  []filetask.Result
	Duration time.Duration
}

func (s *Stats) Total() int { return s.Success + s.Failed }

// Paths returns the relative paths of the results with the given status.
func (s *Stats) Paths(status filetask.Status) []string {
	var out []string
	for _, r := range s.Results {
		if r.Status == status {
			out = append(out, r.Task.Rel)
		}
	}
	return out
}

// OutputPath maps a source-relative path to its output path: same directory
// structure under outputDir, suffix inserted before the extension.
func OutputPath(outputDir, rel, suffix string) string {
	rel = filepath.FromSlash(rel)
	ext := filepath.Ext(rel)
	return filepath.Join(outputDir, strings.TrimSuffix(rel, ext)+suffix+ext)
}

// Resolve builds the task list. With files given, exactly those paths
// (relative to inputDir, duplicates dropped) are used; otherwise inputDir is
// walked for files with the configured extension, skipping outputDir when it
// is nested inside. Tasks are sorted by relative path.
func (o *Orchestrator) Resolve(inputDir, outputDir string, files []string) ([]filetask.Task, error) {
	var rels []string

	if len(files) > 0 {
		seen := make(map[string]bool, len(files))
		for _, f := range files {
			rel := filepath.Clean(filepath.FromSlash(strings.TrimSpace(f)))
			if !filepath.IsLocal(rel) {
				return nil, fmt.Errorf("file %q is outside %s", f, inputDir)
			}
			if seen[rel] {
				continue
			}
			seen[rel] = true
			rels = append(rels, rel)
		}
	} else {
		scanned, err := o.scan(inputDir, outputDir)
		if err != nil {
			return nil, err
		}
		rels = scanned
	}

	sort.Strings(rels)
	tasks := make([]filetask.Task, 0, len(rels))
	for _, rel := range rels {
		tasks = append(tasks, filetask.Task{
			Rel:    filepath.ToSlash(rel),
			Input:  filepath.Join(inputDir, rel),
			Output: OutputPath(outputDir, rel, o.config.Suffix),
		})
	}
	return tasks, nil
}

func (o *Orchestrator) scan(inputDir, outputDir string) ([]string, error) {
	skip := ""
	if outputDir != "" {
		if abs, err := filepath.Abs(outputDir); err == nil {
			skip = abs
		}
	}

	var rels []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && skip != "" {
				if abs, err := filepath.Abs(path); err == nil && abs == skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if filepath.Ext(path) != o.config.Extension {
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", inputDir, err)
	}
	return rels, nil
}

// Run translates the resolved batch. The only error is a failure to resolve
// the work list; per-file failures are counted in Stats. Tasks not started
// before ctx is cancelled are counted as failed.
func (o *Orchestrator) Run(ctx context.Context, inputDir, outputDir string, files []string) (*Stats, error) {
	start := time.Now()

	tasks, err := o.Resolve(inputDir, outputDir, files)
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Int("files", len(tasks)).
		Int("workers", o.config.Workers).
		Str("input", inputDir).
		Str("output", outputDir).
		Msg("starting batch")

	results := make([]filetask.Result, len(tasks))
	var notifyMu sync.Mutex

	var g errgroup.Group
	g.SetLimit(o.config.Workers)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = filetask.Result{Task: task, Status: filetask.StatusFailed, Err: fmt.Errorf("not started: %w", err)}
			} else {
				results[i] = o.unit.Translate(ctx, task)
			}
			if o.OnResult != nil {
				notifyMu.Lock()
				o.OnResult(results[i])
				notifyMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := &Stats{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		switch r.Status {
		case filetask.StatusTranslated:
			stats.Success++
		case filetask.StatusSkipped:
			stats.Skipped++
			stats.Failed++
		default:
			stats.Failed++
		}
	}

	o.logger.Info().
		Int("success", stats.Success).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Dur("took", stats.Duration).
		Msg("batch complete")

	return stats, nil
}
