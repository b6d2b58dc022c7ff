// Package filetask translates one Markdown file into its output path.
package filetask

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/valpere/mdtrans/internal/translator"
)

// Status is the outcome class of a file task.
type Status int

const (
	StatusTranslated Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusTranslated:
		return "ok"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

var (
	// ErrEmptyInput is the reason of a skipped task.
	ErrEmptyInput = errors.New("input is empty or whitespace-only")
	// ErrInvalidEncoding is returned for input that is not UTF-8.
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
)

// Task is one input file and the output path it translates to. Rel is the
// slash-separated path relative to the source root.
type Task struct {
	Rel    string
	Input  string
	Output string
}

// Result replaces a bare success flag: Err carries the reason whenever
// Status is not StatusTranslated.
type Result struct {
	Task     Task
	Status   Status
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool { return r.Status == StatusTranslated }

// LanguageChecker reports whether a translated document is in targetLang.
type LanguageChecker interface {
	CheckMarkdown(doc, targetLang string) error
}

type Option func(*Unit)

// WithLanguageCheck validates every translation before it is written. A
// mismatch is logged, or fails the task when strict is set.
func WithLanguageCheck(c LanguageChecker, targetLang string, strict bool) Option {
	return func(u *Unit) {
		u.checker = c
		u.targetLang = targetLang
		u.strict = strict
	}
}

// Unit runs read → translate → atomic write for a single file. Translate
// never returns an error; every failure ends up in the Result.
type Unit struct {
	translator translator.Translator
	logger     zerolog.Logger

	checker    LanguageChecker
	targetLang string
	strict     bool

	rename func(oldpath, newpath string) error
}

func New(t translator.Translator, logger zerolog.Logger, opts ...Option) *Unit {
	u := &Unit{
		translator: t,
		logger:     logger.With().Str("component", "filetask").Logger(),
		rename:     os.Rename,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Unit) Translate(ctx context.Context, task Task) Result {
	start := time.Now()
	log := u.logger.With().Str("file", task.Rel).Logger()

	status, err := u.run(ctx, task, log)
	res := Result{Task: task, Status: status, Err: err, Duration: time.Since(start)}

	switch status {
	case StatusSkipped:
		log.Warn().Str("input", task.Input).Msg("skipping empty file")
	case StatusFailed:
		log.Error().Err(err).Str("input", task.Input).Msg("file translation failed")
	default:
		log.Info().Str("output", task.Output).Dur("took", res.Duration).Msg("file translated")
	}
	return res
}

func (u *Unit) run(ctx context.Context, task Task, log zerolog.Logger) (Status, error) {
	data, err := os.ReadFile(task.Input)
	if err != nil {
		return StatusFailed, fmt.Errorf("read input: %w", err)
	}
	if !utf8.Valid(data) {
		return StatusFailed, ErrInvalidEncoding
	}

	source := string(data)
	if strings.TrimSpace(source) == "" {
		return StatusSkipped, ErrEmptyInput
	}

	if err := os.MkdirAll(filepath.Dir(task.Output), 0o755); err != nil {
		return StatusFailed, fmt.Errorf("create output directory: %w", err)
	}

	translated, err := u.translator.Translate(ctx, source)
	if err != nil {
		return StatusFailed, err
	}
	translated = keepTrailingNewline(source, translated)

	if u.checker != nil {
		if err := u.checker.CheckMarkdown(translated, u.targetLang); err != nil {
			if u.strict {
				return StatusFailed, fmt.Errorf("language check: %w", err)
			}
			log.Warn().Err(err).Msg("translated file may not be in the target language")
		}
	}

	if err := u.writeAtomic(task.Output, []byte(translated)); err != nil {
		return StatusFailed, err
	}
	return StatusTranslated, nil
}

// keepTrailingNewline restores the final line break of source when the
// translation dropped it, using the source's line ending style.
func keepTrailingNewline(source, translated string) string {
	if strings.HasSuffix(translated, "\n") {
		return translated
	}
	switch {
	case strings.HasSuffix(source, "\r\n"):
		return translated + "\r\n"
	case strings.HasSuffix(source, "\n"):
		return translated + "\n"
	}
	return translated
}

// writeAtomic writes data to a temporary sibling of path and renames it into
// place. The final path holds either its previous content or all of data.
func (u *Unit) writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = u.rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
