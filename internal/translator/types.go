package translator

import (
	"context"
	"errors"
	"fmt"
)

// Failure classes of a translation call.
var (
	// ErrServiceUnavailable marks calls that could not reach a successful
	// response within the retry budget (transport errors, timeouts, non-2xx).
	ErrServiceUnavailable = errors.New("translation service unavailable")

	// ErrProcessing marks calls whose response could not be used. These are
	// not retried since the input itself is the likely cause.
	ErrProcessing = errors.New("failed to process translation")
)

// Translator turns source text into translated text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TranslatorFunc adapts a plain function to Translator.
type TranslatorFunc func(ctx context.Context, text string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// TranslationError is the only error type returned by the clients in this
// package. errors.Is matches both Kind and the underlying cause.
type TranslationError struct {
	Kind     error
	Attempts int
	Err      error
}

func (e *TranslationError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	if e.Attempts > 1 {
		return fmt.Sprintf("%v after %d attempts: %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *TranslationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unavailable(attempts int, err error) *TranslationError {
	return &TranslationError{Kind: ErrServiceUnavailable, Attempts: attempts, Err: err}
}

func processing(attempts int, err error) *TranslationError {
	return &TranslationError{Kind: ErrProcessing, Attempts: attempts, Err: err}
}

// transientError is a single-attempt failure worth retrying.
type transientError struct {
	StatusCode int
	err        error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
