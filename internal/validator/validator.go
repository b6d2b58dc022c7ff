// Package validator checks that a translated document is in the expected target language.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/mdtrans/internal/detector"
	"github.com/valpere/mdtrans/internal/markdown"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// ErrLanguageMismatch is returned when the detected language differs from the target.
var ErrLanguageMismatch = errors.New("language mismatch")

// Validator checks that a translation result is written in the expected target language.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator restricted to the given languages (ISO codes or
// English names). Pass the source and target language so that an
// untranslated document is told apart from a translated one.
func New(languages ...string) *Validator {
	return &Validator{det: detector.New(languages...)}
}

// IsValid returns true when translatedText appears to be written in targetLang.
//
// Short texts and texts whose language cannot be determined pass. When the
// detected language differs from targetLang the error wraps ErrLanguageMismatch.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("%w: expected %s but detected %s", ErrLanguageMismatch, targetLang, detected)
	}

	return true, nil
}

// CheckMarkdown validates only the prose of a Markdown document, so code
// blocks and link targets do not sway detection. A document without prose passes.
func (v *Validator) CheckMarkdown(doc, targetLang string) error {
	prose := markdown.ProseText([]byte(doc))
	if prose == "" {
		return nil
	}
	_, err := v.IsValid(prose, targetLang)
	return err
}
