// Package detector wraps lingua-go language detection.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over the given languages, each named by ISO 639-1
// code ("de") or English name ("German"). Unknown names are ignored. With
// fewer than two known languages the detector considers every language.
func New(languages ...string) *Detector {
	var builder lingua.LanguageDetectorBuilder

	known := Resolve(languages...)
	if len(known) >= 2 {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(known...)
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	}

	return &Detector{detector: builder.Build()}
}

// Resolve maps ISO 639-1 codes or English language names to lingua
// languages, dropping duplicates and unknown entries.
func Resolve(names ...string) []lingua.Language {
	seen := make(map[lingua.Language]bool)
	var out []lingua.Language
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		for _, lang := range lingua.AllLanguages() {
			if strings.EqualFold(lang.IsoCode639_1().String(), name) || strings.EqualFold(lang.String(), name) {
				if !seen[lang] {
					seen[lang] = true
					out = append(out, lang)
				}
				break
			}
		}
	}
	return out
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
