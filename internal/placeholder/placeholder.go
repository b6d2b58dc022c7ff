// Package placeholder shields the parts of a Markdown document that must
// survive translation byte-for-byte (fenced code blocks, inline code spans,
// link targets, HTML tags) by swapping them for numbered markers
// ([PH0], [PH1], …) before the text is sent out, and swapping them back
// afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// fenced code blocks, ``` or ~~~, non-greedy across lines
	reFencedCode = regexp.MustCompile("(?s)```.*?```|~~~.*?~~~")

	reInlineCode = regexp.MustCompile("`[^`\n]+`")

	// the "(url)" half of [text](url) and ![alt](url "title")
	reLinkTarget = regexp.MustCompile(`\]\([^)\n]+\)`)

	reHTMLTag = regexp.MustCompile(`<[^>\n]+>`)

	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces protected segments with numbered placeholders in the
// order they are found and returns the captured originals for Restore.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	// Fenced first so that backticks and tags inside code stay in one block.
	text = reFencedCode.ReplaceAllStringFunc(text, replace)
	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reLinkTarget.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// Restore puts the originals captured by Protect back. Unknown indices are
// left as-is.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// InstructionHint is appended to the system prompt whenever Protect is used.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear; do not translate, move, or remove them."
}

// Validate returns the indices of markers missing from text.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
