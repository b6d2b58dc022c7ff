// Package postprocess removes the wrapping that chat models add around a
// translated document: reasoning blocks, "Here is the translation:"
// preambles and a fence around the whole answer.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean applies, in order, reasoning-block removal, preamble removal and
// document-fence unwrapping, and returns the trimmed result.
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = unwrapDocumentFence(text)
	return strings.TrimSpace(text)
}

// Reasoning is only stripped from the head of the reply. The same tags
// further down are document content. Go's RE2 has no backreferences, so
// each tag pair is spelled out.
var leadingThinkingRe = regexp.MustCompile(
	`(?is)^\s*(?:<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>)`,
)

// an opening tag whose closing tag never came (output cut at max_tokens)
var leadingOpenTagRe = regexp.MustCompile(`(?i)^\s*(?:<thinking>|<think>|<reasoning>|<reflection>)`)

func removeThinkingBlocks(text string) string {
	for {
		loc := leadingThinkingRe.FindStringIndex(text)
		if loc == nil {
			break
		}
		text = text[loc[1]:]
	}
	if leadingOpenTagRe.MatchString(text) {
		return ""
	}
	return strings.TrimSpace(text)
}

// Anchored at the start and requiring a colon, to stay clear of real content.
// The bare "Translation:" form must end its line and be followed by text,
// otherwise it is the document's own first line.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated |english )?(?:translation|text|document|markdown)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text|translated document)[ \t]*:[ \t]*\r?\n`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is)(?: the)? (?:refined |polished |translated |english )?(?:translation|text|document|markdown)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		loc := re.FindStringIndex(text)
		if loc == nil || loc[0] != 0 {
			continue
		}
		if rest := strings.TrimSpace(text[loc[1]:]); rest != "" {
			text = rest
		}
	}
	return text
}

// documentFenceRe matches an answer that is entirely one ```markdown fence.
// Untagged or other-language fences are real content and stay.
var documentFenceRe = regexp.MustCompile("(?s)^```(?:markdown|md)[ \t]*\r?\n(.*?)\r?\n```$")

func unwrapDocumentFence(text string) string {
	m := documentFenceRe.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	inner := m[1]
	// A fence inside means the outer pair is not a wrapper.
	if strings.Contains(inner, "```") && strings.Count(inner, "```")%2 != 0 {
		return text
	}
	return inner
}
