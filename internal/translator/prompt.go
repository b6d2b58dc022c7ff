package translator

import (
	"fmt"
	"strings"
)

// PromptOptions feeds BuildSystemPrompt.
type PromptOptions struct {
	SourceLanguage string
	TargetLanguage string
	// Glossary is the rendered "source => target" block, may be empty.
	Glossary string
	// Instructions are appended verbatim, e.g. a placeholder hint.
	Instructions string
}

// BuildSystemPrompt returns the fixed instruction sent with every document.
func BuildSystemPrompt(o PromptOptions) string {
	source := o.SourceLanguage
	if source == "" {
		source = "the source language"
	}
	target := o.TargetLanguage
	if target == "" {
		target = "English"
	}

	var sb strings.Builder
	sb.WriteString("You are a professional technical translator. ")
	sb.WriteString(fmt.Sprintf("Translate %s to %s while EXACTLY preserving:", source, target))
	sb.WriteString("\n1. All Markdown formatting (headings, lists, tables, emphasis)")
	sb.WriteString("\n2. Code blocks and inline code")
	sb.WriteString("\n3. URLs and YAML front matter")
	sb.WriteString("\n4. Technical terms (use the glossary if available)")
	sb.WriteString("\nKeep terminology consistent across the whole document. ")
	sb.WriteString("Respond with the translated document only, no explanations.")

	if o.Instructions != "" {
		sb.WriteString(" ")
		sb.WriteString(o.Instructions)
	}

	if o.Glossary != "" {
		sb.WriteString("\n\nGLOSSARY (use these exact translations):\n")
		sb.WriteString(o.Glossary)
	}

	return sb.String()
}
