// Package markdown extracts the natural-language prose of a Markdown document.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

const extensions = parser.CommonExtensions | parser.Attributes

// Parse returns the document AST. A parser instance is single-use, so one is
// built per call.
func Parse(md []byte) ast.Node {
	return parser.NewWithExtensions(extensions).Parse(md)
}

// ProseText returns the text leaves of md joined by single spaces. Code
// blocks, inline code, raw HTML and link destinations are not text leaves and
// are left out.
func ProseText(md []byte) string {
	var parts []string
	ast.WalkFunc(Parse(md), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if t, ok := node.(*ast.Text); ok {
			if s := strings.TrimSpace(string(t.Literal)); s != "" {
				parts = append(parts, s)
			}
		}
		return ast.GoToNext
	})
	return strings.Join(parts, " ")
}
