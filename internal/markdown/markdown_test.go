package markdown

import (
	"strings"
	"testing"
)

func TestProseText(t *testing.T) {
	md := []byte("# Title\n\nSome *emphasis* and `code` here.\n\n```go\nfunc main() {}\n```\n\n[link text](https://example.com/path)\n")

	got := ProseText(md)

	for _, want := range []string{"Title", "Some", "emphasis", "here.", "link text"} {
		if !strings.Contains(got, want) {
			t.Errorf("ProseText() = %q, missing %q", got, want)
		}
	}
	for _, unwanted := range []string{"func main", "example.com", "code"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("ProseText() = %q, should not contain %q", got, unwanted)
		}
	}
}

func TestProseText_Empty(t *testing.T) {
	if got := ProseText(nil); got != "" {
		t.Errorf("ProseText(nil) = %q, want empty", got)
	}
	if got := ProseText([]byte("```\nonly code\n```\n")); got != "" {
		t.Errorf("ProseText(code only) = %q, want empty", got)
	}
}
