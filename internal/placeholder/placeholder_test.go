package placeholder_test

import (
	"strings"
	"testing"

	"github.com/valpere/mdtrans/internal/placeholder"
)

func TestProtect_NoMarkup(t *testing.T) {
	text := "你好，世界！"
	got, markers := placeholder.Protect(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(markers) != 0 {
		t.Errorf("expected 0 markers, got %d", len(markers))
	}
}

func TestProtect_HTMLTags(t *testing.T) {
	text := "<p>Hello <b>world</b></p>"
	got, markers := placeholder.Protect(text)

	if len(markers) != 4 {
		t.Fatalf("expected 4 markers (<p>, <b>, </b>, </p>), got %d: %v", len(markers), markers)
	}
	for _, tag := range []string{"<p>", "<b>", "</b>", "</p>"} {
		if strings.Contains(got, tag) {
			t.Errorf("expected tag %q to be replaced, still present in %q", tag, got)
		}
	}
}

func TestProtect_FencedCode(t *testing.T) {
	text := "Before\n```go\nfmt.Println(\"<hi>\")\n```\nAfter"
	got, markers := placeholder.Protect(text)

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker for fenced block, got %d: %v", len(markers), markers)
	}
	if got != "Before\n[PH0]\nAfter" {
		t.Errorf("unexpected protected text %q", got)
	}
}

func TestProtect_TildeFence(t *testing.T) {
	text := "~~~\nkubectl get pods\n~~~"
	got, markers := placeholder.Protect(text)
	if len(markers) != 1 || got != "[PH0]" {
		t.Errorf("expected single marker, got %q %v", got, markers)
	}
}

func TestProtect_InlineCode(t *testing.T) {
	text := "使用 `fmt.Println` 打印。"
	got, markers := placeholder.Protect(text)

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if strings.Contains(got, "`fmt.Println`") {
		t.Error("inline code still present after Protect")
	}
}

func TestProtect_LinkTarget(t *testing.T) {
	text := "参见 [文档](https://example.com/docs?a=1) 和 ![图](img/a.png \"title\")"
	got, markers := placeholder.Protect(text)

	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %v", len(markers), markers)
	}
	if strings.Contains(got, "https://example.com") {
		t.Errorf("link target still present in %q", got)
	}
	if !strings.Contains(got, "[文档[PH0]") {
		t.Errorf("expected link text to stay translatable, got %q", got)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	originals := []string{
		"<p>Hello <b>world</b></p>",
		"Before\n```go\nfmt.Println(\"hi\")\n```\nAfter",
		"# 标题\n\n见 [链接](http://a.b/c) 与 `code`。\n",
	}

	for _, original := range originals {
		protected, markers := placeholder.Protect(original)
		if restored := placeholder.Restore(protected, markers); restored != original {
			t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", original, restored)
		}
	}
}

func TestRestore_OutOfRangeIndexIgnored(t *testing.T) {
	restored := placeholder.Restore("[PH99] some text", []string{"<p>"})
	if !strings.Contains(restored, "[PH99]") {
		t.Errorf("expected [PH99] to remain, got %q", restored)
	}
}

func TestValidate_AllPresent(t *testing.T) {
	missing := placeholder.Validate("[PH0] some [PH1] text", []string{"<p>", "</p>"})
	if len(missing) != 0 {
		t.Errorf("expected no missing, got %v", missing)
	}
}

func TestValidate_SomeMissing(t *testing.T) {
	missing := placeholder.Validate("[PH0] some text", []string{"<p>", "</p>", "<b>"})
	if len(missing) != 2 || missing[0] != 1 || missing[1] != 2 {
		t.Errorf("expected missing [1 2], got %v", missing)
	}
}

func TestInstructionHint_NotEmpty(t *testing.T) {
	if placeholder.InstructionHint() == "" {
		t.Error("InstructionHint should not return empty string")
	}
}
