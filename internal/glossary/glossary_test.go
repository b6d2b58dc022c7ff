package glossary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_JSONKeepsFileOrder(t *testing.T) {
	path := writeFile(t, "glossary.json", `{"服务网格": "service mesh", "边车": "sidecar", "控制面": "control plane"}`)

	g, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("expected 3 terms, got %d", g.Len())
	}

	want := "服务网格 => service mesh\n边车 => sidecar\n控制面 => control plane"
	if got := g.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestParse_JSONDuplicateKeyKeepsFirstPosition(t *testing.T) {
	path := writeFile(t, "glossary.json", `{"a": "1", "b": "2", "a": "3"}`)

	g, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := g.Format(); got != "a => 3\nb => 2" {
		t.Errorf("Format() = %q", got)
	}
}

func TestParse_JSONRejectsNonStringValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"number value", `{"a": 1}`},
		{"nested object", `{"a": {"b": "c"}}`},
		{"array", `["a", "b"]`},
		{"empty value", `{"a": ""}`},
		{"trailing garbage", `{"a": "b"} {}`},
		{"not json", `a => b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "glossary.json", tt.content)
			if _, err := Parse(path); err == nil {
				t.Errorf("expected error for %s", tt.content)
			}
		})
	}
}

func TestParse_YAML(t *testing.T) {
	path := writeFile(t, "glossary.yaml", "边车: sidecar\n服务网格: service mesh\n")

	g, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := g.Format(); got != "边车 => sidecar\n服务网格 => service mesh" {
		t.Errorf("Format() = %q", got)
	}
	if target, ok := g.Lookup("边车"); !ok || target != "sidecar" {
		t.Errorf("Lookup() = %q, %v", target, ok)
	}
}

func TestParse_YAMLRejectsNested(t *testing.T) {
	path := writeFile(t, "glossary.yml", "a:\n  b: c\n")
	if _, err := Parse(path); err == nil {
		t.Error("expected error for nested YAML")
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	g := Load(filepath.Join(t.TempDir(), "nope.json"), logger)
	if g == nil {
		t.Fatal("expected non-nil glossary")
	}
	if g.Len() != 0 {
		t.Errorf("expected empty glossary, got %d terms", g.Len())
	}
	if g.Format() != "" {
		t.Errorf("expected empty format, got %q", g.Format())
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected a warning to be logged, got %q", buf.String())
	}
}

func TestLoad_MalformedFileIsEmpty(t *testing.T) {
	path := writeFile(t, "glossary.json", `{"a": `)

	g := Load(path, zerolog.Nop())
	if g.Len() != 0 {
		t.Errorf("expected empty glossary, got %d terms", g.Len())
	}
}

func TestTerms_ReturnsCopy(t *testing.T) {
	path := writeFile(t, "glossary.json", `{"a": "b"}`)
	g, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}

	terms := g.Terms()
	terms[0].Target = "changed"

	if target, _ := g.Lookup("a"); target != "b" {
		t.Errorf("glossary mutated through Terms(): %q", target)
	}
}

func TestNilGlossary(t *testing.T) {
	var g *Glossary
	if g.Len() != 0 || g.Format() != "" || g.Terms() != nil {
		t.Error("nil glossary should behave as empty")
	}
}
