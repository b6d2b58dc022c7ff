/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"

	"github.com/valpere/mdtrans/internal/config"
	"github.com/valpere/mdtrans/internal/filetask"
	"github.com/valpere/mdtrans/internal/glossary"
	"github.com/valpere/mdtrans/internal/orchestrator"
)

func testSettings(t *testing.T, endpoint string) *config.Settings {
	t.Helper()
	vp := viper.New()
	config.SetDefaults(vp)
	vp.Set("api.endpoint", endpoint)
	vp.Set("retry.initial", time.Millisecond)
	vp.Set("retry.max", time.Millisecond)
	s, err := config.Load(vp)
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	return s
}

func TestBuildEngine_EndToEnd(t *testing.T) {
	var systemPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		systemPrompt = req.Messages[0].Content
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "EN " + req.Messages[1].Content}}},
		})
	}))
	defer srv.Close()

	root := t.TempDir()
	src := filepath.Join(root, "trees")
	dst := filepath.Join(root, "trees_en")
	if err := os.MkdirAll(filepath.Join(src, "guide"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(src, "guide", "intro.md"), []byte("你好 `code`\n"), 0o644)
	os.WriteFile(filepath.Join(src, "empty.md"), []byte(""), 0o644)

	glossPath := filepath.Join(root, "glossary.json")
	os.WriteFile(glossPath, []byte(`{"模型": "model"}`), 0o644)

	s := testSettings(t, srv.URL)
	s.ProtectCode = true
	s.Cache.DB = filepath.Join(root, "data", "cache.db")

	db, err := openStore(s)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer db.Close()

	engine := buildEngine(s, buildTranslator(s, "key", glossary.Load(glossPath, logger), db))
	stats, err := engine.Run(context.Background(), src, dst, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Success != 1 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %d/%d/%d", stats.Success, stats.Failed, stats.Skipped)
	}

	got, err := os.ReadFile(filepath.Join(dst, "guide", "intro_en.md"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if string(got) != "EN 你好 `code`\n" {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(systemPrompt, "模型 => model") || !strings.Contains(systemPrompt, "[PHn]") {
		t.Errorf("system prompt = %q", systemPrompt)
	}

	memStats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if memStats.TotalEntries != 1 {
		t.Errorf("memory entries = %d, want 1", memStats.TotalEntries)
	}
}

func TestOpenStore_Disabled(t *testing.T) {
	s := testSettings(t, "http://localhost")
	db, err := openStore(s)
	if err != nil || db != nil {
		t.Errorf("openStore() = %v, %v; want nil, nil", db, err)
	}
}

func TestOpenChanges_OutsideRepository(t *testing.T) {
	dir := t.TempDir()

	changes, repo, err := openChanges(dir, true)
	if err != nil {
		t.Fatalf("dry-run openChanges failed: %v", err)
	}
	if repo != nil {
		t.Errorf("repo = %v, want nil", repo)
	}
	files, err := changes.ChangedMarkdown(dir, ".md")
	if err != nil || len(files) != 0 {
		t.Errorf("ChangedMarkdown() = %v, %v; want no files", files, err)
	}

	if _, _, err := openChanges(dir, false); err == nil {
		t.Error("openChanges without dry-run succeeded outside a repository")
	}
}

func TestOpenChanges_InsideRepository(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}

	changes, repo, err := openChanges(dir, false)
	if err != nil {
		t.Fatalf("openChanges failed: %v", err)
	}
	if repo == nil || changes == nil {
		t.Errorf("openChanges() = %v, %v; want the repository", changes, repo)
	}
}

func TestPrintSummary(t *testing.T) {
	stats := &orchestrator.Stats{
		Success: 1,
		Failed:  2,
		Skipped: 1,
		Results: []filetask.Result{
			{Task: filetask.Task{Rel: "a.md"}, Status: filetask.StatusTranslated},
			{Task: filetask.Task{Rel: "b.md"}, Status: filetask.StatusSkipped, Err: filetask.ErrEmptyInput},
			{Task: filetask.Task{Rel: "c.md"}, Status: filetask.StatusFailed, Err: errors.New("service unavailable\ndetails")},
		},
	}

	color.NoColor = true
	var buf bytes.Buffer
	printSummary(&buf, stats)
	out := buf.String()

	for _, want := range []string{"3 files", "translated: 1", "skipped (empty): 1", "failed: 1", "c.md: service unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "details") || strings.Contains(out, "b.md:") {
		t.Errorf("unexpected summary content:\n%s", out)
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("a\n\nb   c", 40); got != "a b c" {
		t.Errorf("snippet() = %q", got)
	}
	if got := snippet(strings.Repeat("я", 50), 10); got != strings.Repeat("я", 7)+"..." {
		t.Errorf("snippet() = %q", got)
	}
}

