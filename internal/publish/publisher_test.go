package publish

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
)

type fakeGit struct {
	calls     []string
	message   string
	author    object.Signature
	remote    string
	branch    string
	token     string
	commitErr error
	pushErr   error
}

func (f *fakeGit) CommitAll(message string, author object.Signature) (string, error) {
	f.calls = append(f.calls, "commit")
	f.message, f.author = message, author
	return "abc123", f.commitErr
}

func (f *fakeGit) PushBranch(_ context.Context, remote, branch, token string) error {
	f.calls = append(f.calls, "push")
	f.remote, f.branch, f.token = remote, branch, token
	return f.pushErr
}

type fakePRs struct {
	spec   PullRequestSpec
	called bool
}

func (f *fakePRs) OpenPullRequest(_ context.Context, spec PullRequestSpec) (*PullRequest, error) {
	f.called = true
	f.spec = spec
	return &PullRequest{Number: 7, URL: "https://example.com/pull/7"}, nil
}

func testPublisherConfig() Config {
	return Config{
		Remote:      "origin",
		Base:        "main",
		Labels:      []string{"translation", "needs-review"},
		Reviewers:   []string{"alice"},
		AuthorName:  "Translation Bot",
		AuthorEmail: "translation-bot@users.noreply.github.com",
		Token:       "tok",
	}
}

func TestPublisher_Publish(t *testing.T) {
	g := &fakeGit{}
	prs := &fakePRs{}
	p := NewPublisher(g, prs, testPublisherConfig(), zerolog.Nop())

	pr, err := p.Publish(context.Background(), Report{RunID: "99", Success: 2, Failed: 1, Files: []string{"a.md"}})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if pr.Number != 7 {
		t.Errorf("number = %d", pr.Number)
	}

	if strings.Join(g.calls, ",") != "commit,push" {
		t.Errorf("calls = %v", g.calls)
	}
	if g.author.Name != "Translation Bot" || g.author.Email != "translation-bot@users.noreply.github.com" {
		t.Errorf("author = %+v", g.author)
	}
	if !strings.HasPrefix(g.message, "feat(translation): batch update 99") {
		t.Errorf("message = %q", g.message)
	}
	if g.remote != "origin" || g.branch != "translation-99" || g.token != "tok" {
		t.Errorf("push = %s %s %s", g.remote, g.branch, g.token)
	}

	if prs.spec.Head != "translation-99" || prs.spec.Base != "main" || prs.spec.Title != "[Bot] Translation Updates (99)" {
		t.Errorf("spec = %+v", prs.spec)
	}
	if !strings.Contains(prs.spec.Body, "- `a.md`") {
		t.Errorf("body = %q", prs.spec.Body)
	}
	if len(prs.spec.Reviewers) != 1 || len(prs.spec.Labels) != 2 {
		t.Errorf("spec = %+v", prs.spec)
	}
}

func TestPublisher_Publish_Errors(t *testing.T) {
	tests := []struct {
		name      string
		git       *fakeGit
		wantCalls string
	}{
		{"commit fails", &fakeGit{commitErr: ErrNothingToCommit}, "commit"},
		{"push fails", &fakeGit{pushErr: errors.New("rejected")}, "commit,push"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prs := &fakePRs{}
			p := NewPublisher(tt.git, prs, testPublisherConfig(), zerolog.Nop())

			if _, err := p.Publish(context.Background(), Report{RunID: "1"}); err == nil {
				t.Fatal("expected error")
			}
			if strings.Join(tt.git.calls, ",") != tt.wantCalls {
				t.Errorf("calls = %v, want %s", tt.git.calls, tt.wantCalls)
			}
			if prs.called {
				t.Error("pull request should not be opened")
			}
		})
	}
}
