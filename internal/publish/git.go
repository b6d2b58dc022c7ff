// Package publish commits translated files, pushes them to a branch and opens
// a pull request describing the batch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// ErrNothingToCommit is returned by CommitAll on a clean worktree.
var ErrNothingToCommit = errors.New("nothing to commit")

// Repository is a git working copy.
type Repository struct {
	repo *git.Repository
	root string
}

// OpenRepository opens the repository containing dir.
func OpenRepository(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	root, err := canonical(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, root: root}, nil
}

// Root is the absolute path of the working tree.
func (r *Repository) Root() string { return r.root }

// ChangedMarkdown lists files under sourceDir with extension ext that are
// modified, added or untracked in the working tree. Deleted files are left
// out. Paths are slash-separated, relative to sourceDir and sorted.
func (r *Repository) ChangedMarkdown(sourceDir, ext string) ([]string, error) {
	src, err := canonical(sourceDir)
	if err != nil {
		return nil, err
	}
	prefix, err := filepath.Rel(r.root, src)
	if err != nil || !filepath.IsLocal(prefix) {
		return nil, fmt.Errorf("%s is not inside repository %s", sourceDir, r.root)
	}
	prefix = filepath.ToSlash(prefix)

	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	var changed []string
	for file, st := range status {
		if st.Worktree == git.Deleted || st.Staging == git.Deleted {
			continue
		}
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		if path.Ext(file) != ext {
			continue
		}
		rel := file
		if prefix != "." {
			if !strings.HasPrefix(file, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(file, prefix+"/")
		}
		changed = append(changed, rel)
	}
	sort.Strings(changed)
	return changed, nil
}

// CommitAll stages every change, deletions included, and commits it.
func (r *Repository) CommitAll(message string, author object.Signature) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNothingToCommit
	}

	if author.When.IsZero() {
		author.When = time.Now()
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &author})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

// CreateBranch points refs/heads/<branch> at HEAD, replacing any existing ref.
func (r *Repository) CreateBranch(branch string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), head.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

// PushBranch force-pushes HEAD to branch on remote, authenticating with a
// GitHub token when one is given.
func (r *Repository) PushBranch(ctx context.Context, remote, branch, token string) error {
	if err := r.CreateBranch(branch); err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	opts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+%s:%s", ref, ref))},
	}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}

	err := r.repo.PushContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push %s to %s: %w", branch, remote, err)
	}
	return nil
}

func canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
