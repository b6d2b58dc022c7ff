package publish

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
)

// Committer is the git side of publishing.
type Committer interface {
	CommitAll(message string, author object.Signature) (string, error)
	PushBranch(ctx context.Context, remote, branch, token string) error
}

// PullRequestOpener is the code-hosting side of publishing.
type PullRequestOpener interface {
	OpenPullRequest(ctx context.Context, spec PullRequestSpec) (*PullRequest, error)
}

type Config struct {
	Remote      string
	Base        string
	Labels      []string
	Reviewers   []string
	AuthorName  string
	AuthorEmail string
	Token       string
}

// Publisher commits a batch, pushes it to translation-<run> and opens the
// pull request.
type Publisher struct {
	git    Committer
	prs    PullRequestOpener
	config Config
	logger zerolog.Logger
}

func NewPublisher(git Committer, prs PullRequestOpener, config Config, logger zerolog.Logger) *Publisher {
	return &Publisher{
		git:    git,
		prs:    prs,
		config: config,
		logger: logger.With().Str("component", "publisher").Logger(),
	}
}

func (p *Publisher) Publish(ctx context.Context, report Report) (*PullRequest, error) {
	branch := report.Branch()
	log := p.logger.With().Str("branch", branch).Logger()

	hash, err := p.git.CommitAll(report.CommitMessage(), object.Signature{
		Name:  p.config.AuthorName,
		Email: p.config.AuthorEmail,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("commit", hash).Msg("changes committed")

	if err := p.git.PushBranch(ctx, p.config.Remote, branch, p.config.Token); err != nil {
		return nil, err
	}
	log.Info().Str("remote", p.config.Remote).Msg("branch pushed")

	body, err := report.Body()
	if err != nil {
		return nil, err
	}

	pr, err := p.prs.OpenPullRequest(ctx, PullRequestSpec{
		Title:     report.Title(),
		Body:      body,
		Head:      branch,
		Base:      p.config.Base,
		Labels:    p.config.Labels,
		Reviewers: p.config.Reviewers,
	})
	if err != nil {
		return nil, fmt.Errorf("open pull request for %s: %w", branch, err)
	}
	log.Info().Int("number", pr.Number).Str("url", pr.URL).Msg("pull request created")
	return pr, nil
}
