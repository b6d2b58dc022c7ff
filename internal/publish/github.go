package publish

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
	"github.com/rs/zerolog"
)

// PullRequestSpec is everything needed to open a pull request.
type PullRequestSpec struct {
	Title     string
	Body      string
	Head      string
	Base      string
	Labels    []string
	Reviewers []string
}

// PullRequest identifies a created pull request.
type PullRequest struct {
	Number int
	URL    string
}

// GitHub opens pull requests on one repository.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	logger zerolog.Logger
}

func NewGitHub(token, owner, repo string, logger zerolog.Logger) *GitHub {
	return NewGitHubWithClient(github.NewClient(nil).WithAuthToken(token), owner, repo, logger)
}

// NewGitHubWithClient uses a preconfigured client, such as one pointed at a
// GitHub Enterprise base URL.
func NewGitHubWithClient(client *github.Client, owner, repo string, logger zerolog.Logger) *GitHub {
	return &GitHub{
		client: client,
		owner:  owner,
		repo:   repo,
		logger: logger.With().Str("component", "github").Logger(),
	}
}

// OpenPullRequest creates the pull request, then labels it and requests
// reviewers. Label and reviewer failures are logged; the pull request stays.
func (g *GitHub) OpenPullRequest(ctx context.Context, spec PullRequestSpec) (*PullRequest, error) {
	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.String(spec.Title),
		Body:  github.String(spec.Body),
		Head:  github.String(spec.Head),
		Base:  github.String(spec.Base),
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}

	out := &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}
	log := g.logger.With().Int("pr", out.Number).Logger()

	if len(spec.Labels) > 0 {
		if _, _, err := g.client.Issues.AddLabelsToIssue(ctx, g.owner, g.repo, out.Number, spec.Labels); err != nil {
			log.Warn().Err(err).Strs("labels", spec.Labels).Msg("failed to add labels")
		}
	}

	if len(spec.Reviewers) > 0 {
		log.Info().Strs("reviewers", spec.Reviewers).Msg("requesting reviewers")
		if _, _, err := g.client.PullRequests.RequestReviewers(ctx, g.owner, g.repo, out.Number, github.ReviewersRequest{Reviewers: spec.Reviewers}); err != nil {
			log.Warn().Err(err).Msg("failed to request reviewers")
		}
	}

	return out, nil
}
