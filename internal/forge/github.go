package forge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gogithub "github.com/google/go-github/v69/github"

	"github.com/ronvale/harbor-chat-agent/internal/httpkit"
)

// githubProvider implements Provider using the go-github SDK.
type githubProvider struct {
	client *gogithub.Client
	logger *slog.Logger
}

// NewGitHub creates a GitHub-backed Provider. An empty token yields an
// unauthenticated client, good enough for public-repo reads.
func NewGitHub(token string, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	client := gogithub.NewClient(httpkit.NewClient())
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &githubProvider{
		client: client,
		logger: logger.With("component", "forge"),
	}
}

// splitRepo splits an "owner/repo" string into its two parts.
func splitRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// checkRateLimit logs a warning when remaining API calls run low.
func (p *githubProvider) checkRateLimit(resp *gogithub.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		p.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

func (p *githubProvider) CreateIssue(ctx context.Context, repo string, issue *Issue) (*Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	req := &gogithub.IssueRequest{
		Title: &issue.Title,
		Body:  &issue.Body,
	}
	if len(issue.Labels) > 0 {
		req.Labels = &issue.Labels
	}

	result, resp, err := p.client.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return nil, fmt.Errorf("forge: create issue: %w", err)
	}
	p.checkRateLimit(resp)
	return convertIssue(result), nil
}

func (p *githubProvider) ListIssues(ctx context.Context, repo string, opts *ListOptions) ([]*Issue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &ListOptions{}
	}

	state := opts.State
	if state == "" {
		state = "open"
	}
	limit := opts.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	ghOpts := &gogithub.IssueListByRepoOptions{
		State:       state,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}

	results, resp, err := p.client.Issues.ListByRepo(ctx, owner, name, ghOpts)
	if err != nil {
		return nil, fmt.Errorf("forge: list issues: %w", err)
	}
	p.checkRateLimit(resp)

	issues := make([]*Issue, 0, len(results))
	for _, r := range results {
		// Pull requests surface in the issues API; skip them.
		if r.IsPullRequest() {
			continue
		}
		issues = append(issues, convertIssue(r))
	}
	return issues, nil
}

func (p *githubProvider) FileContent(ctx context.Context, repo, path string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	file, _, resp, err := p.client.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return "", fmt.Errorf("forge: get contents %s: %w", path, err)
	}
	p.checkRateLimit(resp)
	if file == nil {
		return "", fmt.Errorf("forge: %s is a directory, not a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("forge: decode %s: %w", path, err)
	}
	return content, nil
}

func convertIssue(r *gogithub.Issue) *Issue {
	issue := &Issue{
		Number: r.GetNumber(),
		Title:  r.GetTitle(),
		Body:   r.GetBody(),
		State:  r.GetState(),
		URL:    r.GetHTMLURL(),
	}
	if r.CreatedAt != nil {
		issue.CreatedAt = r.CreatedAt.Time
	}
	for _, l := range r.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	return issue
}
