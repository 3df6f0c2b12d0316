// Package forge provides issue tracker and repository access for the
// agent's ticket and code inspection tools.
package forge

import (
	"context"
	"time"
)

// Issue is the provider-neutral issue representation.
type Issue struct {
	Number    int
	Title     string
	Body      string
	State     string
	URL       string
	Labels    []string
	CreatedAt time.Time
}

// ListOptions filters issue listings.
type ListOptions struct {
	State string // open, closed, all (default open)
	Limit int
}

// Provider abstracts the hosting forge. The agent only needs the small
// surface its tools expose; everything else the forge offers is out of
// scope here.
type Provider interface {
	// CreateIssue opens a new issue and returns it with the number and
	// URL the forge assigned.
	CreateIssue(ctx context.Context, repo string, issue *Issue) (*Issue, error)

	// ListIssues returns issues matching opts, newest first.
	ListIssues(ctx context.Context, repo string, opts *ListOptions) ([]*Issue, error)

	// FileContent returns the decoded content of a file at the given
	// path on the default branch.
	FileContent(ctx context.Context, repo, path string) (string, error)
}
