package forge

import (
	"context"
	"fmt"
	"strings"

	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

// maxFileChars bounds repository file content returned to the model.
const maxFileChars = 8000

// ToolSet returns the forge tools bound to a provider and default
// repository. Registration order matters downstream: create_ticket is
// first so the failsafe layer prefers it, matching the historical
// behavior of the bot these tools descend from.
func ToolSet(p Provider, defaultRepo string) []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "create_ticket",
			Description: "Create a ticket in the issue tracker. Use when the user reports a bug or asks for work to be tracked.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"summary": map[string]any{
						"type":        "string",
						"description": "One-line ticket title",
					},
					"body": map[string]any{
						"type":        "string",
						"description": "Optional longer description",
					},
				},
				"required": []string{"summary"},
			},
			Handler: createTicketHandler(p, defaultRepo),
		},
		{
			Name:        "get_issues",
			Description: "List tickets in the issue tracker. Use to answer questions about what is open or recently filed.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"state": map[string]any{
						"type":        "string",
						"description": "Filter: open (default), closed, or all",
					},
				},
			},
			Handler: getIssuesHandler(p, defaultRepo),
		},
		{
			Name:        "get_repo_file",
			Description: "Read a file from the project repository. Use to inspect source code or configuration when asked.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Path of the file within the repository",
					},
				},
				"required": []string{"path"},
			},
			Handler: getRepoFileHandler(p, defaultRepo),
		},
	}
}

func createTicketHandler(p Provider, repo string) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		summary, _ := args["summary"].(string)
		if summary == "" {
			return "", fmt.Errorf("summary is required")
		}
		body, _ := args["body"].(string)

		issue, err := p.CreateIssue(ctx, repo, &Issue{Title: summary, Body: body})
		if err != nil {
			return fmt.Sprintf("Could not create the ticket: %v", err), nil
		}
		return fmt.Sprintf("Ticket #%d created: %s", issue.Number, issue.URL), nil
	}
}

func getIssuesHandler(p Provider, repo string) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		state, _ := args["state"].(string)

		issues, err := p.ListIssues(ctx, repo, &ListOptions{State: state})
		if err != nil {
			return fmt.Sprintf("Could not list issues: %v", err), nil
		}
		if len(issues) == 0 {
			return "No open Issues.", nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d issue(s):\n", len(issues))
		for _, i := range issues {
			fmt.Fprintf(&b, "- #%d [%s] %s", i.Number, i.State, i.Title)
			if len(i.Labels) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(i.Labels, ", "))
			}
			b.WriteString("\n")
		}
		return b.String(), nil
	}
}

func getRepoFileHandler(p Provider, repo string) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		path, _ := args["path"].(string)
		if path == "" {
			return "", fmt.Errorf("path is required")
		}

		content, err := p.FileContent(ctx, repo, path)
		if err != nil {
			return fmt.Sprintf("Could not read %s: %v", path, err), nil
		}
		if len(content) > maxFileChars {
			content = content[:maxFileChars] + "\n… (truncated)"
		}
		return fmt.Sprintf("%s:\n```\n%s\n```", path, content), nil
	}
}
