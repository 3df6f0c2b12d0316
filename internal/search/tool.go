package search

import (
	"context"
	"fmt"

	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

// NewTool returns the web_search tool bound to a client.
func NewTool(c *Client) *tools.Tool {
	return &tools.Tool{
		Name:        "web_search",
		Description: "Search the web. Use for questions about current events or anything outside the project.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return "", fmt.Errorf("query is required")
			}

			results, err := c.Search(ctx, query)
			if err != nil {
				return fmt.Sprintf("Search failed: %v", err), nil
			}
			return FormatResults(query, results), nil
		},
	}
}
