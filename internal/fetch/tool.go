package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

// NewTool returns the fetch_url tool bound to a fetcher.
func NewTool(f *Fetcher) *tools.Tool {
	return &tools.Tool{
		Name:        "fetch_url",
		Description: "Download a web page and return its readable text. Use when the user shares a link or asks about a specific page.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The page URL",
				},
			},
			"required": []string{"url"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			rawURL, _ := args["url"].(string)
			if rawURL == "" {
				return "", fmt.Errorf("url is required")
			}

			page, err := f.Fetch(ctx, rawURL)
			if err != nil {
				return fmt.Sprintf("Could not fetch %s: %v", rawURL, err), nil
			}

			var b strings.Builder
			if page.Title != "" {
				fmt.Fprintf(&b, "%s\n%s\n\n", page.Title, page.URL)
			} else {
				fmt.Fprintf(&b, "%s\n\n", page.URL)
			}
			b.WriteString(page.Text)
			if page.Truncated {
				b.WriteString("\n… (truncated)")
			}
			return b.String(), nil
		},
	}
}
