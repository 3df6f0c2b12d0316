package vision

import (
	"context"
	"fmt"

	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

// NewTool returns the describe_image tool bound to a describer.
func NewTool(d *Describer) *tools.Tool {
	return &tools.Tool{
		Name:        "describe_image",
		Description: "Look at an image URL and describe or answer questions about it.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The image URL",
				},
				"question": map[string]any{
					"type":        "string",
					"description": "Optional question about the image",
				},
			},
			"required": []string{"url"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			url, _ := args["url"].(string)
			if url == "" {
				return "", fmt.Errorf("url is required")
			}
			question, _ := args["question"].(string)

			desc, err := d.Describe(ctx, url, question)
			if err != nil {
				return fmt.Sprintf("Could not analyze the image: %v", err), nil
			}
			return desc, nil
		},
	}
}
