package voice

import (
	"context"
	"fmt"

	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

// NewTool returns the speak tool bound to a synthesizer.
func NewTool(s *Synthesizer) *tools.Tool {
	return &tools.Tool{
		Name:        "speak",
		Description: "Convert text to a spoken audio file. Use only when the user explicitly asks to hear something.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to speak",
				},
			},
			"required": []string{"text"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			if text == "" {
				return "", fmt.Errorf("text is required")
			}

			path, err := s.Synthesize(ctx, text)
			if err != nil {
				return fmt.Sprintf("Could not synthesize speech: %v", err), nil
			}
			return fmt.Sprintf("Audio saved to %s", path), nil
		},
	}
}
