package kvmem

import (
	"context"
	"fmt"
	"strings"

	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

// ToolSet returns the memory tools bound to a store.
func ToolSet(s *Store) []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "remember",
			Description: "Store a fact under a short key so it can be recalled later. Overwrites any previous value for the key.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":        "string",
						"description": "Short identifier for the fact (e.g., 'deploy_day')",
					},
					"value": map[string]any{
						"type":        "string",
						"description": "The fact to store",
					},
				},
				"required": []string{"key", "value"},
			},
			Handler: rememberHandler(s),
		},
		{
			Name:        "recall",
			Description: "Retrieve a remembered fact by key, or list everything remembered when no key is given.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":        "string",
						"description": "Key to look up; omit to list all",
					},
				},
			},
			Handler: recallHandler(s),
		},
	}
}

func rememberHandler(s *Store) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		key, _ := args["key"].(string)
		value, _ := args["value"].(string)
		if key == "" || value == "" {
			return "", fmt.Errorf("key and value are required")
		}

		if _, err := s.Set(key, value); err != nil {
			return fmt.Sprintf("Could not store that: %v", err), nil
		}
		return fmt.Sprintf("Remembered %q.", key), nil
	}
}

func recallHandler(s *Store) func(ctx context.Context, args map[string]any) (string, error) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		key, _ := args["key"].(string)

		if key != "" {
			entry, err := s.Get(key)
			if err != nil {
				return fmt.Sprintf("Could not look that up: %v", err), nil
			}
			if entry == nil {
				return fmt.Sprintf("Nothing remembered under %q.", key), nil
			}
			return fmt.Sprintf("%s: %s", entry.Key, entry.Value), nil
		}

		entries, err := s.List()
		if err != nil {
			return fmt.Sprintf("Could not list memory: %v", err), nil
		}
		if len(entries) == 0 {
			return "Nothing remembered yet.", nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Remembered %d item(s):\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s: %s\n", e.Key, e.Value)
		}
		return b.String(), nil
	}
}
