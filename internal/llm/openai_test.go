package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatDecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ToolChoice != "auto" {
			t.Errorf("tool_choice = %q, want auto when tools present", req.ToolChoice)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "create_ticket",
							"arguments": `{"summary":"Fix bug"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 7},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL, nil)
	resp, err := c.Chat(context.Background(), "gpt-4o", []Message{{Role: "user", Content: "hi"}},
		[]map[string]any{{"type": "function"}})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}

	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(resp.Message.ToolCalls))
	}
	tc := resp.Message.ToolCalls[0]
	if tc.Name != "create_ticket" || tc.ID != "call_1" {
		t.Errorf("tool call = %+v", tc)
	}
	if got, _ := tc.Arguments["summary"].(string); got != "Fix bug" {
		t.Errorf("summary = %q, want Fix bug", got)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 7 {
		t.Errorf("tokens = %d/%d, want 12/7", resp.InputTokens, resp.OutputTokens)
	}
}

func TestChatMalformedArgumentsPreservedRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": "let me try that",
					"tool_calls": []map[string]any{{
						"id":   "call_2",
						"type": "function",
						"function": map[string]any{
							"name":      "create_ticket",
							"arguments": `{"summary": unterminated`,
						},
					}},
				},
			}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL, nil)
	resp, err := c.Chat(context.Background(), "gpt-4o", []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}

	tc := resp.Message.ToolCalls[0]
	if !tc.Malformed() {
		t.Error("Malformed() = false, want true for undecodable arguments")
	}
	if tc.RawArguments == "" {
		t.Error("RawArguments empty, want original text preserved")
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL, nil)
	_, err := c.Chat(context.Background(), "gpt-4o", []Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Chat() succeeded, want error for 429")
	}
}

func TestConvertToOpenAIToolResult(t *testing.T) {
	msgs := convertToOpenAI([]Message{
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "call_1", Name: "get_issues", Arguments: map[string]any{}}}},
		{Role: "tool", Content: "No open Issues.", ToolCallID: "call_1"},
	})

	if msgs[0].ToolCalls[0].Function.Arguments != "{}" {
		t.Errorf("empty arguments encoded as %q, want {}", msgs[0].ToolCalls[0].Function.Arguments)
	}
	if msgs[1].ToolCallID != "call_1" {
		t.Errorf("tool result ToolCallID = %q, want call_1", msgs[1].ToolCallID)
	}
}
