// Package llm provides the language model client abstraction.
package llm

import "time"

// Message is a chat message in the provider-neutral format. Wire format
// conversion happens at the provider boundary (openai.go).
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`    // set on tool result messages
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on tool result messages
}

// ToolCall is a structured tool invocation emitted by the model.
type ToolCall struct {
	// ID is the provider-assigned call identifier, echoed back on the
	// tool result message for correlation.
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	// Arguments is the decoded argument payload. Nil when the provider
	// delivered arguments that failed to parse; RawArguments then holds
	// the undecoded text so callers can decide how to degrade.
	Arguments    map[string]any `json:"arguments,omitempty"`
	RawArguments string         `json:"-"`
}

// Malformed reports whether the call carried an argument payload that
// could not be decoded.
func (tc ToolCall) Malformed() bool {
	return tc.Arguments == nil && tc.RawArguments != ""
}

// ChatResponse is the unified response from any provider.
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message
	Done      bool

	InputTokens  int
	OutputTokens int
}
