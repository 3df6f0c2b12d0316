package agent

import (
	"github.com/ronvale/harbor-chat-agent/internal/convo"
	"github.com/ronvale/harbor-chat-agent/internal/llm"
)

// buildRequest assembles one outbound model request: system message,
// stored history oldest-first, then the in-flight turns for this cycle.
// The tool branch calls it twice with an accumulating newTurns slice;
// stored history is never mutated.
func buildRequest(systemPrompt string, history []convo.Turn, newTurns []llm.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+len(newTurns)+1)

	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})

	for _, t := range history {
		msgs = append(msgs, llm.Message{
			Role:       string(t.Role),
			Content:    t.Content,
			ToolName:   t.ToolName,
			ToolCallID: t.ToolCallID,
		})
	}

	return append(msgs, newTurns...)
}
