package llm

import "context"

// Client is the interface all language model providers implement.
type Client interface {
	// Chat sends a chat completion request. tools carries function
	// declarations in the OpenAI function shape; when non-empty the
	// provider must request automatic tool choice (the model decides
	// whether to call a tool). A nil tools slice disables tool calling
	// for the request.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping checks whether the provider is reachable and authorized.
	Ping(ctx context.Context) error
}
