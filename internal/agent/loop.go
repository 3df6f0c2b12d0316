// Package agent implements the core agent loop: one inbound message in,
// one reply out, with tool dispatch and failsafe recovery in between.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ronvale/harbor-chat-agent/internal/convo"
	"github.com/ronvale/harbor-chat-agent/internal/events"
	"github.com/ronvale/harbor-chat-agent/internal/failsafe"
	"github.com/ronvale/harbor-chat-agent/internal/llm"
	"github.com/ronvale/harbor-chat-agent/internal/tools"
)

const (
	// systemErrorPrefix marks replies produced when the model endpoint
	// itself failed. The conversation stays coherent: the error reply
	// is stored in history like any other assistant turn.
	systemErrorPrefix = "System Error: "

	// defaultAck replaces blank or whitespace-only final text so the
	// user always receives something.
	defaultAck = "Done."

	// fallbackText is returned when a structured call was unusable and
	// the model supplied no accompanying text.
	fallbackText = "I wasn't able to complete that request."
)

// Notifier delivers intermediate "working on it" notices. Delivery is
// fire-and-forget; failures are not the loop's concern.
type Notifier interface {
	Notify(contextKey, text string)
}

// Config holds the dependencies for a Loop.
type Config struct {
	Logger   *slog.Logger
	Store    *convo.Store
	Registry *tools.Registry
	LLM      llm.Client
	Model    string
	// AllowedTools restricts which registered tools this loop may
	// advertise and execute. Nil means all registered tools.
	AllowedTools []string
	// Notifier, when set, receives a notice before slow tool work.
	Notifier Notifier
	Bus      *events.Bus
}

// Loop is the orchestrator. It owns no I/O of its own: the model
// client, tool handlers, and notifier are injected collaborators.
type Loop struct {
	logger   *slog.Logger
	store    *convo.Store
	registry *tools.Registry
	llm      llm.Client
	model    string
	allowed  []string
	notifier Notifier
	bus      *events.Bus
	recovery *failsafe.Layer

	// Respond is serialized per context key so rapid double-sends in
	// one conversation cannot interleave their history appends.
	// Different contexts run concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLoop creates an agent loop. All tools must be registered before
// the loop is constructed: the failsafe recognizers are compiled here,
// in registration order, which fixes their priority.
func NewLoop(cfg Config) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allowed := cfg.AllowedTools
	if allowed == nil {
		allowed = cfg.Registry.Names()
	}

	var specs []failsafe.ToolSpec
	for _, name := range allowed {
		t, ok := cfg.Registry.Get(name)
		if !ok {
			continue
		}
		specs = append(specs, failsafe.ToolSpec{
			Name:   name,
			Params: t.RequiredParams(),
		})
	}

	return &Loop{
		logger:   logger.With("component", "agent"),
		store:    cfg.Store,
		registry: cfg.Registry,
		llm:      cfg.LLM,
		model:    cfg.Model,
		allowed:  allowed,
		notifier: cfg.Notifier,
		bus:      cfg.Bus,
		recovery: failsafe.New(specs),
		locks:    make(map[string]*sync.Mutex),
	}
}

// contextLock returns the mutex serializing Respond for one context.
func (l *Loop) contextLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[key] = lk
	}
	return lk
}

// Respond processes one inbound message and returns the final reply
// text. It never panics and never returns an empty string: model
// failures become "System Error: …" replies, blank output becomes a
// default acknowledgement. Exactly one user turn and one assistant
// turn are appended to history per call, on every path.
func (l *Loop) Respond(ctx context.Context, contextKey, systemPrompt, userInput string) string {
	requestID := uuid.NewString()
	start := time.Now()

	lk := l.contextLock(contextKey)
	lk.Lock()
	defer lk.Unlock()

	l.logger.Info("request started",
		"request_id", requestID,
		"context", contextKey,
		"input_len", len(userInput),
	)
	l.bus.Publish(events.Event{
		Source: events.SourceAgent,
		Kind:   events.KindRequestStart,
		Data:   map[string]any{"request_id": requestID, "context_key": contextKey},
	})

	// The system prompt is supplied fresh on every call and never
	// stored, so persona edits take effect on the next turn.
	history := l.store.Get(contextKey)
	newTurns := []llm.Message{{Role: "user", Content: userInput}}
	schema := l.registry.SchemaFor(l.allowed)

	finalText := ""
	resp, err := l.chat(ctx, requestID, 1, buildRequest(systemPrompt, history, newTurns), schema)
	switch {
	case err != nil:
		l.logger.Error("model call failed", "request_id", requestID, "error", err)
		finalText = systemErrorPrefix + err.Error()
	case len(resp.Message.ToolCalls) > 0:
		finalText = l.runStructured(ctx, requestID, contextKey, systemPrompt, history, newTurns, resp)
	default:
		finalText = l.runFailsafe(ctx, requestID, contextKey, resp.Message.Content)
	}

	if strings.TrimSpace(finalText) == "" {
		finalText = defaultAck
	}

	l.store.Append(contextKey, convo.Turn{Role: convo.RoleUser, Content: userInput})
	l.store.Append(contextKey, convo.Turn{Role: convo.RoleAssistant, Content: finalText})

	l.logger.Info("request complete",
		"request_id", requestID,
		"context", contextKey,
		"elapsed", time.Since(start),
	)
	l.bus.Publish(events.Event{
		Source: events.SourceAgent,
		Kind:   events.KindRequestComplete,
		Data: map[string]any{
			"request_id":  requestID,
			"context_key": contextKey,
			"elapsed_ms":  time.Since(start).Milliseconds(),
		},
	})

	return finalText
}

// runStructured handles a response carrying structured tool calls.
// Only the first call is taken; additional parallel calls in the same
// response are ignored. The tool result is fed back to the model in a
// second, schema-free pass so the reply incorporates it naturally.
func (l *Loop) runStructured(ctx context.Context, requestID, contextKey, systemPrompt string, history []convo.Turn, newTurns []llm.Message, resp *llm.ChatResponse) string {
	tc := resp.Message.ToolCalls[0]
	if n := len(resp.Message.ToolCalls); n > 1 {
		l.logger.Warn("ignoring additional tool calls in one response",
			"request_id", requestID, "extra", n-1)
	}

	if tc.Malformed() {
		// Arguments did not parse. Treat the response as if no call
		// were present: use the model's accompanying text if any.
		l.logger.Warn("malformed tool arguments",
			"request_id", requestID, "tool", tc.Name, "raw", tc.RawArguments)
		if resp.Message.Content != "" {
			return resp.Message.Content
		}
		return fallbackText
	}

	if l.notifier != nil {
		l.notifier.Notify(contextKey, "Working on it…")
	}

	out, ok := l.execute(ctx, requestID, tc.Name, tc.Arguments, "structured")
	if !ok {
		// The model named a tool outside the registry: a contract
		// violation, surfaced as a generic failure rather than a crash.
		return fallbackText
	}

	newTurns = append(newTurns,
		llm.Message{Role: "assistant", Content: resp.Message.Content, ToolCalls: []llm.ToolCall{tc}},
		llm.Message{Role: "tool", Content: out, ToolName: tc.Name, ToolCallID: tc.ID},
	)

	// Final-answer pass: no tool schema, the model must produce text.
	second, err := l.chat(ctx, requestID, 2, buildRequest(systemPrompt, history, newTurns), nil)
	if err != nil {
		l.logger.Error("final-answer call failed", "request_id", requestID, "error", err)
		return systemErrorPrefix + err.Error()
	}
	return second.Message.Content
}

// runFailsafe handles a plain-text response: scan it for a missed tool
// call and, on a hit, return the tool's raw output directly. Unlike the
// structured branch there is no second model pass; failsafe results are
// deliberately not re-summarized.
func (l *Loop) runFailsafe(ctx context.Context, requestID, contextKey, text string) string {
	act := l.recovery.Resolve(text)
	if act.Kind != failsafe.ExecuteTool {
		return act.Text
	}

	if l.notifier != nil {
		l.notifier.Notify(contextKey, "Working on it…")
	}

	out, ok := l.execute(ctx, requestID, act.Tool, act.Args, "failsafe")
	if !ok {
		return text
	}
	return out
}

// execute runs one tool and reports whether dispatch succeeded. Handler
// failures are already text by the registry contract; only an unknown
// tool name yields ok=false.
func (l *Loop) execute(ctx context.Context, requestID, name string, args map[string]any, via string) (string, bool) {
	l.bus.Publish(events.Event{
		Source: events.SourceAgent,
		Kind:   events.KindToolCall,
		Data:   map[string]any{"request_id": requestID, "tool": name, "via": via},
	})

	start := time.Now()
	out, err := l.registry.Execute(ctx, name, args)
	if err != nil {
		l.logger.Error("tool dispatch failed",
			"request_id", requestID, "tool", name, "via", via, "error", err)
		return "", false
	}

	l.logger.Debug("tool executed",
		"request_id", requestID,
		"tool", name,
		"via", via,
		"output_len", len(out),
		"elapsed", time.Since(start),
	)
	l.bus.Publish(events.Event{
		Source: events.SourceAgent,
		Kind:   events.KindToolDone,
		Data: map[string]any{
			"request_id":  requestID,
			"tool":        name,
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
	return out, true
}

// chat wraps the model call with lifecycle events.
func (l *Loop) chat(ctx context.Context, requestID string, pass int, messages []llm.Message, schema []map[string]any) (*llm.ChatResponse, error) {
	l.bus.Publish(events.Event{
		Source: events.SourceAgent,
		Kind:   events.KindLLMCall,
		Data:   map[string]any{"request_id": requestID, "pass": pass, "model": l.model},
	})

	resp, err := l.llm.Chat(ctx, l.model, messages, schema)
	if err != nil {
		return nil, err
	}

	l.bus.Publish(events.Event{
		Source: events.SourceAgent,
		Kind:   events.KindLLMResponse,
		Data: map[string]any{
			"request_id": requestID,
			"pass":       pass,
			"tokens_in":  resp.InputTokens,
			"tokens_out": resp.OutputTokens,
			"tool_calls": len(resp.Message.ToolCalls),
		},
	})
	return resp, nil
}
