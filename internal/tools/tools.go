// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// Tool represents a callable capability advertised to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema object

	// Handler performs the actual work. Handlers are expected to catch
	// their own I/O errors and return a human-readable message as their
	// output where possible; any error they do return is converted to
	// result text by Execute so the conversation never hard-crashes on
	// a downstream failure.
	Handler func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// RequiredParams returns the tool's required parameter names in schema
// order. The failsafe layer uses this list to map positional quoted
// arguments onto named arguments.
func (t *Tool) RequiredParams() []string {
	req, ok := t.Parameters["required"].([]string)
	if ok {
		return req
	}
	// Tolerate []any from decoded JSON schemas.
	if anyReq, ok := t.Parameters["required"].([]any); ok {
		out := make([]string, 0, len(anyReq))
		for _, v := range anyReq {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Registry holds the fixed catalog of tools. Registration order is
// retained: it determines failsafe recognition priority and the order
// of advertised schemas.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. It fails with [ErrDuplicateTool] if a tool with
// the same name already exists.
func (r *Registry) Register(t *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return &ErrDuplicateTool{ToolName: t.Name}
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister registers a set of tools and panics on duplicates. For
// use at startup where a duplicate is a programming error.
func (r *Registry) MustRegister(ts ...*Tool) {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Schema returns declarations for every registered tool in the shape
// the model-calling protocol expects, in registration order.
func (r *Registry) Schema() []map[string]any {
	return r.SchemaFor(r.Names())
}

// SchemaFor returns declarations for the named subset of tools, in
// registration order. Unknown names are skipped. Callers pass a reduced
// subset to limit what a given conversation context may invoke.
func (r *Registry) SchemaFor(names []string) []map[string]any {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []map[string]any
	for _, name := range r.order {
		if !allowed[name] {
			continue
		}
		t := r.tools[name]
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  params,
			},
		})
	}
	return result
}

// Execute runs a tool by name. It fails with [ErrUnknownTool] when no
// such tool is registered. A handler error is converted to descriptive
// result text rather than propagated, so tool failures surface to the
// user as ordinary answers.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", &ErrUnknownTool{ToolName: name}
	}

	if args == nil {
		args = map[string]any{}
	}

	out, err := t.Handler(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %s failed: %v", name, err), nil
	}
	return out, nil
}
