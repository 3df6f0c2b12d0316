// Package tools provides the tool registry and execution framework.
//
// This file defines sentinel error types for registry operations.
package tools

import "fmt"

// ErrDuplicateTool is returned by Register when a tool with the same
// name already exists. Tool names are the dispatch key and must be
// unique for the lifetime of the registry.
type ErrDuplicateTool struct {
	ToolName string
}

func (e *ErrDuplicateTool) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.ToolName)
}

// ErrUnknownTool is returned by Execute when no tool with the given
// name is registered. From a structured model call this indicates a
// contract violation; the failsafe layer treats it as "no match".
type ErrUnknownTool struct {
	ToolName string
}

func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.ToolName)
}
