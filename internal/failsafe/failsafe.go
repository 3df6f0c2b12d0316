// Package failsafe recovers tool-call intent from model output that
// embeds a call as literal text instead of using the structured
// tool-calling mechanism. This happens non-deterministically across
// model backends, so the layer is a best-effort compatibility shim: it
// either produces the same resolved action a structured call would, or
// signals that the text should be returned verbatim. It never returns
// an error; every internal parse failure degrades to "no match".
package failsafe

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ActionKind tags the resolved action variant.
type ActionKind int

const (
	// ReturnText means no tool was recognized; deliver Text verbatim.
	ReturnText ActionKind = iota
	// ExecuteTool means a tool call was recovered; run Tool with Args.
	ExecuteTool
)

// Action is the resolved outcome of scanning one model output.
type Action struct {
	Kind ActionKind
	Tool string
	Args map[string]any
	Text string
}

// ToolSpec describes one recognizable tool: its name and the parameter
// names, in order, that positional quoted arguments map onto.
type ToolSpec struct {
	Name   string
	Params []string
}

// Layer scans free text for tool-call-shaped substrings. Recognizers
// are tested in the order their specs were supplied (first registered
// wins) and only the first match is acted on.
type Layer struct {
	specs    []ToolSpec
	patterns []*regexp.Regexp
	known    map[string]ToolSpec
}

// callPattern matches "name(...)" with the parenthesized body captured.
func callPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(([^)]*)\)`)
}

// quotedArg captures one double- or single-quoted argument.
var quotedArg = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)

// New builds a recovery layer for the given tool specs. Spec order is
// significant: it is the recognition priority.
func New(specs []ToolSpec) *Layer {
	l := &Layer{
		specs: specs,
		known: make(map[string]ToolSpec, len(specs)),
	}
	for _, s := range specs {
		l.patterns = append(l.patterns, callPattern(s.Name))
		l.known[s.Name] = s
	}
	return l
}

// Resolve scans text and returns the action to take. The zero-risk
// contract: Resolve never panics and never errors; when in doubt the
// original text comes back unmodified.
func (l *Layer) Resolve(text string) Action {
	noMatch := Action{Kind: ReturnText, Text: text}

	// A payload that looks like raw JSON takes priority over the
	// fingerprint patterns.
	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "{") {
		if act, ok := l.resolveJSON(trimmed); ok {
			return act
		}
	}

	for i, spec := range l.specs {
		m := l.patterns[i].FindStringSubmatch(text)
		if m == nil {
			continue
		}

		// First matching recognizer wins; a failed extraction falls
		// through to verbatim text rather than trying other tools.
		args, ok := extractArgs(m[1], spec.Params)
		if !ok {
			return noMatch
		}
		return Action{Kind: ExecuteTool, Tool: spec.Name, Args: args}
	}

	return noMatch
}

// resolveJSON handles the degenerate structured-looking payload: raw
// text that parses as JSON with a "name" field naming a known tool.
// Arguments live under "parameters" or "arguments"; absent both, the
// whole object (minus "name") is the argument bag.
func (l *Layer) resolveJSON(trimmed string) (Action, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return Action{}, false
	}

	name, _ := payload["name"].(string)
	if _, known := l.known[name]; !known {
		return Action{}, false
	}

	if params, ok := payload["parameters"].(map[string]any); ok {
		return Action{Kind: ExecuteTool, Tool: name, Args: params}, true
	}
	if params, ok := payload["arguments"].(map[string]any); ok {
		return Action{Kind: ExecuteTool, Tool: name, Args: params}, true
	}

	args := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == "name" {
			continue
		}
		args[k] = v
	}
	return Action{Kind: ExecuteTool, Tool: name, Args: args}, true
}

// extractArgs pulls positional quoted arguments from the parenthesized
// call body and maps them onto the named parameters. Extraction fails
// when fewer quoted arguments are present than parameters expected.
func extractArgs(body string, params []string) (map[string]any, bool) {
	args := make(map[string]any, len(params))
	if len(params) == 0 {
		return args, true
	}

	matches := quotedArg.FindAllStringSubmatch(body, -1)
	if len(matches) < len(params) {
		return nil, false
	}

	for i, p := range params {
		val := matches[i][1]
		if val == "" && matches[i][2] != "" {
			val = matches[i][2]
		}
		args[p] = val
	}
	return args, true
}
