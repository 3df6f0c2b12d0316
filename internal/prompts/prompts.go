// Package prompts contains the LLM prompt templates Harbor sends to
// models. Prompt text is Go code rather than config files because it
// is program logic: templates use fmt.Sprintf interpolation and can be
// validated by tests. The operator-supplied persona lives in a file
// named by config and is layered on top of the defaults here.
package prompts

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// basePrompt is the standing instruction set every request carries.
// The single format verb receives the current date.
const basePrompt = `You are Harbor, a helpful engineering team assistant living in the team chat.

Today's date is %s.

Ground rules:
- Be concise. Chat messages should rarely exceed a short paragraph.
- Use the available tools when a question needs live data. Do not guess
  at ticket numbers, file contents, or search results.
- When a tool has done the work, summarize its result plainly.
- If you cannot help, say so briefly instead of inventing an answer.`

// SystemPrompt assembles the per-request system prompt: base
// instructions, current date, and the operator persona when one is
// configured. It is rebuilt on every call so the date stays current
// and persona edits take effect without a restart.
func SystemPrompt(personaFile string) string {
	prompt := fmt.Sprintf(basePrompt, time.Now().Format("Monday, January 2, 2006"))

	if personaFile == "" {
		return prompt
	}
	persona, err := os.ReadFile(personaFile)
	if err != nil {
		return prompt
	}
	text := strings.TrimSpace(string(persona))
	if text == "" {
		return prompt
	}
	return prompt + "\n\n" + text
}

// reportTemplate asks the model to compose the periodic status report.
// The single format verb receives the gathered source material.
const reportTemplate = `Write a short status report for the team channel.

Source material:
%s

Rules:
- Lead with anything that needs attention today.
- Group related items; drop anything stale or trivial.
- Keep it under 200 words. Plain markdown, no preamble.`

// ReportPrompt returns the report composition prompt for the gathered
// summaries.
func ReportPrompt(material string) string {
	return fmt.Sprintf(reportTemplate, material)
}
