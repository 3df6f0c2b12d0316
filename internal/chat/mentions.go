package chat

import (
	"regexp"
	"strings"
)

// mentionPattern matches platform mention tokens like <@U12345>.
var mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// Addressed reports whether text mentions the bot.
func Addressed(text, botUserID string) bool {
	if botUserID == "" {
		return false
	}
	return strings.Contains(text, "<@"+botUserID+">")
}

// CleanText prepares inbound text for the model: the bot's own mention
// is stripped, and other mention tokens are replaced with display names
// when known, or left as bare IDs.
func CleanText(text, botUserID string, names map[string]string) string {
	out := mentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		id := mentionPattern.FindStringSubmatch(m)[1]
		if id == botUserID {
			return ""
		}
		if name, ok := names[id]; ok {
			return "@" + name
		}
		return "@" + id
	})
	return strings.TrimSpace(strings.Join(strings.Fields(out), " "))
}
