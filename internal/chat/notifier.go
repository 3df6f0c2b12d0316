package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Notifier posts interim "working on it" notices for a context key. It
// satisfies the agent loop's notifier hook and exists apart from the
// Bridge so the loop can be wired before the bridge is.
type Notifier struct {
	poster Poster
	logger *slog.Logger
}

// NewNotifier creates a Notifier posting through p.
func NewNotifier(p Poster, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{poster: p, logger: logger.With("component", "notifier")}
}

// Notify posts text to the channel and thread encoded in contextKey.
// Best-effort: failures are logged and swallowed.
func (n *Notifier) Notify(contextKey, text string) {
	channel, thread, _ := strings.Cut(contextKey, ":")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := n.poster.Post(ctx, channel, thread, text); err != nil {
		n.logger.Debug("notify post failed", "context_key", contextKey, "error", err)
	}
}
