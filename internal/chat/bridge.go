package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ronvale/harbor-chat-agent/internal/convo"
	"github.com/ronvale/harbor-chat-agent/internal/events"
)

// Runner abstracts the agent loop for testability. The real
// implementation is *agent.Loop.
type Runner interface {
	Respond(ctx context.Context, contextKey, systemPrompt, userInput string) string
}

// Poster sends messages into the workspace. The real implementation is
// *Socket.
type Poster interface {
	Post(ctx context.Context, channel, thread, text string) error
}

// handleTimeout bounds how long one inbound message may be processed.
const handleTimeout = 5 * time.Minute

// rateWindow is the sliding window for per-sender rate limiting.
const rateWindow = time.Minute

// BridgeConfig holds the dependencies for a Bridge.
type BridgeConfig struct {
	Logger       *slog.Logger
	Messages     <-chan *Message
	Poster       Poster
	Runner       Runner
	SystemPrompt func() string // called fresh per message
	BotUserID    string
	MentionNames map[string]string
	RateLimit    int // per sender per minute; 0 = unlimited
	Scope        convo.Scope
	Bus          *events.Bus
}

// Bridge receives workspace messages, decides which ones address the
// bot, and routes them through the agent loop.
type Bridge struct {
	logger       *slog.Logger
	messages     <-chan *Message
	poster       Poster
	runner       Runner
	systemPrompt func() string
	botUserID    string
	names        map[string]string
	rateLimit    int
	scope        convo.Scope
	bus          *events.Bus

	mu            sync.Mutex
	senderTimes   map[string][]time.Time
	activeThreads map[string]bool // threads the bot has replied in
}

// NewBridge creates a Bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prompt := cfg.SystemPrompt
	if prompt == nil {
		prompt = func() string { return "" }
	}
	return &Bridge{
		logger:        logger.With("component", "bridge"),
		messages:      cfg.Messages,
		poster:        cfg.Poster,
		runner:        cfg.Runner,
		systemPrompt:  prompt,
		botUserID:     cfg.BotUserID,
		names:         cfg.MentionNames,
		rateLimit:     cfg.RateLimit,
		scope:         cfg.Scope,
		bus:           cfg.Bus,
		senderTimes:   make(map[string][]time.Time),
		activeThreads: make(map[string]bool),
	}
}

// Start consumes messages until ctx is cancelled or the message
// channel closes.
func (b *Bridge) Start(ctx context.Context) {
	b.logger.Info("chat bridge started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("chat bridge shutting down")
			return
		case msg, ok := <-b.messages:
			if !ok {
				b.logger.Info("message channel closed, bridge stopping")
				return
			}
			b.handleMessage(ctx, msg)
		}
	}
}

// shouldRespond decides whether a message is addressed to the bot: a
// direct mention anywhere, or any message in a thread the bot already
// replied in.
func (b *Bridge) shouldRespond(msg *Message) bool {
	if msg.User == "" || msg.User == b.botUserID {
		return false
	}
	if Addressed(msg.Text, b.botUserID) {
		return true
	}
	if msg.Thread != "" {
		b.mu.Lock()
		active := b.activeThreads[msg.Channel+":"+msg.Thread]
		b.mu.Unlock()
		return active
	}
	return false
}

func (b *Bridge) handleMessage(ctx context.Context, msg *Message) {
	if !b.shouldRespond(msg) {
		return
	}
	if !b.allowSender(msg.User) {
		b.logger.Warn("message rate-limited", "user", msg.User)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	contextKey := convo.KeyFor(msg.Channel, msg.Thread, b.scope)
	input := CleanText(msg.Text, b.botUserID, b.names)
	if input == "" {
		return
	}

	b.logger.Info("message received",
		"user", msg.User,
		"context_key", contextKey,
		"message_len", len(input),
	)
	b.bus.Publish(events.Event{
		Source: events.SourceChat,
		Kind:   events.KindMessageReceived,
		Data:   map[string]any{"context_key": contextKey, "user": msg.User},
	})

	reply := b.runner.Respond(ctx, contextKey, b.systemPrompt(), input)
	if reply == "" {
		return
	}

	// Replies to channel messages open a thread on the triggering
	// message; replies inside a thread stay in it.
	thread := msg.Thread
	if thread == "" {
		thread = msg.Timestamp
	}

	if err := b.poster.Post(ctx, msg.Channel, thread, ToMrkdwn(reply)); err != nil {
		b.logger.Error("reply post failed",
			"channel", msg.Channel,
			"context_key", contextKey,
			"error", err,
		)
		return
	}

	b.mu.Lock()
	b.activeThreads[msg.Channel+":"+thread] = true
	b.mu.Unlock()

	b.logger.Info("reply sent", "channel", msg.Channel, "context_key", contextKey)
}

// allowSender checks the per-minute rate limit for a sender.
func (b *Bridge) allowSender(user string) bool {
	if b.rateLimit <= 0 {
		return true
	}

	now := time.Now()
	cutoff := now.Add(-rateWindow)

	b.mu.Lock()
	defer b.mu.Unlock()

	timestamps := b.senderTimes[user]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= b.rateLimit {
		b.senderTimes[user] = valid
		return false
	}

	b.senderTimes[user] = append(valid, now)
	return true
}
