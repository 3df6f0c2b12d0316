package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ronvale/harbor-chat-agent/internal/httpkit"
)

// DefaultAPIBase is the workspace web API root.
const DefaultAPIBase = "https://slack.com/api"

// reconnectBase is the initial backoff between connection attempts;
// it doubles up to reconnectMax.
const (
	reconnectBase = 2 * time.Second
	reconnectMax  = 2 * time.Minute
)

// Socket maintains the Socket Mode connection and posts replies
// through the web API.
type Socket struct {
	apiBase    string
	botToken   string
	appToken   string
	httpClient *http.Client
	logger     *slog.Logger

	messages chan *Message
}

// NewSocket creates a Socket. apiBase falls back to DefaultAPIBase.
func NewSocket(apiBase, botToken, appToken string, logger *slog.Logger) *Socket {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		apiBase:    apiBase,
		botToken:   botToken,
		appToken:   appToken,
		httpClient: httpkit.NewClient(),
		logger:     logger.With("component", "chat"),
		messages:   make(chan *Message, 64),
	}
}

// Messages returns the inbound message channel. It is closed when Run
// returns.
func (s *Socket) Messages() <-chan *Message {
	return s.messages
}

// Run connects and reads events until ctx is cancelled, reconnecting
// with backoff on any failure.
func (s *Socket) Run(ctx context.Context) {
	defer close(s.messages)

	backoff := reconnectBase
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Server-requested disconnect; reconnect right away.
			backoff = reconnectBase
			continue
		}

		s.logger.Warn("socket connection lost, reconnecting",
			"error", err,
			"backoff", backoff,
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, reconnectMax)
	}
}

// connectAndRead opens one websocket session and reads frames until it
// fails. A disconnect frame from the server returns nil so the caller
// reconnects immediately with fresh backoff.
func (s *Socket) connectAndRead(ctx context.Context) error {
	wsURL, err := s.openConnection(ctx)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 16 * 1024,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	defer conn.Close()

	// Close the connection when ctx is cancelled so ReadJSON unblocks.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.logger.Info("socket connected")

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		switch env.Type {
		case "hello":
			s.logger.Debug("socket hello received")

		case "disconnect":
			s.logger.Info("socket disconnect requested", "reason", env.Reason)
			return nil

		case "events_api":
			s.acknowledge(conn, env.EnvelopeID)
			s.dispatch(&env.Payload.Event)

		default:
			s.acknowledge(conn, env.EnvelopeID)
			s.logger.Debug("socket unknown frame", "type", env.Type)
		}
	}
}

// acknowledge confirms receipt of an envelope. Best-effort; a failed
// ack just means the server redelivers.
func (s *Socket) acknowledge(conn *websocket.Conn, envelopeID string) {
	if envelopeID == "" {
		return
	}
	if err := conn.WriteJSON(ack{EnvelopeID: envelopeID}); err != nil {
		s.logger.Warn("socket ack failed", "envelope_id", envelopeID, "error", err)
	}
}

// dispatch forwards message events to the messages channel, dropping
// when the bridge has fallen behind.
func (s *Socket) dispatch(ev *event) {
	if ev.Type != "message" || ev.Subtype != "" || ev.Text == "" {
		return
	}
	// Messages from other bots carry a bot_id; never respond to them.
	if ev.BotID != "" {
		return
	}

	msg := &Message{
		Channel:   ev.Channel,
		Thread:    ev.ThreadTS,
		User:      ev.User,
		Text:      ev.Text,
		Timestamp: ev.TS,
	}
	select {
	case s.messages <- msg:
	default:
		s.logger.Warn("message channel full, dropping message", "channel", ev.Channel)
	}
}

// openConnection requests a fresh websocket URL via the web API.
func (s *Socket) openConnection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/apps.connections.open", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.appToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("connections.open: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	var body struct {
		OK    bool   `json:"ok"`
		URL   string `json:"url"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode connections.open: %w", err)
	}
	if !body.OK {
		return "", fmt.Errorf("connections.open refused: %s", body.Error)
	}
	return body.URL, nil
}

// Post sends a message to a channel, threaded when thread is non-empty.
func (s *Socket) Post(ctx context.Context, channel, thread, text string) error {
	payload := map[string]any{
		"channel": channel,
		"text":    text,
	}
	if thread != "" {
		payload["thread_ts"] = thread
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/chat.postMessage", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode chat.postMessage: %w", err)
	}
	if !body.OK {
		return fmt.Errorf("chat.postMessage refused: %s", body.Error)
	}
	return nil
}
