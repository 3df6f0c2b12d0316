// Package chat connects the agent to the team chat workspace over
// Socket Mode: a websocket for inbound events plus the HTTP web API
// for posting replies.
package chat

// Message is one inbound chat message the bridge may act on.
type Message struct {
	Channel   string // channel ID
	Thread    string // thread timestamp, empty outside threads
	User      string // sender user ID
	Text      string
	Timestamp string // message timestamp, doubles as thread root ID
}

// envelope is the Socket Mode frame wrapper. Every events_api frame
// must be acknowledged by envelope ID or the server redelivers it.
type envelope struct {
	EnvelopeID string  `json:"envelope_id,omitempty"`
	Type       string  `json:"type"`
	Reason     string  `json:"reason,omitempty"` // set on disconnect frames
	Payload    payload `json:"payload,omitempty"`
}

type payload struct {
	Event event `json:"event"`
}

type event struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype,omitempty"`
	Channel  string `json:"channel"`
	User     string `json:"user"`
	BotID    string `json:"bot_id,omitempty"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

type ack struct {
	EnvelopeID string `json:"envelope_id"`
}
