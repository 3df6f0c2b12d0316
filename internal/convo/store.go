// Package convo holds per-context conversation history with a bounded
// retention policy.
package convo

import (
	"sync"
	"time"
)

// DefaultMaxTurns is the retention cap applied when a Store is created
// with a non-positive limit.
const DefaultMaxTurns = 20

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one stored message unit. Turns are immutable once appended.
// The system prompt is never stored as a turn; it is re-injected fresh
// on every model call so persona edits take effect immediately.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	// ToolName and ToolCallID are set only on tool-result turns.
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	At         time.Time `json:"at"`
}

// Store maps context keys to ordered turn sequences. Contexts are
// created on first append and live for the process lifetime; per-context
// growth is bounded by the retention cap, the number of contexts is not.
type Store struct {
	mu       sync.RWMutex
	maxTurns int
	convs    map[string][]Turn
}

// NewStore creates a conversation store. maxTurns <= 0 selects
// [DefaultMaxTurns].
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		maxTurns: maxTurns,
		convs:    make(map[string][]Turn),
	}
}

// Get returns a copy of the turn sequence for the key, oldest first.
// Unseen keys yield an empty slice. The copy is safe to read while
// concurrent appends run for the same key.
func (s *Store) Get(key string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.convs[key]
	out := make([]Turn, len(seq))
	copy(out, seq)
	return out
}

// Append adds one turn to the key's sequence, evicting from the front
// until the sequence is within the retention cap (FIFO: oldest turns
// go first, never the system prompt, which is not stored here).
func (s *Store) Append(key string, t Turn) {
	if t.At.IsZero() {
		t.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seq := append(s.convs[key], t)
	if over := len(seq) - s.maxTurns; over > 0 {
		seq = append([]Turn(nil), seq[over:]...)
	}
	s.convs[key] = seq
}

// Len returns the number of stored turns for the key.
func (s *Store) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs[key])
}

// Contexts returns the number of distinct context keys seen.
func (s *Store) Contexts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}
