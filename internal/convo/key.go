package convo

// Scope controls how conversation history is partitioned between
// threads and channels. The sources this design descends from were
// inconsistent about the granularity, so it is an explicit policy here
// rather than an accident of whichever handler ran first.
type Scope string

const (
	// ScopeThread keys history by thread when the message belongs to
	// one, falling back to the channel for top-level messages.
	ScopeThread Scope = "thread"
	// ScopeChannel shares one history across the whole channel,
	// threads included.
	ScopeChannel Scope = "channel"
)

// ParseScope maps a config string to a Scope, defaulting to ScopeThread
// for empty or unrecognized values.
func ParseScope(s string) Scope {
	if Scope(s) == ScopeChannel {
		return ScopeChannel
	}
	return ScopeThread
}

// KeyFor derives the context key for an inbound message. thread is
// empty for top-level channel messages.
func KeyFor(channel, thread string, scope Scope) string {
	if scope == ScopeThread && thread != "" {
		return channel + ":" + thread
	}
	return channel
}
