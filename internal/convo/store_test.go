package convo

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetUnseenKey(t *testing.T) {
	s := NewStore(0)
	if got := s.Get("nope"); len(got) != 0 {
		t.Errorf("Get() for unseen key = %v, want empty", got)
	}
}

func TestAppendStampsTime(t *testing.T) {
	s := NewStore(0)
	s.Append("c1", Turn{Role: RoleUser, Content: "hi"})

	got := s.Get("c1")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].At.IsZero() {
		t.Error("Append did not stamp At")
	}
}

func TestFIFOEviction(t *testing.T) {
	s := NewStore(0)

	// Each respond cycle appends two turns. After 11 calls (22 turns
	// attempted) the store must hold the 20 most recent: calls 2-11.
	for call := 1; call <= 11; call++ {
		s.Append("c1", Turn{Role: RoleUser, Content: fmt.Sprintf("u%d", call)})
		s.Append("c1", Turn{Role: RoleAssistant, Content: fmt.Sprintf("a%d", call)})
	}

	got := s.Get("c1")
	if len(got) != 20 {
		t.Fatalf("len = %d, want cap of 20", len(got))
	}
	if got[0].Content != "u2" {
		t.Errorf("oldest retained = %q, want u2 (call 1 evicted)", got[0].Content)
	}
	if got[19].Content != "a11" {
		t.Errorf("newest retained = %q, want a11", got[19].Content)
	}
}

func TestCustomCap(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Append("c1", Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	got := s.Get("c1")
	if len(got) != 3 || got[0].Content != "m2" {
		t.Errorf("got %v, want m2..m4", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore(0)
	s.Append("c1", Turn{Role: RoleUser, Content: "original"})

	view := s.Get("c1")
	view[0].Content = "mutated"

	if got := s.Get("c1"); got[0].Content != "original" {
		t.Error("Get() exposed internal storage")
	}
}

func TestConcurrentAppendNoLostUpdates(t *testing.T) {
	s := NewStore(1000)
	var wg sync.WaitGroup
	const writers = 8
	const perWriter = 50

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Append("c1", Turn{Role: RoleUser, Content: fmt.Sprintf("w%d-%d", w, i)})
				_ = s.Get("c1") // concurrent reads must not race
			}
		}(w)
	}
	wg.Wait()

	if got := s.Len("c1"); got != writers*perWriter {
		t.Errorf("Len = %d, want %d (no lost updates)", got, writers*perWriter)
	}
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		channel, thread string
		scope           Scope
		want            string
	}{
		{"C1", "171.001", ScopeThread, "C1:171.001"},
		{"C1", "", ScopeThread, "C1"},
		{"C1", "171.001", ScopeChannel, "C1"},
		{"C1", "", ScopeChannel, "C1"},
	}
	for _, tt := range tests {
		if got := KeyFor(tt.channel, tt.thread, tt.scope); got != tt.want {
			t.Errorf("KeyFor(%q, %q, %q) = %q, want %q", tt.channel, tt.thread, tt.scope, got, tt.want)
		}
	}
}

func TestParseScope(t *testing.T) {
	if ParseScope("channel") != ScopeChannel {
		t.Error("ParseScope(channel) != ScopeChannel")
	}
	if ParseScope("") != ScopeThread {
		t.Error("ParseScope empty should default to thread")
	}
	if ParseScope("bogus") != ScopeThread {
		t.Error("ParseScope bogus should default to thread")
	}
}
