package reports

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ronvale/harbor-chat-agent/internal/llm"
)

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeLLM) Chat(ctx context.Context, model string, messages []llm.Message, tools []map[string]any) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: f.reply}, Done: true}, nil
}

func (f *fakeLLM) Ping(ctx context.Context) error { return nil }

type fakeSink struct {
	mu    sync.Mutex
	posts []struct{ channel, text string }
}

func (f *fakeSink) Post(ctx context.Context, channel, thread, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, struct{ channel, text string }{channel, text})
	return nil
}

func src(name, text string, err error) Source {
	return SourceFunc{SourceName: name, Fn: func(ctx context.Context) (string, error) {
		return text, err
	}}
}

func TestPost(t *testing.T) {
	model := &fakeLLM{reply: "All quiet. 3 issues open."}
	sink := &fakeSink{}

	r := New(Config{
		LLM:     model,
		Model:   "gpt-4o",
		Sources: []Source{src("Issues", "3 open issues", nil)},
		Sink:    sink,
		Channel: "C-reports",
	})

	if err := r.Post(context.Background()); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(sink.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(sink.posts))
	}
	if sink.posts[0].channel != "C-reports" || sink.posts[0].text != "All quiet. 3 issues open." {
		t.Errorf("post = %+v", sink.posts[0])
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], "3 open issues") {
		t.Errorf("model prompts = %v", model.prompts)
	}
}

func TestPostSkipsWhenNoMaterial(t *testing.T) {
	model := &fakeLLM{reply: "should not run"}
	sink := &fakeSink{}

	r := New(Config{
		LLM:     model,
		Sources: []Source{src("Empty", "", nil)},
		Sink:    sink,
		Channel: "C",
	})

	if err := r.Post(context.Background()); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(sink.posts) != 0 {
		t.Errorf("posted with no material")
	}
	if len(model.prompts) != 0 {
		t.Errorf("model called with no material")
	}
}

func TestPostSurvivesFailingSource(t *testing.T) {
	model := &fakeLLM{reply: "partial report"}
	sink := &fakeSink{}

	r := New(Config{
		LLM: model,
		Sources: []Source{
			src("Broken", "", fmt.Errorf("backend down")),
			src("Issues", "2 open issues", nil),
		},
		Sink:    sink,
		Channel: "C",
	})

	if err := r.Post(context.Background()); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(sink.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(sink.posts))
	}
	if !strings.Contains(model.prompts[0], "2 open issues") {
		t.Errorf("surviving source material missing: %q", model.prompts[0])
	}
	if strings.Contains(model.prompts[0], "Broken") {
		t.Errorf("failed source leaked into material: %q", model.prompts[0])
	}
}

func TestPostSectionsKeepSourceOrder(t *testing.T) {
	model := &fakeLLM{reply: "ok"}

	r := New(Config{
		LLM: model,
		Sources: []Source{
			src("First", "alpha", nil),
			src("Second", "beta", nil),
		},
		Sink:    &fakeSink{},
		Channel: "C",
	})

	if err := r.Post(context.Background()); err != nil {
		t.Fatalf("Post: %v", err)
	}
	prompt := model.prompts[0]
	if strings.Index(prompt, "## First") > strings.Index(prompt, "## Second") {
		t.Errorf("sections out of order: %q", prompt)
	}
}

func TestPostModelFailure(t *testing.T) {
	r := New(Config{
		LLM:     &fakeLLM{err: fmt.Errorf("rate limited")},
		Sources: []Source{src("Issues", "stuff", nil)},
		Sink:    &fakeSink{},
		Channel: "C",
	})

	if err := r.Post(context.Background()); err == nil {
		t.Error("Post returned nil on model failure")
	}
}
