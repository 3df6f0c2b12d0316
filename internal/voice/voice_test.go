package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestSynthesize(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req speechRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Input != "hello there" || req.Voice != "nova" || req.Model != "tts-1" {
			t.Errorf("request = %+v", req)
		}
		w.Write(audio)
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := New(srv.URL, "key", "", "", dir, nil)

	path, err := s.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".mp3") {
		t.Errorf("path = %q", path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("audio = %q", got)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	s := New("http://unused", "key", "", "", t.TempDir(), nil)
	if _, err := s.Synthesize(context.Background(), ""); err == nil {
		t.Error("Synthesize accepted empty text")
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad voice"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := New(srv.URL, "key", "", "", t.TempDir(), nil)
	if _, err := s.Synthesize(context.Background(), "hi"); err == nil {
		t.Error("Synthesize returned nil error on HTTP 400")
	}
}

func TestToolConvertsFailureToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := NewTool(New(srv.URL, "key", "", "", t.TempDir(), nil))
	out, err := tool.Handler(context.Background(), map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("handler error = %v, want failure as text", err)
	}
	if !strings.Contains(out, "Could not synthesize") {
		t.Errorf("out = %q", out)
	}
}
