// Package voice synthesizes speech for the speak tool. Audio is
// written under the data directory and the tool reports the file path,
// which the chat layer can then upload.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ronvale/harbor-chat-agent/internal/httpkit"
)

// maxInputChars is the speech API's input limit.
const maxInputChars = 4096

// Synthesizer turns text into mp3 audio via an OpenAI-compatible
// speech endpoint.
type Synthesizer struct {
	baseURL    string
	apiKey     string
	model      string
	voice      string
	outDir     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Synthesizer. Audio files are written to outDir.
func New(baseURL, apiKey, model, voice, outDir string, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "nova"
	}
	return &Synthesizer{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		voice:      voice,
		outDir:     outDir,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(60 * time.Second)),
		logger:     logger.With("component", "voice"),
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// Synthesize converts text to speech and returns the written file path.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("voice: text is required")
	}
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	body, err := json.Marshal(speechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return "", fmt.Errorf("voice: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("voice: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice: request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voice: HTTP %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 4096))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("voice: read audio: %w", err)
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", fmt.Errorf("voice: create output dir: %w", err)
	}
	path := filepath.Join(s.outDir, fmt.Sprintf("speech-%s.mp3", uuid.NewString()))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("voice: write audio: %w", err)
	}

	s.logger.Debug("speech synthesized",
		"voice", s.voice,
		"chars", len(text),
		"bytes", len(audio),
		"elapsed", time.Since(start),
	)
	return path, nil
}
