// Package vision answers questions about images by sending them to a
// vision-capable model on the same OpenAI-compatible endpoint the
// agent already talks to. Image content parts are a different wire
// shape than plain chat, so this client stays separate from the main
// one.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ronvale/harbor-chat-agent/internal/httpkit"
)

// Describer sends images to a vision-capable chat model.
type Describer struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Describer.
func New(baseURL, apiKey, model string, logger *slog.Logger) *Describer {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &Describer{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(120 * time.Second)),
		logger:     logger.With("component", "vision"),
	}
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type visionMessage struct {
	Role    string       `json:"role"`
	Content []visionPart `json:"content"`
}

type visionPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *visionImage `json:"image_url,omitempty"`
}

type visionImage struct {
	URL string `json:"url"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Describe asks the model about an image. An empty prompt asks for a
// general description.
func (d *Describer) Describe(ctx context.Context, imageURL, prompt string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("vision: image url is required")
	}
	if prompt == "" {
		prompt = "Describe this image."
	}

	body, err := json.Marshal(visionRequest{
		Model: d.model,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &visionImage{URL: imageURL}},
			},
		}},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", fmt.Errorf("vision: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision: HTTP %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 4096))
	}

	var vr visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if len(vr.Choices) == 0 {
		return "", fmt.Errorf("vision: empty response")
	}

	d.logger.Debug("image described", "model", d.model, "elapsed", time.Since(start))
	return vr.Choices[0].Message.Content, nil
}
