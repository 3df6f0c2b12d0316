// Package fetch lets the agent pull a web page and hand its readable
// text to the model. HTML is reduced to visible text; anything else is
// passed through when it looks like text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ronvale/harbor-chat-agent/internal/httpkit"
)

const (
	// maxBodyBytes caps how much of a response we read (2 MB).
	maxBodyBytes int64 = 2 * 1024 * 1024

	// maxTextChars caps the extracted text handed to the model.
	maxTextChars = 12000
)

// Page is the fetched and extracted content of a URL.
type Page struct {
	URL       string
	Title     string
	Text      string
	Truncated bool
	Status    int
}

// Fetcher downloads pages for the fetch_url tool.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher.
func New() *Fetcher {
	return &Fetcher{
		client: httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
	}
}

// Fetch downloads rawURL and extracts readable text. A missing scheme
// defaults to https.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("fetch: url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid url: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.8,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read response: %w", err)
	}

	page := &Page{URL: rawURL, Status: resp.StatusCode}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml"):
		page.Title, page.Text = extractText(string(body))
	case utf8.Valid(body):
		page.Text = string(body)
	default:
		page.Text = fmt.Sprintf("Binary content (%s), %d bytes", ct, len(body))
		return page, nil
	}

	if len(page.Text) > maxTextChars {
		page.Text = cutAtRune(page.Text, maxTextChars)
		page.Truncated = true
	}
	return page, nil
}

// cutAtRune truncates without splitting a multi-byte character.
func cutAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for i := max; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return s[:i]
		}
	}
	return ""
}
