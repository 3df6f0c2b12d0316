// Package reports posts a daily status summary to a chat channel. At
// the configured hour it gathers text from each registered source,
// asks the model to compose a short report, and posts the result.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ronvale/harbor-chat-agent/internal/events"
	"github.com/ronvale/harbor-chat-agent/internal/llm"
	"github.com/ronvale/harbor-chat-agent/internal/prompts"
)

// tickInterval is how often the scheduler checks the clock.
const tickInterval = time.Minute

// gatherTimeout bounds a single source's Gather call.
const gatherTimeout = 30 * time.Second

// Source contributes material to the daily report.
type Source interface {
	Name() string
	Gather(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context) (string, error)
}

func (s SourceFunc) Name() string { return s.SourceName }

func (s SourceFunc) Gather(ctx context.Context) (string, error) { return s.Fn(ctx) }

// Sink posts the finished report. The chat socket satisfies this.
type Sink interface {
	Post(ctx context.Context, channel, thread, text string) error
}

// Config holds the dependencies for a Reporter.
type Config struct {
	Logger  *slog.Logger
	LLM     llm.Client
	Model   string
	Sources []Source
	Sink    Sink
	Channel string
	Hour    int // local hour of day (0-23)
	Bus     *events.Bus
}

// Reporter generates and posts the daily report.
type Reporter struct {
	logger  *slog.Logger
	llm     llm.Client
	model   string
	sources []Source
	sink    Sink
	channel string
	hour    int
	bus     *events.Bus

	lastDay string // date of the most recent post, "2006-01-02"
}

// New creates a Reporter.
func New(cfg Config) *Reporter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:  logger.With("component", "reports"),
		llm:     cfg.LLM,
		model:   cfg.Model,
		sources: cfg.Sources,
		sink:    cfg.Sink,
		channel: cfg.Channel,
		hour:    cfg.Hour,
		bus:     cfg.Bus,
	}
}

// Run checks the clock every minute and posts once per day at the
// configured hour. It returns when ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	r.logger.Info("report scheduler started", "channel", r.channel, "hour", r.hour)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("report scheduler stopped")
			return
		case now := <-ticker.C:
			if now.Hour() != r.hour {
				continue
			}
			today := now.Format("2006-01-02")
			if today == r.lastDay {
				continue
			}
			if err := r.Post(ctx); err != nil {
				r.logger.Error("daily report failed", "error", err)
				continue
			}
			r.lastDay = today
		}
	}
}

// Post gathers, composes, and posts one report immediately.
func (r *Reporter) Post(ctx context.Context) error {
	material := r.gather(ctx)
	if material == "" {
		r.logger.Info("no report material, skipping post")
		return nil
	}

	report, err := r.compose(ctx, material)
	if err != nil {
		return fmt.Errorf("compose report: %w", err)
	}
	if report == "" {
		return fmt.Errorf("compose report: model returned empty content")
	}

	if err := r.sink.Post(ctx, r.channel, "", report); err != nil {
		return fmt.Errorf("post report: %w", err)
	}

	r.bus.Publish(events.Event{
		Source: events.SourceReports,
		Kind:   events.KindReportPosted,
		Data:   map[string]any{"channel": r.channel, "length": len(report)},
	})
	r.logger.Info("daily report posted", "channel", r.channel, "length", len(report))
	return nil
}

// gather collects material from every source concurrently. A failing
// source is logged and skipped; the report still goes out.
func (r *Reporter) gather(ctx context.Context) string {
	sections := make([]string, len(r.sources))
	var wg sync.WaitGroup

	for i, src := range r.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()

			gctx, cancel := context.WithTimeout(ctx, gatherTimeout)
			defer cancel()

			text, err := src.Gather(gctx)
			if err != nil {
				r.logger.Warn("report source failed", "source", src.Name(), "error", err)
				return
			}
			if text = strings.TrimSpace(text); text != "" {
				sections[i] = fmt.Sprintf("## %s\n%s", src.Name(), text)
			}
		}()
	}
	wg.Wait()

	var parts []string
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// compose asks the model to write the report from the material.
func (r *Reporter) compose(ctx context.Context, material string) (string, error) {
	resp, err := r.llm.Chat(ctx, r.model, []llm.Message{
		{Role: "user", Content: prompts.ReportPrompt(material)},
	}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message.Content), nil
}
