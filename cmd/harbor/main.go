// Harbor is a chat-triggered automation bot for engineering teams.
//
// It joins the team chat over Socket Mode, answers when mentioned, and
// carries out work through tools: filing tickets, listing issues,
// reading repository files, searching the web, fetching pages,
// describing images, remembering facts, and speaking replies aloud.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	harbor serve             Connect to chat and serve requests
//	harbor init [dir]        Initialize a working directory with defaults
//	harbor ask <question>    Ask a single question (for testing)
//	harbor version           Print version and build information
//	harbor -o json version   Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ronvale/harbor-chat-agent/internal/agent"
	"github.com/ronvale/harbor-chat-agent/internal/buildinfo"
	"github.com/ronvale/harbor-chat-agent/internal/chat"
	"github.com/ronvale/harbor-chat-agent/internal/config"
	"github.com/ronvale/harbor-chat-agent/internal/convo"
	"github.com/ronvale/harbor-chat-agent/internal/events"
	"github.com/ronvale/harbor-chat-agent/internal/fetch"
	"github.com/ronvale/harbor-chat-agent/internal/forge"
	"github.com/ronvale/harbor-chat-agent/internal/kvmem"
	"github.com/ronvale/harbor-chat-agent/internal/llm"
	"github.com/ronvale/harbor-chat-agent/internal/prompts"
	"github.com/ronvale/harbor-chat-agent/internal/reports"
	"github.com/ronvale/harbor-chat-agent/internal/search"
	"github.com/ronvale/harbor-chat-agent/internal/tools"
	"github.com/ronvale/harbor-chat-agent/internal/vision"
	"github.com/ronvale/harbor-chat-agent/internal/voice"
)

// main constructs the OS-level environment and delegates to [run],
// keeping os.Exit and os.Args out of the application logic so the full
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments by hand. The flag package relies on package
// globals, which makes run() impossible to call concurrently from
// tests, and the argument surface here is small.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: harbor ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Harbor - Chat Automation Bot")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: harbor [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Connect to chat and serve requests")
	fmt.Fprintln(w, "  init [dir]   Initialize a working directory with defaults (default: .)")
	fmt.Fprintln(w, "  ask          Ask a single question (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// newLogger builds the process logger at the given level.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the config file.
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}

// buildRegistry registers every tool the config enables. The forge
// tools come first so the failsafe layer prefers create_ticket when a
// plain-text reply fingerprints more than one tool.
func buildRegistry(cfg *config.Config, logger *slog.Logger) (*tools.Registry, func(), error) {
	registry := tools.NewRegistry()
	cleanup := func() {}

	if cfg.Forge.Owner != "" && cfg.Forge.Repo != "" {
		provider := forge.NewGitHub(cfg.Forge.Token, logger)
		repo := cfg.Forge.Owner + "/" + cfg.Forge.Repo
		for _, t := range forge.ToolSet(provider, repo) {
			registry.MustRegister(t)
		}
	}

	mem, err := kvmem.NewStore(filepath.Join(cfg.DataDir, "memory.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open memory store: %w", err)
	}
	cleanup = func() { mem.Close() }
	for _, t := range kvmem.ToolSet(mem) {
		registry.MustRegister(t)
	}

	searcher := search.NewClient(cfg.Search.Endpoint, cfg.Search.APIKey, cfg.Search.Count)
	if searcher.Configured() {
		registry.MustRegister(search.NewTool(searcher))
	}

	registry.MustRegister(fetch.NewTool(fetch.New()))
	registry.MustRegister(vision.NewTool(vision.New(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Vision.Model, logger)))

	if cfg.Voice.Enabled {
		synth := voice.New(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Voice.Model, cfg.Voice.Voice,
			filepath.Join(cfg.DataDir, "audio"), logger)
		registry.MustRegister(voice.NewTool(synth))
	}

	return registry, cleanup, nil
}

// runAsk boots a minimal agent (no chat connection, no reports) and
// answers a single question on stdout.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)
	question := strings.Join(args, " ")

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	registry, cleanup, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	loop := agent.NewLoop(agent.Config{
		Logger:   logger,
		Store:    convo.NewStore(cfg.HistoryTurns),
		Registry: registry,
		LLM:      llm.NewOpenAIClient(cfg.Model.APIKey, cfg.Model.BaseURL, logger),
		Model:    cfg.Model.Name,
	})

	fmt.Fprintln(stdout, loop.Respond(ctx, "cli", prompts.SystemPrompt(cfg.PersonaFile), question))
	return nil
}

// runServe is the primary operating mode: connect the socket, bridge
// messages through the agent loop, and run the report scheduler until
// a shutdown signal arrives.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting Harbor",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}
	logger.Info("config loaded", "path", cfgPath)

	if cfg.Chat.BotToken == "" || cfg.Chat.AppToken == "" {
		return fmt.Errorf("chat.bot_token and chat.app_token are required for serve")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmClient := llm.NewOpenAIClient(cfg.Model.APIKey, cfg.Model.BaseURL, logger)
	if err := llmClient.Ping(ctx); err != nil {
		logger.Warn("model endpoint not reachable at startup", "error", err)
	}

	registry, cleanup, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	logger.Info("tools registered", "tools", registry.Names())

	bus := events.New()
	socket := chat.NewSocket("", cfg.Chat.BotToken, cfg.Chat.AppToken, logger)

	loop := agent.NewLoop(agent.Config{
		Logger:   logger,
		Store:    convo.NewStore(cfg.HistoryTurns),
		Registry: registry,
		LLM:      llmClient,
		Model:    cfg.Model.Name,
		Notifier: chat.NewNotifier(socket, logger),
		Bus:      bus,
	})

	bridge := chat.NewBridge(chat.BridgeConfig{
		Logger:       logger,
		Messages:     socket.Messages(),
		Poster:       socket,
		Runner:       loop,
		SystemPrompt: func() string { return prompts.SystemPrompt(cfg.PersonaFile) },
		BotUserID:    cfg.Chat.BotUserID,
		MentionNames: cfg.Chat.MentionNames,
		RateLimit:    cfg.Chat.RateLimit,
		Scope:        convo.ParseScope(cfg.ContextScope),
		Bus:          bus,
	})

	if cfg.Reports.Enabled && cfg.Reports.Channel != "" {
		reporter := reports.New(reports.Config{
			Logger:  logger,
			LLM:     llmClient,
			Model:   cfg.Model.Name,
			Sources: reportSources(registry),
			Sink:    socket,
			Channel: cfg.Reports.Channel,
			Hour:    cfg.Reports.Hour,
			Bus:     bus,
		})
		go reporter.Run(ctx)
	}

	go socket.Run(ctx)
	bridge.Start(ctx)

	logger.Info("Harbor stopped", "uptime", buildinfo.Uptime())
	return nil
}

// reportSources builds the daily report inputs from already-registered
// tools, so the report sees exactly what the agent can see.
func reportSources(registry *tools.Registry) []reports.Source {
	var sources []reports.Source

	if t, ok := registry.Get("get_issues"); ok {
		sources = append(sources, reports.SourceFunc{
			SourceName: "Open issues",
			Fn: func(ctx context.Context) (string, error) {
				return t.Handler(ctx, map[string]any{"state": "open"})
			},
		})
	}
	if t, ok := registry.Get("recall"); ok {
		sources = append(sources, reports.SourceFunc{
			SourceName: "Team memory",
			Fn: func(ctx context.Context) (string, error) {
				return t.Handler(ctx, map[string]any{})
			},
		})
	}
	return sources
}
