// Package config handles Harbor configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/harbor/config.yaml, /etc/harbor/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "harbor", "config.yaml"))
	}

	paths = append(paths, "/etc/harbor/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Harbor configuration.
type Config struct {
	Chat    ChatConfig    `yaml:"chat"`
	Model   ModelConfig   `yaml:"model"`
	Forge   ForgeConfig   `yaml:"forge"`
	Search  SearchConfig  `yaml:"search"`
	Vision  VisionConfig  `yaml:"vision"`
	Voice   VoiceConfig   `yaml:"voice"`
	Reports ReportsConfig `yaml:"reports"`

	// ContextScope controls how conversation history is partitioned:
	// "thread" keys history by thread when the message belongs to one,
	// "channel" shares history across the whole channel.
	ContextScope string `yaml:"context_scope"`

	// HistoryTurns caps the number of retained turns per context.
	// Zero means the built-in default (20).
	HistoryTurns int `yaml:"history_turns"`

	DataDir     string `yaml:"data_dir"`
	PersonaFile string `yaml:"persona_file"`
	LogLevel    string `yaml:"log_level"`
}

// ChatConfig defines the chat platform connection.
type ChatConfig struct {
	// BotToken authenticates Web API calls (message posting).
	BotToken string `yaml:"bot_token"`
	// AppToken authenticates the socket-mode websocket connection.
	AppToken string `yaml:"app_token"`
	// BotUserID is the bot's own user ID, used to strip self-mentions
	// from inbound text and to ignore the bot's own messages.
	BotUserID string `yaml:"bot_user_id"`
	// MentionNames maps platform user IDs to display names substituted
	// into text before it reaches the model.
	MentionNames map[string]string `yaml:"mention_names"`
	// RateLimit is the per-sender message limit per minute; 0 = unlimited.
	RateLimit int `yaml:"rate_limit"`
}

// ModelConfig defines the language model endpoint.
type ModelConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // Default: https://api.openai.com/v1
	Name    string `yaml:"name"`     // Chat model (default gpt-4o)
}

// ForgeConfig defines issue tracker and repository access.
type ForgeConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// SearchConfig defines the web search provider.
type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"` // Default: Brave search API
	Count    int    `yaml:"count"`    // Default result count
}

// VisionConfig defines the image description endpoint.
type VisionConfig struct {
	Model string `yaml:"model"` // Vision-capable model on the same endpoint
}

// VoiceConfig defines text-to-speech synthesis.
type VoiceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"` // Default: tts-1
	Voice   string `yaml:"voice"` // Default: nova
}

// ReportsConfig defines the periodic status report.
type ReportsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"` // Where the report is posted
	Hour    int    `yaml:"hour"`    // Local hour of day (0-23)
}

// Load reads configuration from a YAML file. Environment variables in
// the file body are expanded before parsing, so secrets can live in the
// environment rather than on disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL: "https://api.openai.com/v1",
			Name:    "gpt-4o",
		},
		Vision: VisionConfig{
			Model: "gpt-4o",
		},
		Voice: VoiceConfig{
			Model: "tts-1",
			Voice: "nova",
		},
		Search: SearchConfig{
			Endpoint: "https://api.search.brave.com/res/v1/web/search",
			Count:    5,
		},
		ContextScope: "thread",
		DataDir:      ".",
	}
}
