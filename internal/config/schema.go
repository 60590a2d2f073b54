// Package config defines the personafin configuration schema and its JSON
// persistence. Keys use camelCase.
package config

import (
	"os"
	"path/filepath"
)

// ProviderConfig holds credentials for the completion backend.
type ProviderConfig struct {
	APIKey  string `json:"apiKey"`
	APIBase string `json:"apiBase,omitempty"`
}

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled        bool     `json:"enabled"`
	Token          string   `json:"token"`
	AllowFrom      []string `json:"allowFrom"`
	ReplyToMessage bool     `json:"replyToMessage"`
}

// SlackConfig configures the Slack channel (Socket Mode).
type SlackConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"botToken"`
	AppToken string `json:"appToken"`
}

// BridgeConfig configures the generic WebSocket bridge channel.
type BridgeConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
}

// ChannelsConfig groups all channel configs.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Slack    SlackConfig    `json:"slack"`
	Bridge   BridgeConfig   `json:"bridge"`
}

// AutoSummarizeConfig controls history compaction.
type AutoSummarizeConfig struct {
	Enabled   bool `json:"enabled"`
	Threshold int  `json:"threshold"`
	BatchSize int  `json:"batchSize"`
}

// ReactionsConfig controls best-effort emoji reactions.
type ReactionsConfig struct {
	Enabled bool `json:"enabled"`
}

// LinkContextConfig controls fetching linked articles into the reply context.
type LinkContextConfig struct {
	Enabled  bool `json:"enabled"`
	MaxChars int  `json:"maxChars"`
}

// SweepConfig controls the periodic summarization sweep.
type SweepConfig struct {
	Enabled bool   `json:"enabled"`
	Every   string `json:"every"` // cron spec, e.g. "@every 5m"
}

// Config is the full personafin configuration.
type Config struct {
	Persona            string  `json:"persona"`
	SystemPrompt       string  `json:"systemPrompt"`
	Model              string  `json:"model"`
	ResponseFrequency  float64 `json:"responseFrequency"`
	MaxContextMessages int     `json:"maxContextMessages"`
	HistorySize        int     `json:"historySize"`

	AutoSummarize AutoSummarizeConfig `json:"autoSummarize"`
	Reactions     ReactionsConfig     `json:"reactions"`
	LinkContext   LinkContextConfig   `json:"linkContext"`
	Sweep         SweepConfig         `json:"sweep"`

	Provider ProviderConfig `json:"provider"`
	Channels ChannelsConfig `json:"channels"`
}

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() Config {
	return Config{
		Persona:            "a friendly, slightly nosy regular of this chat",
		SystemPrompt:       "You are role-playing a persona in a group chat. Stay in character, keep replies short and conversational.",
		Model:              "openai/gpt-4o-mini",
		ResponseFrequency:  0.15,
		MaxContextMessages: 12,
		HistorySize:        20,
		AutoSummarize: AutoSummarizeConfig{
			Enabled:   true,
			Threshold: 18,
			BatchSize: 10,
		},
		Reactions:   ReactionsConfig{Enabled: false},
		LinkContext: LinkContextConfig{Enabled: false, MaxChars: 1500},
		Sweep:       SweepConfig{Enabled: false, Every: "@every 10m"},
		Provider:    ProviderConfig{APIBase: "https://openrouter.ai/api/v1"},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{AllowFrom: []string{}, ReplyToMessage: true},
			Bridge:   BridgeConfig{URL: "ws://localhost:3001"},
		},
	}
}

// ConfigPath returns the default configuration file path:
// ~/.personafin/config.json.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".personafin/config.json"
	}
	return filepath.Join(home, ".personafin", "config.json")
}

// DataDir returns the personafin data directory: ~/.personafin.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".personafin"
	}
	return filepath.Join(home, ".personafin")
}
