package agent

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/personafin/personafin/internal/bus"
)

const helpText = `Available commands:
/persona <text> - set persona (or: /persona use <preset>, /persona list)
/frequency <0-1> - adjust reply probability
/prompt <text> - set system prompt
/model <name> - set completion model
/memory add|list|clear - manage memories
/status - show configuration
/help - this message`

// handleCommand dispatches a slash command and returns the reply text.
// Command traffic never enters conversation history and bypasses the
// decision policy.
func (l *Loop) handleCommand(msg bus.InboundMessage, text string) string {
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/persona":
		return l.cmdPersona(arg)
	case "/frequency":
		return l.cmdFrequency(arg)
	case "/prompt":
		return l.cmdPrompt(arg)
	case "/model":
		return l.cmdModel(arg)
	case "/status":
		return l.cmdStatus()
	case "/memory":
		return l.cmdMemory(msg.ConversationKey(), arg)
	case "/help":
		return helpText
	default:
		// Unknown commands (including other bots' commands in a group chat)
		// are ignored silently.
		return ""
	}
}

func (l *Loop) cmdPersona(arg string) string {
	if arg == "" {
		return "Usage: /persona <description> | /persona use <preset> | /persona list"
	}

	action, rest, _ := strings.Cut(arg, " ")
	switch action {
	case "list":
		presets := l.personas.List()
		if len(presets) == 0 {
			return "No persona presets found."
		}
		var b strings.Builder
		b.WriteString("Available presets:\n")
		for _, p := range presets {
			fmt.Fprintf(&b, "- %s", p.Name)
			if p.Description != "" {
				fmt.Fprintf(&b, " — %s", p.Description)
			}
			b.WriteByte('\n')
		}
		return strings.TrimRight(b.String(), "\n")

	case "use":
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return "Usage: /persona use <preset>"
		}
		p, err := l.personas.Get(rest)
		if err != nil {
			return fmt.Sprintf("Unknown preset %q. Try /persona list.", rest)
		}
		if err := l.cfg.SetPersona(p.Body); err != nil {
			slog.Error("failed to persist persona", "err", err)
			return "Failed to save persona."
		}
		return fmt.Sprintf("Persona set to preset %q.", p.Name)

	default:
		if err := l.cfg.SetPersona(arg); err != nil {
			slog.Error("failed to persist persona", "err", err)
			return "Failed to save persona."
		}
		return "Persona updated."
	}
}

func (l *Loop) cmdFrequency(arg string) string {
	value, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return "Usage: /frequency <0.0-1.0>"
	}
	if err := l.cfg.SetResponseFrequency(value); err != nil {
		slog.Error("failed to persist frequency", "err", err)
		return "Failed to save frequency."
	}
	return fmt.Sprintf("Response frequency set to %.2f.", l.cfg.Config().ResponseFrequency)
}

func (l *Loop) cmdPrompt(arg string) string {
	if arg == "" {
		return "Usage: /prompt <system prompt>"
	}
	if err := l.cfg.SetSystemPrompt(arg); err != nil {
		slog.Error("failed to persist prompt", "err", err)
		return "Failed to save system prompt."
	}
	return "System prompt updated."
}

func (l *Loop) cmdModel(arg string) string {
	if arg == "" {
		return "Usage: /model <model name>"
	}
	if err := l.cfg.SetModel(arg); err != nil {
		slog.Error("failed to persist model", "err", err)
		return "Failed to save model."
	}
	return fmt.Sprintf("Model set to %s.", arg)
}

func (l *Loop) cmdStatus() string {
	cfg := l.cfg.Config()
	return fmt.Sprintf(
		"Persona bot configuration\nPersona: %s\nResponse frequency: %.2f\nModel: %s\nMax context messages: %d\nAuto-summarize: %v (threshold %d, batch %d)",
		cfg.Persona,
		cfg.ResponseFrequency,
		cfg.Model,
		cfg.MaxContextMessages,
		cfg.AutoSummarize.Enabled,
		cfg.AutoSummarize.Threshold,
		cfg.AutoSummarize.BatchSize,
	)
}

func (l *Loop) cmdMemory(key, arg string) string {
	const usage = "Usage: /memory <add|list|clear> [text]"
	if arg == "" {
		return usage
	}

	action, payload, _ := strings.Cut(arg, " ")
	payload = strings.TrimSpace(payload)

	switch strings.ToLower(action) {
	case "add":
		if payload == "" {
			return usage
		}
		entry := l.convs.AddMemory(key, payload)
		return fmt.Sprintf("Stored memory at %s", entry.CreatedAt.Format(time.RFC3339))
	case "clear":
		l.convs.ClearMemories(key)
		return "Cleared memories for this chat."
	case "list":
		memories := l.convs.Memories(key)
		if len(memories) == 0 {
			return "No memories stored yet."
		}
		var b strings.Builder
		for _, m := range memories {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Text, m.CreatedAt.Format("2006-01-02"))
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return usage
	}
}
