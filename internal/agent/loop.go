// Package agent contains the persona loop: it consumes inbound messages,
// records them into conversation history, decides whether to answer, asks
// the completion backend for a reply, and compacts old history into summary
// memories.
package agent

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/config"
	"github.com/personafin/personafin/internal/convo"
	"github.com/personafin/personafin/internal/llm"
	"github.com/personafin/personafin/internal/persona"
	"github.com/personafin/personafin/internal/policy"
)

// Completer is the completion backend surface the loop depends on.
// *llm.Client satisfies it; tests substitute a fake.
type Completer interface {
	GenerateReply(ctx context.Context, req llm.ReplyRequest) (string, error)
	GenerateSummary(ctx context.Context, req llm.SummaryRequest) (string, error)
	SuggestReaction(ctx context.Context, message, model string) (string, bool)
}

// replyErrorText is sent when reply generation fails. The failed turn is
// never recorded into history.
const replyErrorText = "Sorry, I encountered an error generating a response. Please try again later."

// autoSummaryPrefix marks memories produced by the compaction pipeline.
const autoSummaryPrefix = "[Auto-summary]: "

// Loop is the core processing engine. Each inbound message is handled in its
// own goroutine; the conversation store's per-operation atomicity keeps
// interleavings across conversations safe.
type Loop struct {
	bus      bus.Bus
	cfg      *config.Store
	convs    *convo.Store
	llm      Completer
	personas *persona.Library

	randFloat func() float64 // injectable for tests
}

// New creates a Loop.
func New(b bus.Bus, cfg *config.Store, convs *convo.Store, client Completer, personas *persona.Library) *Loop {
	return &Loop{
		bus:       b,
		cfg:       cfg,
		convs:     convs,
		llm:       client,
		personas:  personas,
		randFloat: rand.Float64,
	}
}

// Run reads from the inbound bus and processes each message in a goroutine.
// Blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("persona loop started")

	for {
		select {
		case msg := <-l.bus.InboundChan():
			go l.handleMessage(ctx, msg)
		case <-ctx.Done():
			slog.Info("persona loop stopping")
			return ctx.Err()
		}
	}
}

func (l *Loop) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	text := strings.TrimSpace(msg.Content())
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		if reply := l.handleCommand(msg, text); reply != "" {
			l.bus.PublishOutbound(bus.NewOutboundMessage(msg.Channel(), msg.ChatID(), reply))
		}
		return
	}

	l.maybeReply(ctx, msg, text)
}

// maybeReply runs the full persona turn for one plain chat message.
func (l *Loop) maybeReply(ctx context.Context, msg bus.InboundMessage, text string) {
	key := msg.ConversationKey()
	cfg := l.cfg.Config()

	name := msg.SenderName()
	if name == "" {
		name = "User"
	}
	l.convs.AppendHistory(key, name+": "+text)

	// Private 1-on-1 chats are treated like direct replies: always answered.
	direct := msg.RepliedToBot() || msg.Private()
	if !policy.ShouldRespond(l.randFloat(), cfg.ResponseFrequency, direct) {
		l.maybeReact(ctx, msg, text, cfg)
		return
	}

	history := l.convs.History(key, cfg.MaxContextMessages)
	// Drop the line we just appended; the new message is sent separately.
	if n := len(history); n > 0 {
		history = history[:n-1]
	}
	memories := l.convs.Memories(key)

	req := llm.ReplyRequest{
		Persona:      cfg.Persona,
		SystemPrompt: cfg.SystemPrompt,
		Model:        cfg.Model,
		Memories:     memories,
		History:      history,
		UserMessage:  text,
	}
	if cfg.LinkContext.Enabled {
		req.LinkContext = l.fetchLinkContext(text, cfg.LinkContext.MaxChars)
	}

	reply, err := l.llm.GenerateReply(ctx, req)
	if err != nil {
		slog.Error("reply generation failed", "conversation", key, "err", err)
		l.bus.PublishOutbound(bus.NewOutboundMessage(msg.Channel(), msg.ChatID(), replyErrorText))
		return
	}

	out := bus.NewOutboundMessage(msg.Channel(), msg.ChatID(), reply)
	out.SetReplyTo(msg.MessageID()) // channels decide whether to quote
	l.bus.PublishOutbound(out)
	l.convs.AppendHistory(key, "Bot: "+reply)
	slog.Info("replied", "conversation", key, "preview", msg.Preview())

	l.autoSummarize(ctx, key, cfg)
}

// maybeReact attaches a best-effort emoji reaction to messages the bot chose
// not to answer. Failures collapse to "no reaction" inside the client.
func (l *Loop) maybeReact(ctx context.Context, msg bus.InboundMessage, text string, cfg config.Config) {
	if !cfg.Reactions.Enabled || msg.MessageID() == "" {
		return
	}
	emoji, ok := l.llm.SuggestReaction(ctx, text, cfg.Model)
	if !ok {
		return
	}
	l.bus.PublishOutbound(bus.NewReaction(msg.Channel(), msg.ChatID(), msg.MessageID(), emoji))
}

// autoSummarize folds the oldest history batch into a summary memory once
// the threshold is reached. Failures are logged and never abort the turn;
// the history stays intact so a later check can retry.
func (l *Loop) autoSummarize(ctx context.Context, key string, cfg config.Config) {
	if !cfg.AutoSummarize.Enabled {
		return
	}
	if !l.convs.ShouldSummarize(key, cfg.AutoSummarize.Threshold) {
		return
	}

	batch, total := l.convs.MessagesForSummary(key, cfg.AutoSummarize.BatchSize)
	if len(batch) == 0 {
		slog.Warn("no messages to summarize", "conversation", key)
		return
	}
	slog.Debug("summarizing oldest messages", "conversation", key, "batch", len(batch), "total", total)

	summary, err := l.llm.GenerateSummary(ctx, llm.SummaryRequest{
		Messages: batch,
		Persona:  cfg.Persona,
		Model:    cfg.Model,
	})
	if err != nil {
		slog.Error("summarization failed", "conversation", key, "err", err)
		return
	}

	l.convs.AddMemory(key, autoSummaryPrefix+summary)
	l.convs.ClearSummarized(key, len(batch))
	slog.Info("summarized and stored batch", "conversation", key, "batch", len(batch))
}

// SweepSummaries runs the auto-summarize check over every known
// conversation. Called by the periodic cron sweep so long-idle chats still
// get compacted.
func (l *Loop) SweepSummaries(ctx context.Context) {
	cfg := l.cfg.Config()
	if !cfg.AutoSummarize.Enabled {
		return
	}
	for _, key := range l.convs.ConversationIDs() {
		l.autoSummarize(ctx, key, cfg)
		if ctx.Err() != nil {
			return
		}
	}
}
