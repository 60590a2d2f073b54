package channels

import (
	"context"
	"log/slog"
	"sort"

	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/config"
)

// Manager owns all enabled channels and routes outbound messages to them.
type Manager struct {
	channels map[string]Channel
	b        bus.Bus
}

// NewManager creates a Manager with every channel enabled in cfg.
func NewManager(cfg config.Config, b bus.Bus) *Manager {
	m := &Manager{
		channels: make(map[string]Channel),
		b:        b,
	}

	if cfg.Channels.Telegram.Enabled {
		m.register(NewTelegramChannel(cfg.Channels.Telegram, b))
	}
	if cfg.Channels.Slack.Enabled {
		m.register(NewSlackChannel(cfg.Channels.Slack, b))
	}
	if cfg.Channels.Bridge.Enabled {
		m.register(NewBridgeChannel(cfg.Channels.Bridge, b))
	}

	return m
}

func (m *Manager) register(ch Channel) {
	m.channels[ch.Name()] = ch
	slog.Info("channel enabled", "name", ch.Name())
}

// EnabledChannels returns the names of all enabled channels, sorted.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StartAll starts every channel plus the outbound dispatcher, and blocks
// until ctx is cancelled.
func (m *Manager) StartAll(ctx context.Context) error {
	go m.dispatchOutbound(ctx)

	for name, ch := range m.channels {
		go func(n string, c Channel) {
			slog.Info("starting channel", "name", n)
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", n, "err", err)
			}
		}(name, ch)
	}

	<-ctx.Done()
	return ctx.Err()
}

// dispatchOutbound routes each outbound message to its channel's Send.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-m.b.OutboundChan():
			ch, ok := m.channels[msg.Channel()]
			if !ok {
				slog.Debug("no channel for outbound message", "channel", msg.Channel())
				continue
			}
			if err := ch.Send(ctx, msg); err != nil {
				slog.Error("send failed", "channel", msg.Channel(), "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
