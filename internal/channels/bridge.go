package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/config"
)

const bridgeReconnectDelay = 5 * time.Second

// bridgeFrame is the JSON envelope exchanged with an external bridge process.
type bridgeFrame struct {
	Type       string `json:"type"`
	Token      string `json:"token,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
	ChatID     string `json:"chatId,omitempty"`
	Text       string `json:"text,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	ReplyTo    string `json:"replyTo,omitempty"`
	Private    bool   `json:"private,omitempty"`
	ToBot      bool   `json:"toBot,omitempty"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BridgeChannel talks to an external chat bridge over a WebSocket. The bridge
// process owns the platform session and forwards messages as JSON frames.
type BridgeChannel struct {
	Base
	cfg config.BridgeConfig

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewBridgeChannel(cfg config.BridgeConfig, b bus.Bus) *BridgeChannel {
	return &BridgeChannel{
		Base: NewBase("bridge", b, nil),
		cfg:  cfg,
	}
}

func (c *BridgeChannel) Name() string { return "bridge" }

func (c *BridgeChannel) Start(ctx context.Context) error {
	url := c.cfg.URL
	if url == "" {
		url = "ws://localhost:3001"
	}
	slog.Info("bridge: connecting", "url", url)

	for {
		if err := c.connectOnce(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("bridge: connection lost, reconnecting in 5s", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bridgeReconnectDelay):
		}
	}
}

func (c *BridgeChannel) connectOnce(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	c.setConn(conn, true)
	defer func() {
		conn.Close()
		c.setConn(nil, false)
	}()

	slog.Info("bridge: connected")

	if c.cfg.Token != "" {
		if err := c.writeFrame(bridgeFrame{Type: "auth", Token: c.cfg.Token}); err != nil {
			return err
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleFrame(raw)
	}
}

func (c *BridgeChannel) setConn(conn *websocket.Conn, connected bool) {
	c.mu.Lock()
	c.conn = conn
	c.connected = connected
	c.mu.Unlock()
}

func (c *BridgeChannel) handleFrame(raw []byte) {
	var frame bridgeFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		slog.Debug("bridge: unparseable frame", "err", err)
		return
	}
	switch frame.Type {
	case "message":
		if frame.SenderID == "" || frame.ChatID == "" || frame.Text == "" {
			return
		}
		name := frame.SenderName
		if name == "" {
			name = frame.SenderID
		}
		msg := bus.NewInboundMessage("bridge", frame.SenderID, name, frame.ChatID, frame.Text)
		msg.SetMessageID(frame.MessageID)
		msg.SetPrivate(frame.Private)
		msg.SetRepliedToBot(frame.ToBot)
		c.Publish(msg)
	case "status":
		slog.Info("bridge: status", "status", frame.Status)
	case "error":
		slog.Error("bridge: remote error", "error", frame.Error)
	}
}

func (c *BridgeChannel) writeFrame(frame bridgeFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return fmt.Errorf("bridge: not connected")
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *BridgeChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if msg.Reaction() != "" {
		return c.writeFrame(bridgeFrame{
			Type:    "react",
			ChatID:  msg.ChatID(),
			ReplyTo: msg.ReplyTo(),
			Emoji:   msg.Reaction(),
		})
	}
	return c.writeFrame(bridgeFrame{
		Type:    "send",
		ChatID:  msg.ChatID(),
		Text:    msg.Content(),
		ReplyTo: msg.ReplyTo(),
	})
}
