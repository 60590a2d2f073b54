// Package bus defines the message types that flow between channels and the
// agent loop, plus the in-process MessageBus that carries them.
package bus

import "time"

// InboundMessage is a message received from a chat channel.
type InboundMessage struct {
	channel      string // "telegram", "slack", "bridge", "cli"
	senderID     string // user identifier within the channel
	senderName   string // display name used for the history line
	chatID       string // chat / channel / DM identifier
	content      string // message text
	messageID    string // channel-native message id, for reactions/replies
	repliedToBot bool   // this message is a direct reply to the bot
	private      bool   // 1-on-1 chat
	timestamp    time.Time
}

// NewInboundMessage creates an InboundMessage with the timestamp set to now.
func NewInboundMessage(channel, senderID, senderName, chatID, content string) InboundMessage {
	return InboundMessage{
		channel:    channel,
		senderID:   senderID,
		senderName: senderName,
		chatID:     chatID,
		content:    content,
		timestamp:  time.Now(),
	}
}

func (m InboundMessage) Channel() string      { return m.channel }
func (m InboundMessage) SenderID() string     { return m.senderID }
func (m InboundMessage) SenderName() string   { return m.senderName }
func (m InboundMessage) ChatID() string       { return m.chatID }
func (m InboundMessage) Content() string      { return m.content }
func (m InboundMessage) MessageID() string    { return m.messageID }
func (m InboundMessage) RepliedToBot() bool   { return m.repliedToBot }
func (m InboundMessage) Private() bool        { return m.private }
func (m InboundMessage) Timestamp() time.Time { return m.timestamp }

func (m *InboundMessage) SetMessageID(id string)     { m.messageID = id }
func (m *InboundMessage) SetRepliedToBot(v bool)     { m.repliedToBot = v }
func (m *InboundMessage) SetPrivate(v bool)          { m.private = v }

// ConversationKey returns the key used to partition conversation state.
// Format: "channel:chat_id".
func (m InboundMessage) ConversationKey() string {
	return m.channel + ":" + m.chatID
}

// Preview returns a short snippet of the message content for logging.
func (m InboundMessage) Preview() string {
	preview := m.content
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}

// OutboundMessage is a response to be sent back through a channel. A message
// carries either text content or a reaction, never both.
type OutboundMessage struct {
	channel  string
	chatID   string
	content  string
	replyTo  string // message id to quote/reply to (optional)
	reaction string // emoji to attach to replyTo instead of sending text
}

// NewOutboundMessage creates a plain text outbound message.
func NewOutboundMessage(channel, chatID, content string) OutboundMessage {
	return OutboundMessage{channel: channel, chatID: chatID, content: content}
}

// NewReaction creates an outbound emoji reaction on messageID.
func NewReaction(channel, chatID, messageID, emoji string) OutboundMessage {
	return OutboundMessage{channel: channel, chatID: chatID, replyTo: messageID, reaction: emoji}
}

func (m OutboundMessage) Channel() string  { return m.channel }
func (m OutboundMessage) ChatID() string   { return m.chatID }
func (m OutboundMessage) Content() string  { return m.content }
func (m OutboundMessage) ReplyTo() string  { return m.replyTo }
func (m OutboundMessage) Reaction() string { return m.reaction }

func (m *OutboundMessage) SetReplyTo(id string) { m.replyTo = id }
