package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/config"
)

const telegramMaxMessageLen = 4000

// TelegramChannel connects to the Telegram Bot API via long polling.
type TelegramChannel struct {
	Base
	cfg config.TelegramConfig
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel creates a TelegramChannel.
func NewTelegramChannel(cfg config.TelegramConfig, b bus.Bus) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase("telegram", b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(t.cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	m := update.Message
	if m == nil || m.From == nil || m.From.IsBot {
		return
	}

	content := m.Text
	if content == "" {
		content = m.Caption
	}
	if content == "" {
		return
	}

	senderID := strconv.FormatInt(m.From.ID, 10)
	if m.From.UserName != "" {
		senderID = senderID + "|" + m.From.UserName
	}
	senderName := m.From.FirstName
	if senderName == "" {
		senderName = m.From.UserName
	}

	msg := bus.NewInboundMessage("telegram", senderID, senderName, strconv.FormatInt(m.Chat.ID, 10), content)
	msg.SetMessageID(strconv.Itoa(m.MessageID))
	msg.SetPrivate(m.Chat.Type == "private")
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil &&
		m.ReplyToMessage.From.ID == t.bot.Self.ID {
		msg.SetRepliedToBot(true)
	}

	t.Publish(msg)
}

func (t *TelegramChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: bot not running")
	}
	chatID, err := strconv.ParseInt(msg.ChatID(), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q", msg.ChatID())
	}

	if msg.Reaction() != "" {
		return t.sendReaction(chatID, msg.ReplyTo(), msg.Reaction())
	}
	if strings.TrimSpace(msg.Content()) == "" {
		return nil
	}

	var replyMsgID int
	if t.cfg.ReplyToMessage && msg.ReplyTo() != "" {
		replyMsgID, _ = strconv.Atoi(msg.ReplyTo())
	}

	for _, chunk := range splitMessage(msg.Content(), telegramMaxMessageLen) {
		out := tgbotapi.NewMessage(chatID, chunk)
		if replyMsgID != 0 {
			out.ReplyToMessageID = replyMsgID
		}
		if _, err := t.bot.Send(out); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

// sendReaction calls setMessageReaction directly; the bot API library has no
// wrapper for it.
func (t *TelegramChannel) sendReaction(chatID int64, messageID, emoji string) error {
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("telegram: invalid message id %q", messageID)
	}
	reaction, err := json.Marshal([]map[string]string{{"type": "emoji", "emoji": emoji}})
	if err != nil {
		return err
	}
	params := tgbotapi.Params{
		"chat_id":    strconv.FormatInt(chatID, 10),
		"message_id": strconv.Itoa(msgID),
		"reaction":   string(reaction),
	}
	if _, err := t.bot.MakeRequest("setMessageReaction", params); err != nil {
		return fmt.Errorf("telegram: set reaction: %w", err)
	}
	return nil
}
