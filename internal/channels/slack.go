package channels

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/personafin/personafin/internal/bus"
	"github.com/personafin/personafin/internal/config"
)

// slackReactionNames maps emoji glyphs to Slack reaction names.
var slackReactionNames = map[string]string{
	"👍": "thumbsup",
	"❤": "heart",
	"🔥": "fire",
	"😁": "grin",
	"😢": "cry",
	"🤔": "thinking_face",
	"👏": "clap",
	"🎉": "tada",
}

// SlackChannel connects to Slack via Socket Mode.
type SlackChannel struct {
	Base
	cfg       config.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string
}

func NewSlackChannel(cfg config.SlackConfig, b bus.Bus) *SlackChannel {
	return &SlackChannel{
		Base: NewBase("slack", b, nil),
		cfg:  cfg,
	}
}

func (s *SlackChannel) Name() string { return "slack" }

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		return fmt.Errorf("slack: bot/app token not configured")
	}

	s.webClient = slackgo.New(s.cfg.BotToken,
		slackgo.OptionAppLevelToken(s.cfg.AppToken))

	if resp, err := s.webClient.AuthTestContext(ctx); err == nil {
		s.botUserID = resp.UserID
		slog.Info("slack: connected", "bot_user_id", s.botUserID)
	}

	s.smClient = socketmode.New(s.webClient)

	go s.smClient.RunContext(ctx) //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-s.smClient.Events:
			if !ok {
				return nil
			}
			s.handleEvent(evt)
		}
	}
}

func (s *SlackChannel) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	s.smClient.Ack(*evt.Request)
	cb, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	if cb.InnerEvent.Type != "message" && cb.InnerEvent.Type != "app_mention" {
		return
	}
	s.handleInnerEvent(cb.InnerEvent)
}

func (s *SlackChannel) handleInnerEvent(ev slackevents.EventsAPIInnerEvent) {
	// Inner event data arrives as map[string]interface{}.
	data, ok := ev.Data.(map[string]interface{})
	if !ok {
		return
	}
	userID, _ := data["user"].(string)
	channel, _ := data["channel"].(string)
	text, _ := data["text"].(string)
	subtype, _ := data["subtype"].(string)
	channelType, _ := data["channel_type"].(string)
	ts, _ := data["ts"].(string)

	if subtype != "" || userID == "" || channel == "" || userID == s.botUserID {
		return
	}
	// Mentions also fire a plain message event; process only the mention.
	if ev.Type == "message" && s.botUserID != "" && strings.Contains(text, "<@"+s.botUserID+">") {
		return
	}

	mentioned := ev.Type == "app_mention"
	text = s.stripMention(text)
	if text == "" {
		return
	}

	msg := bus.NewInboundMessage("slack", userID, s.displayName(userID), channel, text)
	msg.SetMessageID(ts)
	msg.SetPrivate(channelType == "im")
	msg.SetRepliedToBot(mentioned)

	s.Publish(msg)
}

func (s *SlackChannel) displayName(userID string) string {
	if s.webClient == nil {
		return userID
	}
	user, err := s.webClient.GetUserInfo(userID)
	if err != nil || user == nil {
		return userID
	}
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func (s *SlackChannel) stripMention(text string) string {
	if s.botUserID == "" {
		return strings.TrimSpace(text)
	}
	re := regexp.MustCompile(`<@` + regexp.QuoteMeta(s.botUserID) + `>\s*`)
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}

func (s *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if s.webClient == nil {
		return fmt.Errorf("slack: client not running")
	}

	if msg.Reaction() != "" {
		name, ok := slackReactionNames[msg.Reaction()]
		if !ok {
			return nil
		}
		return s.webClient.AddReaction(name, slackgo.ItemRef{
			Channel:   msg.ChatID(),
			Timestamp: msg.ReplyTo(),
		})
	}
	if strings.TrimSpace(msg.Content()) == "" {
		return nil
	}

	_, _, err := s.webClient.PostMessageContext(ctx, msg.ChatID(),
		slackgo.MsgOptionText(msg.Content(), false))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}
