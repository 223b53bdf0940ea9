// Package gateway adapts the Discord API to the engine's collaborator
// interfaces. No rule logic lives here.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"shiritori/pkg/domain"
)

// discordEpoch is the millisecond origin of Discord snowflake IDs.
const discordEpoch int64 = 1420070400000

const historyPageSize = 100

var emojiFor = map[domain.Emoji]string{
	domain.EmojiNay:        "🚫",
	domain.EmojiThumbsUp:   "👍",
	domain.EmojiThumbsDown: "👎",
	domain.EmojiThinking:   "🤔",
	domain.EmojiRecycle:    "♻️",
}

// Discord owns the gateway session. It implements engine.Notifier and
// engine.History.
type Discord struct {
	session *discordgo.Session
	sink    func(domain.IncomingMessage)
	logger  *slog.Logger
}

// New builds a gateway client for the given bot token. The sink is attached
// later with SetSink because the event loop is constructed after the
// gateway it feeds.
func New(token string, logger *slog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent
	if logger == nil {
		logger = slog.Default()
	}
	d := &Discord{session: session, logger: logger}
	session.AddHandler(d.onReady)
	session.AddHandler(d.onMessageCreate)
	return d, nil
}

// SetSink attaches the consumer for inbound messages.
func (d *Discord) SetSink(sink func(domain.IncomingMessage)) {
	d.sink = sink
}

// Run opens the gateway connection and holds it until the context is
// cancelled.
func (d *Discord) Run(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	<-ctx.Done()
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	d.logger.Info("logged on", "user", r.User.Username)
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if d.sink == nil || m.Author == nil {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	mentionsBot := false
	if s.State.User != nil {
		for _, user := range m.Mentions {
			if user.ID == s.State.User.ID {
				mentionsBot = true
				break
			}
		}
	}
	d.sink(domain.IncomingMessage{
		MessageID:   m.ID,
		ChannelID:   m.ChannelID,
		ChannelName: d.channelName(m.ChannelID),
		AuthorID:    m.Author.ID,
		AuthorName:  m.Author.Username,
		Content:     m.Content,
		CleanText:   m.ContentWithMentionsReplaced(),
		CreatedAt:   m.Timestamp,
		MentionsBot: mentionsBot,
	})
}

func (d *Discord) channelName(channelID string) string {
	if channel, err := d.session.State.Channel(channelID); err == nil {
		return channel.Name
	}
	channel, err := d.session.Channel(channelID)
	if err != nil {
		return ""
	}
	return channel.Name
}

// Reply sends a message to a channel.
func (d *Discord) Reply(_ context.Context, channelID, text string) error {
	_, err := d.session.ChannelMessageSend(channelID, text)
	return err
}

// React attaches a reaction emoji to a message.
func (d *Discord) React(_ context.Context, channelID, messageID string, emoji domain.Emoji) error {
	name, ok := emojiFor[emoji]
	if !ok {
		return fmt.Errorf("unknown emoji kind %q", emoji)
	}
	return d.session.MessageReactionAdd(channelID, messageID, name)
}

// MessagesAfter pages through channel history newer than the given time,
// oldest first.
func (d *Discord) MessagesAfter(_ context.Context, channelID string, after time.Time) ([]domain.IncomingMessage, error) {
	afterID := snowflakeFromTime(after)
	var out []domain.IncomingMessage
	for {
		page, err := d.session.ChannelMessages(channelID, historyPageSize, "", afterID, "")
		if err != nil {
			return nil, fmt.Errorf("fetch channel messages: %w", err)
		}
		if len(page) == 0 {
			break
		}
		// The API returns each page newest first.
		sort.Slice(page, func(i, j int) bool {
			return page[i].Timestamp.Before(page[j].Timestamp)
		})
		for _, m := range page {
			if m.Author == nil {
				continue
			}
			out = append(out, domain.IncomingMessage{
				MessageID:   m.ID,
				ChannelID:   m.ChannelID,
				AuthorID:    m.Author.ID,
				AuthorName:  m.Author.Username,
				Content:     m.Content,
				CleanText:   m.ContentWithMentionsReplaced(),
				CreatedAt:   m.Timestamp,
			})
		}
		afterID = page[len(page)-1].ID
		if len(page) < historyPageSize {
			break
		}
	}
	return out, nil
}

// snowflakeFromTime converts a timestamp into the smallest Discord
// snowflake created at or after it. The zero time maps to ID 0, meaning
// "from the beginning".
func snowflakeFromTime(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		return "0"
	}
	return strconv.FormatInt(ms<<22, 10)
}
