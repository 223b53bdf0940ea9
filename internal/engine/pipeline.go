package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"shiritori/pkg/domain"
)

// HandleMessage runs the turn validation pipeline on one inbound chat
// message. Non-game traffic is ignored silently; invalid moves produce a
// reply listing every collected reject reason. Only accepted moves are
// persisted.
func (e *Engine) HandleMessage(ctx context.Context, msg domain.IncomingMessage) error {
	// Gate: only registered channels with a game in session count.
	channel, err := e.registry.Lookup(ctx, msg.ChannelID)
	if err != nil {
		return err
	}
	if channel == nil || !channel.GameRunning() {
		return nil
	}

	token, ok := tokenize(msg.CleanText)
	if !ok {
		// Comments and multi-word chat are not moves.
		return nil
	}

	word, err := e.words.Resolve(ctx, token)
	if err != nil {
		return err
	}

	var reasons []string
	var reactions []domain.Emoji

	// A reject reason never short-circuits: all applicable reasons are
	// reported together.
	banned, err := e.words.IsBanned(ctx, token)
	if err != nil {
		return err
	}
	if word.Source == domain.SourceRejected || banned {
		reasons = append(reasons, fmt.Sprintf("%q was previously rejected", token))
		reactions = append(reactions, domain.EmojiThumbsDown)
	}

	state := domain.TurnOK
	if word.Source == domain.SourceGame {
		state = domain.TurnUnknown
		reactions = append(reactions, domain.EmojiThinking)
	}

	gameID := *channel.CurrentGameID
	_, prevWord, hasPrev, err := e.store.LatestChainTurn(gameID)
	if err != nil {
		return err
	}
	if hasPrev {
		// First move is unconstrained; afterwards the word must pick up
		// where the previous one left off.
		last := prevWord.Text[len(prevWord.Text)-1]
		if token[0] != last {
			reasons = append(reasons, fmt.Sprintf("must start with letter %s", strings.ToUpper(string(last))))
			reactions = append(reactions, domain.EmojiNay)
		}
	}

	prior, used, err := e.store.EarliestTurnForWord(gameID, word.ID)
	if err != nil {
		return err
	}
	if used {
		reasons = append(reasons, fmt.Sprintf("previously used by %s %s",
			e.turnAuthor(prior), humanize.Time(prior.Timestamp)))
		reactions = append(reactions, domain.EmojiRecycle)
	}

	if len(reasons) > 0 {
		e.react(ctx, msg, reactions)
		e.reply(ctx, msg.ChannelID, strings.Join(reasons, "\n"))
		e.logger.Debug("move rejected", "channel", channelLabel(channel), "word", token, "reasons", len(reasons))
		return nil
	}

	user, err := e.resolveUser(ctx, msg)
	if err != nil {
		return err
	}
	turn := domain.Turn{
		Timestamp: msg.CreatedAt,
		Content:   msg.Content,
		State:     state,
		WordID:    word.ID,
		GameID:    &gameID,
		ChannelID: channel.ID,
		UserID:    &user.ID,
	}
	if err := e.store.CreateTurn(&turn); err != nil {
		return fmt.Errorf("create turn: %w", err)
	}
	if state == domain.TurnOK {
		reactions = append(reactions, domain.EmojiThumbsUp)
	}
	e.react(ctx, msg, reactions)
	if e.audit != nil {
		if err := e.audit.TurnAccepted(ctx, turn, word, user); err != nil {
			e.logger.Warn("audit publish failed", "err", err)
		}
	}
	e.logger.Debug("move accepted", "channel", channelLabel(channel), "word", token, "state", string(state))
	return nil
}

// resolveUser finds or lazily creates the author's player record. The
// display name is captured at first sighting and never refreshed.
func (e *Engine) resolveUser(ctx context.Context, msg domain.IncomingMessage) (domain.User, error) {
	user, found, err := e.store.GetUserByExternalID(msg.AuthorID)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if found {
		return user, nil
	}
	user = domain.User{ExternalID: msg.AuthorID, Name: msg.AuthorName, CreatedAt: e.now()}
	if err := e.store.CreateUser(&user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (e *Engine) turnAuthor(turn domain.Turn) string {
	if turn.UserID == nil {
		return "someone"
	}
	user, found, err := e.store.GetUserByID(*turn.UserID)
	if err != nil || !found {
		return "someone"
	}
	return user.Name
}

// reply and react are best-effort: a failed send is logged and processing
// continues.
func (e *Engine) reply(ctx context.Context, channelID, text string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Reply(ctx, channelID, text); err != nil {
		e.logger.Warn("reply failed", "channel_id", channelID, "err", err)
	}
}

func (e *Engine) react(ctx context.Context, msg domain.IncomingMessage, emojis []domain.Emoji) {
	if e.notifier == nil {
		return
	}
	for _, emoji := range emojis {
		if err := e.notifier.React(ctx, msg.ChannelID, msg.MessageID, emoji); err != nil {
			e.logger.Warn("react failed", "channel_id", msg.ChannelID, "emoji", string(emoji), "err", err)
		}
	}
}

// tokenize extracts the single move token from cleaned message text. The
// text is split on space, "(", ":", "!", and "?"; tokens accumulate while
// purely alphabetic and accumulation stops at the first element that is
// not. Anything other than exactly one token is not a move.
func tokenize(clean string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(clean))
	var tokens []string
	var cur strings.Builder

	flush := func() bool {
		if cur.Len() == 0 {
			return true
		}
		token := cur.String()
		cur.Reset()
		if !alphabetic(token) {
			return false
		}
		tokens = append(tokens, token)
		return true
	}

scan:
	for _, r := range text {
		switch r {
		case ' ':
			if !flush() {
				break scan
			}
		case '(', ':', '!', '?':
			flush()
			break scan
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	if len(tokens) != 1 {
		return "", false
	}
	return tokens[0], true
}

func alphabetic(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return len(s) > 0
}
