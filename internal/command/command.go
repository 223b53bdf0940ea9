// Package command parses administrative commands addressed to the bot and
// maps them onto engine operations. All failures become chat replies; none
// propagate.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/shlex"

	"shiritori/internal/engine"
	"shiritori/pkg/domain"
)

const helpText = "```\n" + `Usage:
  @shiritori help
  @shiritori add
  @shiritori info
  @shiritori remove
  @shiritori sync
  @shiritori start
  @shiritori end
  @shiritori rules

Options:
  -h --help     Show help
` + "```"

const rulesText = `Post one word per message. Each word must begin with the last letter of the previous word. A word may be used at most once per game.`

// ParseError reports malformed command text.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse command %q", e.Input)
}

// Dispatcher routes parsed commands to the engine.
type Dispatcher struct {
	engine   *engine.Engine
	notifier engine.Notifier
	logger   *slog.Logger
}

// NewDispatcher builds a dispatcher over the engine and reply sink.
func NewDispatcher(eng *engine.Engine, notifier engine.Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{engine: eng, notifier: notifier, logger: logger}
}

// parse extracts the verb and help flag from command text. The leading
// bot mention is tolerated and skipped.
func parse(cleanText string) (verb string, help bool, err error) {
	argv, err := shlex.Split(strings.TrimSpace(cleanText))
	if err != nil {
		return "", false, &ParseError{Input: cleanText}
	}
	if len(argv) > 0 && strings.HasPrefix(argv[0], "@") {
		argv = argv[1:]
	}
	if len(argv) == 0 {
		return "help", false, nil
	}
	verb = strings.ToLower(argv[0])
	switch verb {
	case "add", "remove", "sync", "info", "start", "end", "help", "rules":
	default:
		return "", false, &ParseError{Input: cleanText}
	}
	for _, arg := range argv[1:] {
		switch arg {
		case "-h", "--help":
			help = true
		default:
			return "", false, &ParseError{Input: cleanText}
		}
	}
	return verb, help, nil
}

// Execute parses and runs one command message, replying with the outcome.
func (d *Dispatcher) Execute(ctx context.Context, msg domain.IncomingMessage) {
	verb, help, err := parse(msg.CleanText)
	if err != nil {
		d.reply(ctx, msg.ChannelID, fmt.Sprintf("Parser Error: %v", err))
		return
	}
	if help || verb == "help" {
		d.reply(ctx, msg.ChannelID, helpText)
		return
	}
	if err := d.run(ctx, verb, msg); err != nil {
		d.reply(ctx, msg.ChannelID, describe(err))
	}
}

func (d *Dispatcher) run(ctx context.Context, verb string, msg domain.IncomingMessage) error {
	switch verb {
	case "rules":
		d.reply(ctx, msg.ChannelID, rulesText)
	case "add":
		channel, err := d.engine.Register(ctx, msg.ChannelID, msg.ChannelName)
		if err != nil {
			return err
		}
		imported, err := d.engine.Sync(ctx, msg.ChannelID)
		if err != nil {
			return err
		}
		d.reply(ctx, msg.ChannelID,
			fmt.Sprintf(":white_check_mark: **%s** added. Imported %d message(s).", channel.Name, imported))
	case "remove":
		deleted, err := d.engine.Unregister(ctx, msg.ChannelID)
		if err != nil {
			return err
		}
		if !deleted {
			d.reply(ctx, msg.ChannelID, fmt.Sprintf("**%s** is not a registered channel.", msg.ChannelName))
			return nil
		}
		d.reply(ctx, msg.ChannelID, fmt.Sprintf(":white_check_mark: **%s** removed.", msg.ChannelName))
	case "sync":
		imported, err := d.engine.Sync(ctx, msg.ChannelID)
		if err != nil {
			return err
		}
		d.reply(ctx, msg.ChannelID,
			fmt.Sprintf(":white_check_mark: **%s** synchronized. Imported %d message(s).", msg.ChannelName, imported))
	case "info":
		info, err := d.engine.Info(ctx, msg.ChannelID)
		if err != nil {
			var notRegistered *engine.NotRegisteredError
			if errors.As(err, &notRegistered) {
				d.reply(ctx, msg.ChannelID, fmt.Sprintf("**%s** is not a registered channel.", msg.ChannelName))
				return nil
			}
			return err
		}
		text := fmt.Sprintf("**%s** is registered. Currently logged %d message(s).", info.Name, info.Messages)
		if info.GameRunning {
			text += fmt.Sprintf("\nCurrently in game. Started %s!", info.GameStarted.Format("2006-01-02 15:04:05 MST"))
		} else {
			text += "\nNo game in session."
		}
		d.reply(ctx, msg.ChannelID, text)
	case "start":
		if _, err := d.engine.StartGame(ctx, msg.ChannelID); err != nil {
			return err
		}
		d.reply(ctx, msg.ChannelID, fmt.Sprintf("**%s** game started.", msg.ChannelName))
	case "end":
		if _, err := d.engine.EndGame(ctx, msg.ChannelID); err != nil {
			return err
		}
		d.reply(ctx, msg.ChannelID, fmt.Sprintf("**%s** game ended.", msg.ChannelName))
	}
	return nil
}

// describe turns engine errors into user-facing text.
func describe(err error) string {
	var notRegistered *engine.NotRegisteredError
	var alreadyRunning *engine.AlreadyRunningError
	var notRunning *engine.NotRunningError
	switch {
	case errors.As(err, &notRegistered),
		errors.As(err, &alreadyRunning),
		errors.As(err, &notRunning):
		return err.Error()
	default:
		return fmt.Sprintf("Internal Error: %v", err)
	}
}

func (d *Dispatcher) reply(ctx context.Context, channelID, text string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Reply(ctx, channelID, text); err != nil {
		d.logger.Warn("command reply failed", "channel_id", channelID, "err", err)
	}
}
