// Package telegram sends channel announcements through the Telegram Bot
// API via telebot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/GoJackzi/zama-news-bot/internal/transport"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

type Config struct {
	Token   string
	Channel string        // numeric chat id or @channelname
	Timeout time.Duration // per-call HTTP timeout
}

// channel satisfies tele.Recipient for both numeric ids and @names;
// the Bot API accepts either in the chat_id field.
type channel string

func (c channel) Recipient() string { return string(c) }

// Sender posts messages to a single channel. It never polls for updates,
// so no telebot poller is configured.
type Sender struct {
	bot *tele.Bot
	to  channel
	log logx.Logger
}

func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if strings.TrimSpace(cfg.Channel) == "" {
		return nil, errors.New("telegram channel is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// NewBot validates the token against getMe before returning.
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sender{bot: b, to: channel(strings.TrimSpace(cfg.Channel)), log: log}, nil
}

// Send posts one HTML-formatted message with link previews disabled.
func (s *Sender) Send(ctx context.Context, text string) error {
	// telebot calls have no context parameter; honor cancellation up front
	// and rely on the HTTP client timeout to bound the call itself.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := s.bot.Send(s.to, text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return mapAPIError(err)
	}
	return nil
}

// mapAPIError folds telebot errors into the transport taxonomy.
func mapAPIError(err error) error {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &transport.RateLimitedError{RetryAfter: time.Duration(flood.RetryAfter) * time.Second}
	}

	switch {
	case errors.Is(err, tele.ErrUnauthorized):
		return fmt.Errorf("%w: %v", transport.ErrUnauthorized, err)
	case errors.Is(err, tele.ErrChatNotFound):
		return fmt.Errorf("%w: %v", transport.ErrChatNotFound, err)
	case errors.Is(err, tele.ErrTooLongMessage):
		return fmt.Errorf("%w: %v", transport.ErrMessageTooLong, err)
	}

	var te *tele.Error
	if errors.As(err, &te) {
		switch {
		case te.Code == http.StatusUnauthorized || te.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", transport.ErrUnauthorized, err)
		case te.Code >= 400 && te.Code < 500:
			// Other API rejections will fail identically on retry.
			return &transport.PermanentError{Err: err}
		}
	}

	// 5xx, timeouts and network errors stay transient.
	return err
}
