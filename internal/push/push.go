// Package push dispatches briefing notifications to users.
//
// A user's push token is opaque to the rest of the service. The Telegram
// pusher reads it as a chat id; the log pusher only records the send.
package push

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// ErrInvalidToken is returned when a token cannot address a recipient.
var ErrInvalidToken = errors.New("push: invalid token")

// Notification is one message for one device.
type Notification struct {
	Title string
	Body  string
}

// Pusher delivers notifications.
type Pusher interface {
	Push(ctx context.Context, token string, n Notification) error
}

// sender is the part of *tgbotapi.BotAPI the Telegram pusher needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram pushes notifications as Telegram bot messages.
type Telegram struct {
	bot sender
}

var _ Pusher = (*Telegram)(nil)

// NewTelegram authenticates the bot token against the Telegram API.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

// Push sends n to the chat whose id is token.
func (t *Telegram) Push(ctx context.Context, token string, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	text := n.Title
	if n.Body != "" {
		text = n.Title + "\n\n" + n.Body
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Log writes notifications to the structured log instead of a device. It is
// the fallback when no Telegram token is configured.
type Log struct{}

var _ Pusher = Log{}

func (Log) Push(ctx context.Context, token string, n Notification) error {
	log.Ctx(ctx).Info().
		Str("push_token", redactToken(token)).
		Str("title", n.Title).
		Int("body_len", len(n.Body)).
		Msg("push notification (log only)")
	return nil
}

func redactToken(tok string) string {
	if len(tok) <= 4 {
		return "****"
	}
	return "****" + tok[len(tok)-4:]
}

// Sent is one delivery captured by Recorder.
type Sent struct {
	Token        string
	Notification Notification
}

// Recorder keeps every notification in memory. Err, if set, fails each push.
type Recorder struct {
	Err error

	mu   sync.Mutex
	sent []Sent
}

var _ Pusher = (*Recorder)(nil)

func (r *Recorder) Push(_ context.Context, token string, n Notification) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Token: token, Notification: n})
	return nil
}

// Sent returns a copy of the recorded deliveries.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}
