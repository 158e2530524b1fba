package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is a notification to deliver.
type Message struct {
	Title string
	Body  string
}

// Notifier delivers messages to the user.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// FuncNotifier adapts a function to Notifier.
type FuncNotifier func(ctx context.Context, msg Message) error

func (f FuncNotifier) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogNotifier writes messages to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	log.Printf("[scheduler] %s: %s", msg.Title, msg.Body)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sender is the part of *tg.BotAPI used for delivery.
type sender interface {
	Send(c tg.Chattable) (tg.Message, error)
}

// TelegramNotifier sends messages to one Telegram chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

// NewTelegramNotifier authorizes the bot token and returns a notifier for
// chatID.
func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tg.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	bot.Debug = false
	log.Printf("[scheduler] Telegram authorized on account %s", bot.Self.UserName)

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(_ context.Context, msg Message) error {
	text := "<b>" + html.EscapeString(msg.Title) + "</b>"
	if msg.Body != "" {
		text += "\n" + html.EscapeString(msg.Body)
	}

	m := tg.NewMessage(t.chatID, text)
	m.ParseMode = tg.ModeHTML

	if _, err := t.bot.Send(m); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
