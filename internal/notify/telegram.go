// Package notify reports finished runs to a chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"internlee-engine/internal/run"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) RunFinished(ctx context.Context, st run.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatRun(st))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatRun renders a run status as a short HTML message.
func FormatRun(st run.Status) string {
	dur := ""
	if st.LastRunStarted != nil && st.LastRunFinished != nil {
		dur = st.LastRunFinished.Sub(*st.LastRunStarted).Round(time.Second).String()
	}

	switch st.LastStatus {
	case run.StateOK:
		return fmt.Sprintf("✅ <b>Scrape finished</b>\nlistings: %d\ntrigger: %s\nduration: %s",
			st.LastCount, html.EscapeString(st.TriggeredBy), dur)
	case run.StateError:
		msg := ""
		if st.LastError != nil {
			msg = *st.LastError
		}
		return fmt.Sprintf("⚠️ <b>Scrape failed</b>\ntrigger: %s\nduration: %s\nerror: <code>%s</code>",
			html.EscapeString(st.TriggeredBy), dur, html.EscapeString(msg))
	default:
		return fmt.Sprintf("ℹ️ scrape status: %s", st.LastStatus)
	}
}
