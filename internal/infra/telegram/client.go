package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the push.Client interface using the
// gopkg.in/telebot.v3 library. Only outgoing sends are used; the bot never
// polls for updates.
type TelebotAdapter struct {
	bot *telebot.Bot
}

// NewTelebotAdapter builds an adapter around a bot created with the given
// token. No Poller is configured.
func NewTelebotAdapter(token string) (*TelebotAdapter, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &TelebotAdapter{bot: bot}, nil
}

// SendReminder pushes a short reminder text to the user's linked chat.
func (tba *TelebotAdapter) SendReminder(_ context.Context, chatID int64, text string) error {
	recipient := &telebot.User{ID: chatID}
	_, err := tba.bot.Send(recipient, text, &telebot.SendOptions{})
	return err
}
