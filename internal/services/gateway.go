package services

import (
	"context"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Action - кнопка под сообщением
type Action struct {
	Label string
	Data  string
}

// Gateway - канал доставки сообщений. Ядру нужны только отправка и удаление.
type Gateway interface {
	Send(ctx context.Context, userID int64, text string, actions []Action) (models.MessageRef, error)
	Delete(ctx context.Context, ref models.MessageRef) error
}

type telegramGateway struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramGateway(bot *tgbotapi.BotAPI) Gateway {
	return &telegramGateway{bot: bot}
}

func (g *telegramGateway) Send(_ context.Context, userID int64, text string, actions []Action) (models.MessageRef, error) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if len(actions) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
		for _, a := range actions {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	sent, err := g.bot.Send(msg)
	if err != nil {
		return models.MessageRef{}, err
	}
	return models.MessageRef{
		ChatID:    sent.Chat.ID,
		MessageID: sent.MessageID,
	}, nil
}

func (g *telegramGateway) Delete(_ context.Context, ref models.MessageRef) error {
	if ref.ChatID == 0 || ref.MessageID == 0 {
		return nil
	}
	// сообщение могло быть уже удалено - это не ошибка для вызывающего
	_, err := g.bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}
