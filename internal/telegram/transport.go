package telegram

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BatmanBruc/morph-bot/internal/convo"
	"github.com/BatmanBruc/morph-bot/internal/messages"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Transport реализует convo.Transport поверх Telegram Bot API.
type Transport struct {
	b *bot.Bot
}

func NewTransport(b *bot.Bot) *Transport {
	return &Transport{b: b}
}

func (t *Transport) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := t.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

func (t *Transport) SendMenu(ctx context.Context, chatID int64, text string, options []convo.MenuOption) error {
	_, err := t.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: buildMenuKeyboard(options),
	})
	return err
}

func (t *Transport) SendFile(ctx context.Context, chatID int64, path, fileName string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if fileName == "" {
		fileName = filepath.Base(path)
	}
	_, err = t.b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: fileName,
			Data:     f,
		},
		Caption: fileName,
	})
	return err
}

func buildMenuKeyboard(options []convo.MenuOption) *models.InlineKeyboardMarkup {
	pad := func(s string) string { return " " + s + " " }
	rows := make([][]models.InlineKeyboardButton, 0)
	row := make([]models.InlineKeyboardButton, 0, 3)
	for i, opt := range options {
		if i > 0 && i%3 == 0 {
			rows = append(rows, row)
			row = make([]models.InlineKeyboardButton, 0, 3)
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         pad(opt.Label),
			CallbackData: "conv_" + opt.Token,
		})
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
