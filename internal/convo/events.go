package convo

import (
	"context"

	"github.com/BatmanBruc/morph-bot/internal/i18n"
)

// Upload — входящий файл. Fetch вызывается только после того, как формат
// и размер прошли проверку, чтобы не тянуть заведомо отклоняемые файлы.
type Upload struct {
	ChatID    int64
	UserID    int64
	FileName  string
	SizeBytes int64
	Lang      i18n.Lang
	Fetch     func(ctx context.Context) ([]byte, error)
}

// Choice — нажатие кнопки целевого формата.
type Choice struct {
	ChatID int64
	UserID int64
	Target string
	Lang   i18n.Lang
}

// Command — команда вида /help; не меняет состояние диалога.
type Command struct {
	ChatID int64
	UserID int64
	Name   string
	Args   []string
	Lang   i18n.Lang
}

type MenuOption struct {
	Label string
	Token string
}

// Transport — абстрактный контракт чат-протокола. Ядро не знает, какой
// мессенджер за ним стоит.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string, options []MenuOption) error
	SendFile(ctx context.Context, chatID int64, path, fileName string) error
}
