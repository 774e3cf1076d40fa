package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BatmanBruc/morph-bot/internal/convo"
	"github.com/BatmanBruc/morph-bot/internal/formats"
	"github.com/BatmanBruc/morph-bot/internal/i18n"
	"github.com/BatmanBruc/morph-bot/internal/messages"
	"github.com/BatmanBruc/morph-bot/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Handler переводит telegram-обновления в события контроллера.
type Handler struct {
	ctrl  *convo.Controller
	prefs types.PrefsStore
}

func NewHandler(ctrl *convo.Controller, prefs types.PrefsStore) *Handler {
	return &Handler{ctrl: ctrl, prefs: prefs}
}

func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, h.handleMessage)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "conv_", bot.MatchTypePrefix, h.handleCallback)
}

func (h *Handler) handleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	lang := h.langFor(userID, msg.From.LanguageCode)

	h.ctrl.RecordUser(types.User{
		UserID:    userID,
		ChatID:    chatID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	})

	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		name, args := parseCommand(msg.Text)
		h.ctrl.HandleCommand(ctx, convo.Command{
			ChatID: chatID,
			UserID: userID,
			Name:   name,
			Args:   args,
			Lang:   lang,
		})
		return
	}

	file, ok := fileFromMessage(msg)
	if !ok {
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      messages.ErrorUnsupportedMessageType(lang),
			ParseMode: messages.ParseModeHTML,
		})
		return
	}

	h.ctrl.HandleUpload(ctx, convo.Upload{
		ChatID:    chatID,
		UserID:    userID,
		FileName:  file.name,
		SizeBytes: file.size,
		Lang:      lang,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return downloadFile(ctx, b, file.id)
		},
	})
}

func (h *Handler) handleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	_, _ = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})

	chatID := chatIDFromCallback(cq)
	if chatID == 0 {
		return
	}
	lang := h.langFor(cq.From.ID, cq.From.LanguageCode)

	target, ok := formats.ParseCallback(cq.Data)
	if !ok {
		return
	}

	// Убираем клавиатуру, чтобы повторное нажатие было явно устаревшим.
	if cq.Message.Message != nil {
		_, _ = b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
			ChatID:    chatID,
			MessageID: cq.Message.Message.ID,
			ReplyMarkup: &models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{},
			},
		})
	}

	h.ctrl.HandleChoice(ctx, convo.Choice{
		ChatID: chatID,
		UserID: cq.From.ID,
		Target: target,
		Lang:   lang,
	})
}

func (h *Handler) langFor(userID int64, languageCode string) i18n.Lang {
	if h.prefs != nil {
		if options, err := h.prefs.GetUserOptions(userID); err == nil {
			if v, ok := options["lang"].(string); ok && v != "" {
				return i18n.Parse(v)
			}
		}
	}
	return i18n.FromLanguageCode(languageCode)
}

func parseCommand(text string) (name string, args []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", nil
	}
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}

func chatIDFromCallback(cq *models.CallbackQuery) int64 {
	if cq.Message.Message != nil {
		return cq.Message.Message.Chat.ID
	}
	if cq.Message.InaccessibleMessage != nil {
		return cq.Message.InaccessibleMessage.Chat.ID
	}
	return 0
}

type incomingFile struct {
	id   string
	name string
	size int64
}

// fileFromMessage достаёт конвертируемый файл из сообщения: документ,
// фото (максимальное разрешение), видео или аудио.
func fileFromMessage(msg *models.Message) (incomingFile, bool) {
	switch {
	case msg.Document != nil:
		doc := msg.Document
		name := strings.TrimSpace(doc.FileName)
		if name == "" || !strings.Contains(name, ".") {
			if ext := extFromMime(doc.MimeType); ext != "" {
				name = strings.TrimSpace(name)
				if name == "" {
					name = "document"
				}
				name = name + "." + ext
			}
		}
		return incomingFile{id: doc.FileID, name: name, size: int64(doc.FileSize)}, true

	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for i := 1; i < len(msg.Photo); i++ {
			if msg.Photo[i].FileSize > best.FileSize {
				best = msg.Photo[i]
			}
		}
		name := fmt.Sprintf("photo_%d.jpg", time.Now().Unix())
		return incomingFile{id: best.FileID, name: name, size: int64(best.FileSize)}, true

	case msg.Video != nil:
		v := msg.Video
		name := strings.TrimSpace(v.FileName)
		if name == "" || !strings.Contains(name, ".") {
			ext := extFromMime(v.MimeType)
			if ext == "" {
				ext = "mp4"
			}
			name = fmt.Sprintf("video_%d.%s", time.Now().Unix(), ext)
		}
		return incomingFile{id: v.FileID, name: name, size: int64(v.FileSize)}, true

	case msg.Audio != nil:
		a := msg.Audio
		name := strings.TrimSpace(a.FileName)
		if name == "" {
			ext := extFromMime(a.MimeType)
			if ext == "" {
				ext = "mp3"
			}
			name = fmt.Sprintf("audio_%d.%s", time.Now().Unix(), ext)
		}
		return incomingFile{id: a.FileID, name: name, size: int64(a.FileSize)}, true
	}
	return incomingFile{}, false
}

func extFromMime(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if slash := strings.Index(mimeType, "/"); slash >= 0 {
		mimeType = mimeType[slash+1:]
	}
	if semi := strings.Index(mimeType, ";"); semi >= 0 {
		mimeType = mimeType[:semi]
	}
	known := map[string]string{
		"jpeg":         "jpg",
		"jpg":          "jpg",
		"png":          "png",
		"gif":          "gif",
		"webp":         "webp",
		"bmp":          "bmp",
		"tiff":         "tiff",
		"pdf":          "pdf",
		"plain":        "txt",
		"csv":          "csv",
		"json":         "json",
		"mp4":          "mp4",
		"quicktime":    "mov",
		"x-matroska":   "mkv",
		"x-msvideo":    "avi",
		"webm":         "webm",
		"mpeg":         "mp3",
		"vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
		"vnd.openxmlformats-officedocument.spreadsheetml.sheet":       "xlsx",
	}
	return known[mimeType]
}
