package telegram

import (
	"testing"

	"github.com/BatmanBruc/morph-bot/internal/convo"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	name, args := parseCommand("/start")
	assert.Equal(t, "start", name)
	assert.Empty(t, args)

	name, args = parseCommand("/lang ru")
	assert.Equal(t, "lang", name)
	assert.Equal(t, []string{"ru"}, args)

	name, _ = parseCommand("/Help@morph_bot")
	assert.Equal(t, "help", name)

	name, _ = parseCommand("   ")
	assert.Equal(t, "", name)
}

func TestExtFromMime(t *testing.T) {
	assert.Equal(t, "jpg", extFromMime("image/jpeg"))
	assert.Equal(t, "mov", extFromMime("video/quicktime"))
	assert.Equal(t, "txt", extFromMime("text/plain; charset=utf-8"))
	assert.Equal(t, "docx", extFromMime("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, "", extFromMime("application/unknown"))
}

func TestFileFromMessage(t *testing.T) {
	// документ без расширения дополняется по mime
	msg := &models.Message{
		Document: &models.Document{FileID: "d1", FileName: "notes", MimeType: "text/plain", FileSize: 12},
	}
	f, ok := fileFromMessage(msg)
	require.True(t, ok)
	assert.Equal(t, "notes.txt", f.name)
	assert.Equal(t, int64(12), f.size)

	// из фото-вариантов берётся самый большой
	msg = &models.Message{
		Photo: []models.PhotoSize{
			{FileID: "small", FileSize: 100},
			{FileID: "big", FileSize: 9000},
			{FileID: "mid", FileSize: 500},
		},
	}
	f, ok = fileFromMessage(msg)
	require.True(t, ok)
	assert.Equal(t, "big", f.id)
	assert.Contains(t, f.name, "photo_")
	assert.Contains(t, f.name, ".jpg")

	// текстовое сообщение файла не содержит
	_, ok = fileFromMessage(&models.Message{Text: "hello"})
	assert.False(t, ok)
}

func TestBuildMenuKeyboard(t *testing.T) {
	options := []convo.MenuOption{
		{Label: "PNG", Token: "png"},
		{Label: "PDF", Token: "pdf"},
		{Label: "WEBP", Token: "webp"},
		{Label: "GIF", Token: "gif"},
	}
	kb := buildMenuKeyboard(options)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 3)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	assert.Equal(t, "conv_png", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, " PNG ", kb.InlineKeyboard[0][0].Text)
}
