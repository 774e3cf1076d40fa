package formats

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/BatmanBruc/morph-bot/internal/i18n"
	"github.com/BatmanBruc/morph-bot/internal/messages"
)

type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
	CategoryData     Category = "data"
)

var ErrUnknownFormat = errors.New("unknown format")

// FormatEntry описывает одну категорию: исходные расширения и допустимые цели.
type FormatEntry struct {
	Sources []string
	Targets []string
}

// Таблица совместимости — единственный источник истины о том, что бот
// вообще попытается сделать. mp3 у видео — извлечение звуковой дорожки,
// единственная межкатегорийная цель.
var catalog = map[Category]FormatEntry{
	CategoryImage: {
		Sources: []string{"jpg", "jpeg", "png", "bmp", "gif", "tiff", "webp"},
		Targets: []string{"jpg", "png", "pdf", "webp"},
	},
	CategoryDocument: {
		Sources: []string{"pdf", "docx", "txt"},
		Targets: []string{"pdf", "txt", "docx"},
	},
	CategoryVideo: {
		Sources: []string{"mp4", "avi", "mov", "mkv", "webm"},
		Targets: []string{"mp4", "gif", "mp3"},
	},
	CategoryData: {
		Sources: []string{"csv", "xlsx", "json"},
		Targets: []string{"csv", "xlsx", "json"},
	},
}

var extToCategory = func() map[string]Category {
	m := make(map[string]Category)
	for cat, entry := range catalog {
		for _, ext := range entry.Sources {
			m[ext] = cat
		}
	}
	return m
}()

func Normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func CategoryOf(ext string) (Category, error) {
	cat, ok := extToCategory[Normalize(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return cat, nil
}

// LegalTargets возвращает допустимые целевые форматы для расширения.
// Пустой список — формат распознан, но конвертировать его некуда.
func LegalTargets(ext string) ([]string, error) {
	cat, err := CategoryOf(ext)
	if err != nil {
		return nil, err
	}
	targets := catalog[cat].Targets
	out := make([]string, len(targets))
	copy(out, targets)
	return out, nil
}

// TargetsFor — то, что показывается в меню: legal targets без самого
// исходного формата (jpeg и jpg считаются одним форматом).
func TargetsFor(ext string) ([]string, error) {
	targets, err := LegalTargets(ext)
	if err != nil {
		return nil, err
	}
	src := Normalize(ext)
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if t == src || (isJpeg(t) && isJpeg(src)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func isJpeg(ext string) bool {
	return ext == "jpg" || ext == "jpeg"
}

func IsLegalTarget(source, target string) bool {
	targets, err := LegalTargets(source)
	if err != nil {
		return false
	}
	target = Normalize(target)
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}

type FormatButton struct {
	Text         string
	CallbackData string
}

const callbackPrefix = "conv_"

// TargetButtons формирует кнопки inline-клавиатуры для исходного расширения.
// Callback data имеет вид "conv_<lowercase_format>".
func TargetButtons(ext string) ([]FormatButton, error) {
	targets, err := TargetsFor(ext)
	if err != nil {
		return nil, err
	}
	buttons := make([]FormatButton, 0, len(targets))
	for _, t := range targets {
		buttons = append(buttons, FormatButton{
			Text:         strings.ToUpper(t),
			CallbackData: callbackPrefix + t,
		})
	}
	return buttons, nil
}

// ParseCallback извлекает целевой формат из callback data кнопки.
func ParseCallback(data string) (string, bool) {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, callbackPrefix) {
		return "", false
	}
	target := Normalize(strings.TrimPrefix(data, callbackPrefix))
	if target == "" {
		return "", false
	}
	return target, true
}

// MatchesContent проверяет, что содержимое файла не противоречит заявленному
// расширению. Проверка мягкая: нераспознанное содержимое не считается
// несовпадением, ложь возвращается только при явном конфликте категорий.
func MatchesContent(ext string, head []byte) bool {
	cat, err := CategoryOf(ext)
	if err != nil {
		return false
	}
	ct := http.DetectContentType(head)
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))

	switch {
	case ct == "application/octet-stream":
		return true
	case strings.HasPrefix(ct, "image/"):
		return cat == CategoryImage
	case strings.HasPrefix(ct, "video/") || ct == "application/ogg":
		return cat == CategoryVideo
	case ct == "application/pdf":
		return cat == CategoryDocument
	case ct == "application/zip":
		// docx и xlsx — zip-контейнеры.
		return cat == CategoryDocument || cat == CategoryData
	case strings.HasPrefix(ct, "text/") || ct == "application/json":
		return cat == CategoryDocument || cat == CategoryData
	default:
		return true
	}
}

func FormatsMessage(lang i18n.Lang) string {
	var msg strings.Builder
	if lang == i18n.RU {
		msg.WriteString("ℹ️ <b>Поддерживаемые форматы</b>\n\n")
	} else {
		msg.WriteString("ℹ️ <b>Supported formats</b>\n\n")
	}

	names := map[Category][2]string{
		CategoryImage:    {"📷 Изображения", "📷 Images"},
		CategoryDocument: {"💼 Документы", "💼 Documents"},
		CategoryVideo:    {"📹 Видео", "📹 Video"},
		CategoryData:     {"📊 Данные", "📊 Data"},
	}
	order := []Category{CategoryImage, CategoryDocument, CategoryVideo, CategoryData}

	for _, cat := range order {
		entry := catalog[cat]
		name := names[cat][1]
		from, to := "From", "To"
		if lang == i18n.RU {
			name = names[cat][0]
			from, to = "Из", "В"
		}
		sources := make([]string, len(entry.Sources))
		copy(sources, entry.Sources)
		sort.Strings(sources)
		msg.WriteString(fmt.Sprintf("• <b>%s</b>\n", messages.Escape(name)))
		msg.WriteString(fmt.Sprintf("  %s: <code>%s</code>\n", from, messages.Escape(strings.Join(sources, ", "))))
		msg.WriteString(fmt.Sprintf("  %s: <code>%s</code>\n\n", to, messages.Escape(strings.Join(entry.Targets, ", "))))
	}
	return strings.TrimRight(msg.String(), "\n")
}
