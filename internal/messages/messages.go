package messages

import (
	"fmt"
	"strings"

	"github.com/BatmanBruc/morph-bot/internal/i18n"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func FileLine(lang i18n.Lang, fileName string) string {
	name := strings.TrimSpace(fileName)
	if name == "" {
		if lang == i18n.RU {
			name = "файл"
		} else {
			name = "file"
		}
	}
	if lang == i18n.RU {
		return fmt.Sprintf("📄 <b>Файл:</b> %s", Escape(name))
	}
	return fmt.Sprintf("📄 <b>File:</b> %s", Escape(name))
}

func StartWelcome(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "👋 <b>Привет!</b>\nЯ конвертирую файлы.\n\n" +
			"📎 Отправьте файл (документ/фото/видео/таблицу).\n" +
			"🧩 Выберите формат в появившихся кнопках.\n\n" +
			"Команды: /help /formats /stats /lang"
	}
	return "👋 <b>Hi!</b>\nI convert files.\n\n" +
		"📎 Send a file (document/photo/video/spreadsheet).\n" +
		"🧩 Pick a target format from the buttons.\n\n" +
		"Commands: /help /formats /stats /lang"
}

func Help(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "ℹ️ <b>Как пользоваться</b>\n" +
			"1) Отправьте файл\n" +
			"2) Выберите целевой формат в кнопках\n" +
			"3) Дождитесь результата\n\n" +
			"/formats — поддерживаемые форматы\n" +
			"/stats — ваша статистика\n" +
			"/lang ru|en|auto — язык"
	}
	return "ℹ️ <b>How to use</b>\n" +
		"1) Send a file\n" +
		"2) Pick the target format from the buttons\n" +
		"3) Wait for the result\n\n" +
		"/formats — supported formats\n" +
		"/stats — your usage\n" +
		"/lang ru|en|auto — language"
}

func ChooseFormat(lang i18n.Lang, fileName, category string, sizeBytes int64) string {
	size := fmt.Sprintf("%.1f KB", float64(sizeBytes)/1024)
	if lang == i18n.RU {
		return "📥 <b>Файл получен</b>\n" + FileLine(lang, fileName) +
			fmt.Sprintf("\n🔸 <b>Тип:</b> %s\n📊 <b>Размер:</b> %s", Escape(category), size) +
			"\n\nВыберите формат для конвертации:"
	}
	return "📥 <b>File received</b>\n" + FileLine(lang, fileName) +
		fmt.Sprintf("\n🔸 <b>Type:</b> %s\n📊 <b>Size:</b> %s", Escape(category), size) +
		"\n\nChoose the target format:"
}

func ErrorUnknownFormat(lang i18n.Lang, ext string) string {
	ext = Escape(strings.TrimPrefix(ext, "."))
	if lang == i18n.RU {
		return fmt.Sprintf("🚫 <b>Неподдерживаемый тип файла:</b> %s\nСписок форматов: /formats", ext)
	}
	return fmt.Sprintf("🚫 <b>Unsupported file type:</b> %s\nSee /formats for the supported list.", ext)
}

func ErrorNoConversionOptions(lang i18n.Lang, fileName string) string {
	if lang == i18n.RU {
		return "🚫 <b>Для этого файла нет доступных конвертаций</b>\n" + FileLine(lang, fileName)
	}
	return "🚫 <b>No conversion options for this file</b>\n" + FileLine(lang, fileName)
}

func ErrorUnsupportedConversion(lang i18n.Lang, source, target string) string {
	pair := Escape(strings.ToUpper(source)) + " → " + Escape(strings.ToUpper(target))
	if lang == i18n.RU {
		return "🚫 <b>Такая конвертация не поддерживается:</b> " + pair
	}
	return "🚫 <b>This conversion is not supported:</b> " + pair
}

func ErrorFileTooLarge(lang i18n.Lang, maxBytes int64) string {
	mb := maxBytes / (1024 * 1024)
	if lang == i18n.RU {
		return fmt.Sprintf("🚫 <b>Файл слишком большой</b>\nМаксимальный размер — %d МБ. Попробуйте уменьшить файл.", mb)
	}
	return fmt.Sprintf("🚫 <b>File too large</b>\nMaximum size is %d MB. Try shrinking the file.", mb)
}

func ErrorNoPendingRequest(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🚫 <b>Нет файла для конвертации</b>\nОтправьте файл ещё раз."
	}
	return "🚫 <b>No file to convert</b>\nPlease upload the file again."
}

func ErrorStorage(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🚫 <b>Ошибка сервиса</b>\nПопробуйте ещё раз."
	}
	return "🚫 <b>Service error</b>\nPlease try again."
}

func ErrorConversionFailed(lang i18n.Lang, fileName string) string {
	if lang == i18n.RU {
		return "🚫 <b>Ошибка конвертации</b>\n" + FileLine(lang, fileName) + "\n\nПопробуйте отправить файл ещё раз."
	}
	return "🚫 <b>Conversion failed</b>\n" + FileLine(lang, fileName) + "\n\nPlease upload the file and try again."
}

func ErrorContentMismatch(lang i18n.Lang, ext string) string {
	ext = Escape(strings.TrimPrefix(ext, "."))
	if lang == i18n.RU {
		return fmt.Sprintf("🚫 <b>Содержимое файла не похоже на .%s</b>\nПереименуйте файл или отправьте корректный.", ext)
	}
	return fmt.Sprintf("🚫 <b>File content does not look like .%s</b>\nRename the file or send a valid one.", ext)
}

func ConversionDone(lang i18n.Lang, target string) string {
	target = Escape(strings.ToUpper(strings.TrimPrefix(target, ".")))
	if lang == i18n.RU {
		return "✅ <b>Готово:</b> " + target
	}
	return "✅ <b>Converted to:</b> " + target
}

func ErrorUnsupportedMessageType(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🤖 <b>Я так не умею</b>\nОтправьте файл."
	}
	return "🤖 <b>I can't do that</b>\nSend me a file."
}

func ErrorUnknownCommand(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "❓ <b>Команда не найдена</b>"
	}
	return "❓ <b>Unknown command</b>"
}

func StatsLine(lang i18n.Lang, total, ok int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("📈 <b>Конвертаций:</b> %d\n✅ <b>Успешных:</b> %d", total, ok)
	}
	return fmt.Sprintf("📈 <b>Conversions:</b> %d\n✅ <b>Succeeded:</b> %d", total, ok)
}

func StatsUnavailable(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "📈 <b>Статистика недоступна</b>"
	}
	return "📈 <b>Stats are unavailable</b>"
}

func LangUsage(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 Использование: <code>/lang ru|en|auto</code>"
	}
	return "🌐 Usage: <code>/lang ru|en|auto</code>"
}

func LangSet(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 Язык переключен на русский"
	}
	return "🌐 Language switched to English"
}

func LangAuto(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 Язык определяется автоматически"
	}
	return "🌐 Language is detected automatically"
}

func LangInvalid(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 Неизвестный язык. Доступно: ru, en, auto"
	}
	return "🌐 Unknown language. Available: ru, en, auto"
}

func LangUnavailable(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 Настройка языка сейчас недоступна"
	}
	return "🌐 Language settings are unavailable right now"
}
