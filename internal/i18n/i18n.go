package i18n

import "strings"

type Lang string

const (
	RU Lang = "ru"
	EN Lang = "en"
)

// FromLanguageCode сводит telegram language_code к поддерживаемому языку.
func FromLanguageCode(code string) Lang {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), "ru") {
		return RU
	}
	return EN
}

func Parse(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ru":
		return RU
	default:
		return EN
	}
}
