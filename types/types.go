package types

import "time"

type User struct {
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConversionRecord struct {
	UserID     int64     `json:"user_id"`
	SourceExt  string    `json:"source_ext"`
	TargetExt  string    `json:"target_ext"`
	SizeBytes  int64     `json:"size_bytes"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConversionStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
}

// PrefsStore хранит пользовательские настройки (язык и т.п.).
type PrefsStore interface {
	GetUserOptions(userID int64) (map[string]interface{}, error)
	SetUserOptions(userID int64, options map[string]interface{}) error
}

// HistoryStore — реестр пользователей и журнал конвертаций для /stats.
// Это аудит, а не очередь: из него ничего не возобновляется.
type HistoryStore interface {
	UpsertUser(user User) error
	RecordConversion(rec ConversionRecord) error
	UserStats(userID int64) (ConversionStats, error)
}
