package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxFileSize   = 50 * 1024 * 1024
	defaultPendingTTL    = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

type Config struct {
	BotToken      string
	MaxFileSize   int64
	PendingTTL    time.Duration
	SweepInterval time.Duration
	WorkspaceRoot string
}

func Load() Config {
	return Config{
		BotToken:      strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		MaxFileSize:   getEnvInt64("MAX_FILE_SIZE", defaultMaxFileSize),
		PendingTTL:    getEnvDuration("PENDING_TTL", defaultPendingTTL),
		SweepInterval: getEnvDuration("PENDING_SWEEP_INTERVAL", defaultSweepInterval),
		WorkspaceRoot: getEnvString("WORKSPACE_ROOT", filepath.Join(os.TempDir(), "morph_bot")),
	}
}

func getEnvString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt64(name string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
