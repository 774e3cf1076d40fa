package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/BatmanBruc/morph-bot/internal/config"
	"github.com/BatmanBruc/morph-bot/internal/converter"
	"github.com/BatmanBruc/morph-bot/internal/convo"
	"github.com/BatmanBruc/morph-bot/internal/pending"
	"github.com/BatmanBruc/morph-bot/internal/telegram"
	"github.com/BatmanBruc/morph-bot/internal/workspace"
	"github.com/BatmanBruc/morph-bot/store"
	"github.com/BatmanBruc/morph-bot/types"
	"github.com/go-telegram/bot"
)

func main() {
	_ = config.LoadEnvFile("config.env")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := config.Load()

	var prefs types.PrefsStore
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisPort := os.Getenv("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}

		redisDB := 0
		if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
			var err error
			redisDB, err = strconv.Atoi(redisDBStr)
			if err != nil {
				log.Printf("Invalid REDIS_DB value, using default: 0")
				redisDB = 0
			}
		}

		redisAddr := fmt.Sprintf("%s:%s", redisHost, redisPort)
		rdb, err := store.NewRedisClient(redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB, "morph_bot")
		if err != nil {
			log.Printf("Redis unavailable, user preferences disabled: %v", err)
		} else {
			defer rdb.Close()
			prefs = store.NewRedisPrefsStore(rdb, 0)
		}
	}

	var history types.HistoryStore
	if os.Getenv("POSTGRES_DSN") != "" || os.Getenv("POSTGRES_HOST") != "" {
		pgStore, err := store.NewPostgresStore(ctx, os.Getenv("POSTGRES_DSN"))
		if err != nil {
			log.Printf("Postgres unavailable, conversion history disabled: %v", err)
		} else {
			defer pgStore.Close()
			history = pgStore
		}
	}

	workspaces, err := workspace.NewManager(cfg.WorkspaceRoot)
	if err != nil {
		log.Fatalf("Failed to prepare workspace root: %v", err)
	}

	botToken := cfg.BotToken
	if botToken == "" {
		botToken = "YOUR_BOT_TOKEN_FROM_BOTFATHER"
		log.Println("Warning: Using default bot token. Set BOT_TOKEN environment variable.")
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		botToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	dispatcher := converter.NewDispatcher(cfg.MaxFileSize)

	ctrl := convo.NewController(
		telegram.NewTransport(b),
		dispatcher,
		workspaces,
		pending.NewStore(),
		prefs,
		history,
		convo.Config{
			MaxFileSize: cfg.MaxFileSize,
			PendingTTL:  cfg.PendingTTL,
		},
	)
	defer ctrl.Close()

	go ctrl.RunExpiry(ctx, cfg.SweepInterval)

	telegram.NewHandler(ctrl, prefs).Register(b)

	log.Println("Bot started. Press Ctrl+C to stop.")
	b.Start(ctx)
}
