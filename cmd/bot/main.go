package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"songbot/internal/app"
	"songbot/internal/client/ytdlp"
	"songbot/internal/config"
	"songbot/internal/queue"
	"songbot/internal/services/song"
	"songbot/internal/transport/telegram"
	"songbot/internal/transport/webhook"
	"songbot/internal/utils"
)

func main() {
	// Load .env when running locally; ignored if file is absent.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() // best-effort flush

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}
	api.Debug = false

	extractor, err := ytdlp.NewClient(logger)
	if err != nil {
		logger.Fatal("extractor init failed", zap.Error(err))
	}

	songs := song.NewService(extractor, cfg.DownloadDir, cfg.DownloadTimeout, logger)

	bot, err := telegram.NewBot(api, songs, logger)
	if err != nil {
		logger.Fatal("telegram bot failed", zap.Error(err))
	}

	updates := queue.New(cfg.QueueSize)
	server := webhook.NewServer(cfg.ListenAddr(), cfg.BotToken, updates, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("bot is starting", zap.String("addr", cfg.ListenAddr()))
	if err := app.New(cfg, logger, bot, server, updates).Run(ctx); err != nil {
		logger.Fatal("bot stopped with error", zap.Error(err))
	}
}
