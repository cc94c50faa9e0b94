package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/api/scoring"
	"github.com/Alias1177/ChurnPredictor/internal/config"
	"github.com/Alias1177/ChurnPredictor/internal/controller"
	"github.com/Alias1177/ChurnPredictor/internal/render"
	"github.com/Alias1177/ChurnPredictor/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	scorer := scoring.NewClient(scoring.ClientOptions{
		BaseURL:        cfg.ScoringBaseURL,
		RequestTimeout: cfg.Timeout(),
		RequestsPerSec: cfg.RequestsPerSec,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if wait := cfg.BackendWait(); wait > 0 {
		if err := scorer.WaitReady(ctx, wait); err != nil {
			log.Warn().Err(err).Msg("Starting without a reachable scoring service")
		}
	}

	handler := telegram.NewBot(bot, func(a controller.Alerter) *controller.Controller {
		return controller.New(scorer, a)
	}, telegram.Options{
		Render: render.Options{
			HighRiskProbability: cfg.HighRiskProbability,
			VIPMonetary:         cfg.VIPMonetary,
		},
		AlertChatID: cfg.AlertChatID,
	})

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	handler.Run(ctx, updates)
	bot.StopReceivingUpdates()
	log.Info().Msg("Bot stopped")
}
