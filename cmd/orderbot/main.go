package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/config"
	"github.com/drksurvraze/orderbot/internal/handlers"
	"github.com/drksurvraze/orderbot/internal/metrics"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/notify"
	"github.com/drksurvraze/orderbot/internal/platform/discord"
	"github.com/drksurvraze/orderbot/internal/service"
	"github.com/drksurvraze/orderbot/internal/store"
)

func main() {
	err := initLogger()
	if err != nil {
		logger.Log.Warn(err.Error())
	}

	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf := config.InitConfig()
	if conf.BotToken == "" {
		return errors.New("bot token is not configured")
	}

	orderStore := store.New(conf.Scope())
	collector := metrics.New()

	bot, err := discord.NewBot(conf.BotToken, conf.Prefix, conf.GuildID, conf.OrderChannels())
	if err != nil {
		return err
	}

	notifier := notify.New(bot, conf.AnnounceChannelID, conf.SupportInviteURL, conf.MentionEveryone)
	controller := service.NewController(orderStore, bot, bot, notifier, collector)
	ingestor := service.NewIngestor(orderStore, bot, notifier, collector, conf.Scope(), conf.AutoExpire())
	router := handlers.NewRouter(conf.Prefix, conf.CommandChannels(), conf.OrderChannels(), controller, orderStore, collector, bot, bot, notifier, bot.Latency)

	bot.Bind(router, ingestor)
	if err := bot.Start(); err != nil {
		return err
	}

	serverService := service.NewServerService(rootCtx, conf.OpsAddress)
	serverService.SetRouter(orderStore, collector, conf.OpsJWTSecret, time.Now())

	serverErr := make(chan error, 1)
	logger.Log.Info("Running Server on", zap.String("address", conf.OpsAddress))
	go serverService.RunServer(&serverErr)

	// Ждем сигнал завершения или ошибку сервера
	select {
	case <-rootCtx.Done():
		logger.Log.Info("Received shutdown signal, shutting down.")
	case err = <-serverErr:
		logger.Log.Error("Server error", zap.Error(err))
	}

	if closeErr := bot.Close(); closeErr != nil {
		logger.Log.Error("Gateway close error", zap.Error(closeErr))
	}
	if shutdownErr := serverService.Shutdown(); shutdownErr != nil {
		logger.Log.Error("Server shutdown error", zap.Error(shutdownErr))
	}

	return err
}

func initLogger() error {
	if err := logger.Initialize("debug"); err != nil {
		return err
	}
	return nil
}
