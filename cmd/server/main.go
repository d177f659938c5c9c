package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hyperhook/internal/api"
	"hyperhook/internal/config"
	"hyperhook/internal/exchange"
	"hyperhook/internal/notify"
	"hyperhook/internal/service"
	"hyperhook/pkg/utils"
)

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация биржевого шлюза
	gateway, err := exchange.NewHyperliquid(cfg.Exchange.APIURL, cfg.Exchange.WalletAddress, cfg.Exchange.PrivateKey)
	if err != nil {
		logger.Fatal("failed to create exchange gateway", zap.Error(err))
	}
	gateway.SetSlippage(cfg.Exchange.SlippagePct)

	// Авторизация на бирже до приёма трафика: с нерабочим ключом
	// сервис не должен стартовать вовсе
	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Exchange.OrderTimeout)
	err = gateway.Connect(connectCtx)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to exchange", zap.Error(err))
	}

	logger.Info("connected to exchange",
		zap.String("exchange", gateway.GetName()),
		zap.String("wallet", cfg.Exchange.WalletAddress),
	)

	// Инициализация сервисов
	notifier := notify.NewDiscord(cfg.Notify.DiscordWebhookURL, cfg.Notify.Timeout)
	notificationService := service.NewNotificationService(notifier, logger, cfg.Notify.Timeout)
	tradeService := service.NewTradeService(gateway, cfg.Relay, logger)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		TradeService:        tradeService,
		NotificationService: notificationService,
		Logger:              logger,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	notificationService.NotifyStarted(cfg.Relay.DefaultSymbol, cfg.Relay.Leverage)

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// Закрываем соединение с биржей; сбой здесь не мешает остановке
	if err := gateway.Close(); err != nil {
		logger.Warn("error closing exchange connection", zap.Error(err))
	}

	notificationService.NotifyStopped()

	logger.Info("server stopped")
}
