package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hyperhook/internal/api/handlers"
	"hyperhook/internal/api/middleware"
	"hyperhook/internal/service"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	TradeService        service.TradeServiceInterface
	NotificationService service.NotificationServiceInterface
	Logger              *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
//	POST /webhook  - алерт от TradingView
//	GET  /health   - проверка живости
//	GET  /metrics  - метрики Prometheus
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
//
// Аутентификации на уровне middleware нет: секрет лежит в теле алерта
// и проверяется в TradeService, как его присылает TradingView.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(deps.Logger, deps.NotificationService))
	router.Use(middleware.Logging(deps.Logger))

	// Создание handlers с внедрением зависимостей
	webhookHandler := handlers.NewWebhookHandler(deps.TradeService, deps.NotificationService, deps.Logger)
	healthHandler := handlers.NewHealthHandler()

	router.HandleFunc("/webhook", webhookHandler.HandleAlert).Methods(http.MethodPost)
	router.HandleFunc("/health", healthHandler.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}
