package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"hyperhook/internal/models"
	"hyperhook/internal/service"
)

// WebhookHandler обрабатывает алерты от TradingView
//
// Единственная точка входа релея: POST /webhook принимает JSON алерт,
// проверяет общий секрет, планирует и исполняет рыночный ордер.
//
// Коды ответов:
// - 200 - ордер исполнен, либо сделка осознанно пропущена
// - 400 - некорректный JSON или неизвестное действие
// - 401 - неверный секрет
// - 500 - сбой биржи (без деталей в теле ответа)
//
// Ошибки валидации (401/400) не порождают уведомлений: секрет может
// подбирать кто угодно из интернета, и каждый такой запрос в Discord
// превратил бы канал в мусор. Любой сбой после валидации даёт ровно
// одно уведомление.
type WebhookHandler struct {
	trades        service.TradeServiceInterface
	notifications service.NotificationServiceInterface
	logger        *zap.Logger
}

// NewWebhookHandler создает новый WebhookHandler
func NewWebhookHandler(trades service.TradeServiceInterface, notifications service.NotificationServiceInterface, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		trades:        trades,
		notifications: notifications,
		logger:        logger,
	}
}

// HandleAlert обрабатывает входящий алерт
// POST /webhook
func (h *WebhookHandler) HandleAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("malformed alert body", zap.Error(err))
		service.AlertsTotal.WithLabelValues("unknown", "rejected").Inc()
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.trades.ValidateAlert(&req)
	if err != nil {
		h.handleValidationError(w, &req, err)
		return
	}

	ctx := r.Context()

	plan, err := h.trades.PlanOrder(ctx, alert)
	if err != nil {
		h.handlePlanError(w, alert, err)
		return
	}

	order, err := h.trades.Execute(ctx, plan)
	if err != nil {
		h.logger.Error("order execution failed",
			zap.String("symbol", plan.Symbol),
			zap.String("action", alert.Action),
			zap.Error(err),
		)
		service.AlertsTotal.WithLabelValues(alert.Action, "error").Inc()
		h.notifications.NotifyError("order execution failed: " + err.Error())
		respondWithError(w, http.StatusInternalServerError, "order execution failed")
		return
	}

	service.AlertsTotal.WithLabelValues(alert.Action, "executed").Inc()
	h.notifications.NotifyOrderExecuted(plan, order)

	status := "ok"
	if plan.Close {
		status = "closed"
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"action":   alert.Action,
		"symbol":   plan.Symbol,
		"side":     order.Side,
		"quantity": order.FilledQty,
		"price":    order.AvgFillPrice,
	})
}

// handleValidationError обрабатывает ошибки до авторизации алерта.
// Уведомления здесь не отправляются.
func (h *WebhookHandler) handleValidationError(w http.ResponseWriter, req *models.AlertRequest, err error) {
	switch {
	case errors.Is(err, service.ErrBadSecret):
		h.logger.Warn("alert rejected: bad secret")
		service.AlertsTotal.WithLabelValues("unknown", "rejected").Inc()
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrUnknownAction):
		h.logger.Warn("alert rejected: unknown action", zap.String("action", req.Action))
		service.AlertsTotal.WithLabelValues("unknown", "rejected").Inc()
		respondWithError(w, http.StatusBadRequest, "unknown action")
	default:
		h.logger.Error("alert validation failed", zap.Error(err))
		service.AlertsTotal.WithLabelValues("unknown", "rejected").Inc()
		respondWithError(w, http.StatusBadRequest, "invalid request")
	}
}

// handlePlanError обрабатывает ошибки этапа планирования ордера
//
// Пропуск из-за баланса и FLAT без позиции - штатные исходы,
// они возвращают 200 и одно информационное уведомление.
func (h *WebhookHandler) handlePlanError(w http.ResponseWriter, alert *models.Alert, err error) {
	var balErr *service.InsufficientBalanceError
	var posErr *service.NoPositionError

	switch {
	case errors.As(err, &balErr):
		h.logger.Info("trade skipped: insufficient balance",
			zap.String("symbol", alert.Symbol),
			zap.String("action", alert.Action),
			zap.Float64("balance", balErr.Balance),
		)
		service.AlertsTotal.WithLabelValues(alert.Action, "insufficient_balance").Inc()
		h.notifications.NotifyInsufficientBalance(alert.Symbol, alert.Action, balErr.Balance)
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status": "skipped",
			"reason": "insufficient balance",
		})
	case errors.As(err, &posErr):
		h.logger.Info("flat alert with no open position", zap.String("symbol", alert.Symbol))
		service.AlertsTotal.WithLabelValues(alert.Action, "no_position").Inc()
		h.notifications.NotifyNoPosition(posErr.Symbol, posErr.MarkPrice)
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status": "no_position",
		})
	default:
		h.logger.Error("order planning failed",
			zap.String("symbol", alert.Symbol),
			zap.String("action", alert.Action),
			zap.Error(err),
		)
		service.AlertsTotal.WithLabelValues(alert.Action, "error").Inc()
		h.notifications.NotifyError("order planning failed: " + err.Error())
		respondWithError(w, http.StatusInternalServerError, "order planning failed")
	}
}
