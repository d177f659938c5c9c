package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hyperhook/internal/exchange"
	"hyperhook/internal/models"
	"hyperhook/internal/notify"
)

// maxErrorMessageLen - максимальная длина текста ошибки в уведомлении.
// Детали остаются в логах, в канал уходит усечённое описание.
const maxErrorMessageLen = 400

// NotificationService рендерит события релея в текст и отправляет их в Discord
//
// Отправка best-effort: сбой логируется и учитывается в метрике,
// но никогда не возвращается в путь обработки запроса.
type NotificationService struct {
	notifier notify.Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(notifier notify.Notifier, logger *zap.Logger, timeout time.Duration) *NotificationService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotificationService{
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
	}
}

// send рендерит уведомление и отправляет его best-effort
func (s *NotificationService) send(notifType, severity, message string) {
	notif := &models.Notification{
		Timestamp: time.Now(),
		Type:      notifType,
		Severity:  severity,
		Message:   message,
	}

	// Свой контекст: уведомление не должно зависеть от жизни HTTP запроса
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.notifier.Send(ctx, notif.Message); err != nil {
		NotificationFailures.Inc()
		s.logger.Warn("notification send failed",
			zap.String("type", notif.Type),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("notification sent", zap.String("type", notif.Type), zap.String("message", notif.Message))
}

// NotifyStarted сообщает о запуске сервиса после успешной авторизации на бирже
func (s *NotificationService) NotifyStarted(symbol string, leverage int) {
	s.send(models.NotificationTypeStarted, models.SeverityInfo,
		fmt.Sprintf("✅ webhook relay online — %s, leverage %dx", symbol, leverage))
}

// NotifyStopped сообщает об остановке сервиса
func (s *NotificationService) NotifyStopped() {
	s.send(models.NotificationTypeStopped, models.SeverityInfo, "🛑 webhook relay shutting down")
}

// NotifyOrderExecuted сообщает об исполненном ордере
func (s *NotificationService) NotifyOrderExecuted(plan *models.OrderPlan, order *exchange.Order) {
	price := order.AvgFillPrice
	if price == 0 {
		price = plan.MarkPrice
	}

	verb := "opened"
	if plan.Close {
		verb = "closed"
	}

	s.send(models.NotificationTypeOrder, models.SeverityInfo,
		fmt.Sprintf("%s %s %s %.6f @ %.2f (%s)", plan.Symbol, verb, order.Side, order.FilledQty, price, order.Status))
}

// NotifyNoPosition сообщает, что FLAT пришёл без открытой позиции
func (s *NotificationService) NotifyNoPosition(symbol string, markPrice float64) {
	s.send(models.NotificationTypeSkip, models.SeverityInfo,
		fmt.Sprintf("%s FLAT %.2f — no open position", symbol, markPrice))
}

// NotifyInsufficientBalance сообщает о пропуске сделки из-за баланса
func (s *NotificationService) NotifyInsufficientBalance(symbol, action string, balance float64) {
	s.send(models.NotificationTypeSkip, models.SeverityWarn,
		fmt.Sprintf("%s %s skipped — insufficient balance: free %.6f USDC", symbol, action, balance))
}

// NotifyError сообщает об ошибке биржи или необработанном сбое
func (s *NotificationService) NotifyError(message string) {
	s.send(models.NotificationTypeError, models.SeverityError,
		"⚠️ ERROR: "+truncate(message, maxErrorMessageLen))
}

// truncate усекает строку до limit рун
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
