package service

import (
	"context"

	"hyperhook/internal/exchange"
	"hyperhook/internal/models"
)

// TradeServiceInterface определяет контракт обработки алертов для handlers
//
// Выделен в интерфейс чтобы handlers можно было тестировать с моками.
type TradeServiceInterface interface {
	// ValidateAlert проверяет секрет и действие сырого payload'а
	ValidateAlert(req *models.AlertRequest) (*models.Alert, error)

	// PlanOrder рассчитывает параметры ордера по проверенному алерту
	PlanOrder(ctx context.Context, alert *models.Alert) (*models.OrderPlan, error)

	// Execute отправляет рассчитанный ордер на биржу
	Execute(ctx context.Context, plan *models.OrderPlan) (*exchange.Order, error)
}

// NotificationServiceInterface определяет контракт уведомлений для handlers
//
// Все методы best-effort: сбой отправки логируется и не возвращается.
type NotificationServiceInterface interface {
	NotifyStarted(symbol string, leverage int)
	NotifyStopped()
	NotifyOrderExecuted(plan *models.OrderPlan, order *exchange.Order)
	NotifyNoPosition(symbol string, markPrice float64)
	NotifyInsufficientBalance(symbol, action string, balance float64)
	NotifyError(message string)
}
