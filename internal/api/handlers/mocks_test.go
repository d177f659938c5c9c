package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"hyperhook/internal/exchange"
	"hyperhook/internal/models"
)

// Common mock errors
var ErrMockExchange = errors.New("mock exchange error")

// ============ Mock Trade Service ============

// MockTradeService мок для service.TradeServiceInterface
type MockTradeService struct {
	validateErr error
	planErr     error
	executeErr  error

	plan  *models.OrderPlan
	order *exchange.Order

	executedPlans []*models.OrderPlan
	mu            sync.Mutex
}

// NewMockTradeService создает мок с планом и ордером по умолчанию
func NewMockTradeService() *MockTradeService {
	return &MockTradeService{
		plan: &models.OrderPlan{
			Symbol:    "BTC/USDC:USDC",
			Coin:      "BTC",
			Side:      exchange.SideBuy,
			Amount:    0.1,
			Leverage:  5,
			MarkPrice: 50000,
		},
		order: &exchange.Order{
			ID:           "1",
			Symbol:       "BTC/USDC:USDC",
			Side:         exchange.SideBuy,
			Quantity:     0.1,
			FilledQty:    0.1,
			AvgFillPrice: 50012.5,
			Status:       exchange.OrderStatusFilled,
			CreatedAt:    time.Now(),
		},
	}
}

func (m *MockTradeService) ValidateAlert(req *models.AlertRequest) (*models.Alert, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = "BTC/USDC:USDC"
	}
	return &models.Alert{
		Intent: models.IntentOpenLong,
		Action: req.Action,
		Symbol: symbol,
	}, nil
}

func (m *MockTradeService) PlanOrder(ctx context.Context, alert *models.Alert) (*models.OrderPlan, error) {
	if m.planErr != nil {
		return nil, m.planErr
	}
	return m.plan, nil
}

func (m *MockTradeService) Execute(ctx context.Context, plan *models.OrderPlan) (*exchange.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.executeErr != nil {
		return nil, m.executeErr
	}
	m.executedPlans = append(m.executedPlans, plan)
	return m.order, nil
}

// ============ Mock Notification Service ============

// MockNotificationService мок для service.NotificationServiceInterface,
// фиксирует типы отправленных уведомлений
type MockNotificationService struct {
	calls []string
	mu    sync.Mutex
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockNotificationService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockNotificationService) NotifyStarted(symbol string, leverage int) { m.record("started") }

func (m *MockNotificationService) NotifyStopped() { m.record("stopped") }

func (m *MockNotificationService) NotifyOrderExecuted(plan *models.OrderPlan, order *exchange.Order) {
	m.record("order_executed")
}

func (m *MockNotificationService) NotifyNoPosition(symbol string, markPrice float64) {
	m.record("no_position")
}

func (m *MockNotificationService) NotifyInsufficientBalance(symbol, action string, balance float64) {
	m.record("insufficient_balance")
}

func (m *MockNotificationService) NotifyError(message string) { m.record("error") }
