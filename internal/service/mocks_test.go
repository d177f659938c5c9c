package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"hyperhook/internal/exchange"
)

// Common mock errors
var ErrMockExchange = errors.New("mock exchange error")

// ============ Mock Exchange ============

// MockExchange мок для exchange.Exchange
type MockExchange struct {
	balance   float64
	markPrice float64
	positions []*exchange.Position
	limits    *exchange.Limits

	balanceErr   error
	tickerErr    error
	positionsErr error
	orderErr     error
	leverageErr  error
	limitsErr    error

	placedOrders    []PlacedOrder
	leverageUpdates []int
	mu              sync.Mutex
}

// PlacedOrder фиксирует аргументы вызова PlaceMarketOrder
type PlacedOrder struct {
	Symbol     string
	Side       string
	Qty        float64
	ReduceOnly bool
}

// NewMockExchange создает мок биржи с разумными дефолтами
func NewMockExchange() *MockExchange {
	return &MockExchange{
		balance:   1000,
		markPrice: 50000,
		limits: &exchange.Limits{
			Symbol:      "BTC/USDC:USDC",
			QtyStep:     0.00001,
			SzDecimals:  5,
			MaxLeverage: 50,
		},
	}
}

func (m *MockExchange) Connect(ctx context.Context) error { return nil }

func (m *MockExchange) GetName() string { return "mock" }

func (m *MockExchange) GetBalance(ctx context.Context) (float64, error) {
	if m.balanceErr != nil {
		return 0, m.balanceErr
	}
	return m.balance, nil
}

func (m *MockExchange) GetTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	if m.tickerErr != nil {
		return nil, m.tickerErr
	}
	return &exchange.Ticker{
		Symbol:    symbol,
		MarkPrice: m.markPrice,
		Timestamp: time.Now(),
	}, nil
}

func (m *MockExchange) GetOpenPositions(ctx context.Context) ([]*exchange.Position, error) {
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	return m.positions, nil
}

func (m *MockExchange) PlaceMarketOrder(ctx context.Context, symbol, side string, qty float64, reduceOnly bool) (*exchange.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.orderErr != nil {
		return nil, m.orderErr
	}

	m.placedOrders = append(m.placedOrders, PlacedOrder{
		Symbol:     symbol,
		Side:       side,
		Qty:        qty,
		ReduceOnly: reduceOnly,
	})

	return &exchange.Order{
		ID:           "1",
		Symbol:       symbol,
		Side:         side,
		Quantity:     qty,
		FilledQty:    qty,
		AvgFillPrice: m.markPrice,
		Status:       exchange.OrderStatusFilled,
		CreatedAt:    time.Now(),
	}, nil
}

func (m *MockExchange) UpdateLeverage(ctx context.Context, symbol string, leverage int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.leverageErr != nil {
		return m.leverageErr
	}
	m.leverageUpdates = append(m.leverageUpdates, leverage)
	return nil
}

func (m *MockExchange) GetLimits(ctx context.Context, symbol string) (*exchange.Limits, error) {
	if m.limitsErr != nil {
		return nil, m.limitsErr
	}
	return m.limits, nil
}

func (m *MockExchange) Close() error { return nil }

// ============ Mock Notifier ============

// MockNotifier мок для notify.Notifier, запоминает отправленные сообщения
type MockNotifier struct {
	messages []string
	sendErr  error
	mu       sync.Mutex
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.messages = append(m.messages, text)
	return nil
}

func (m *MockNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}
