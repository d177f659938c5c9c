package exchange

import (
	"context"
	"time"
)

// Exchange определяет интерфейс шлюза к бирже перпетуальных фьючерсов
//
// Релей потребляет небольшой набор операций: аутентификация сессии,
// баланс, цена, позиции, рыночный ордер, лимиты инструмента и закрытие.
type Exchange interface {
	// Connect аутентифицирует сессию и проверяет доступ к аккаунту
	Connect(ctx context.Context) error

	// GetName возвращает имя биржи
	GetName() string

	// GetBalance получает свободный баланс перп-аккаунта в quote-валюте (USDC)
	GetBalance(ctx context.Context) (float64, error)

	// GetTicker получает текущую mark price инструмента
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)

	// GetOpenPositions получает список открытых позиций
	GetOpenPositions(ctx context.Context) ([]*Position, error)

	// PlaceMarketOrder размещает рыночный ордер
	// reduceOnly=true для закрытия позиции без открытия встречной
	PlaceMarketOrder(ctx context.Context, symbol, side string, qty float64, reduceOnly bool) (*Order, error)

	// UpdateLeverage устанавливает плечо для инструмента
	UpdateLeverage(ctx context.Context, symbol string, leverage int) error

	// GetLimits получает торговые лимиты биржи для инструмента
	GetLimits(ctx context.Context, symbol string) (*Limits, error)

	// Close закрывает соединения с биржей
	Close() error
}

// Ticker содержит информацию о текущей цене
type Ticker struct {
	Symbol      string    `json:"symbol"`
	MarkPrice   float64   `json:"mark_price"`   // расчётная цена биржи
	OraclePrice float64   `json:"oracle_price"` // оракульная цена (для справки)
	Timestamp   time.Time `json:"timestamp"`
}

// Order представляет исполненный (или отклонённый) ордер
type Order struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"` // "buy" или "sell"
	Quantity     float64   `json:"quantity"`
	FilledQty    float64   `json:"filled_qty"`
	AvgFillPrice float64   `json:"avg_fill_price"`
	Status       string    `json:"status"` // "filled", "resting", "rejected"
	CreatedAt    time.Time `json:"created_at"`
}

// Position представляет открытую позицию
type Position struct {
	Symbol        string  `json:"symbol"`
	Size          float64 `json:"size"` // подписанный размер: >0 long, <0 short
	EntryPrice    float64 `json:"entry_price"`
	Leverage      int     `json:"leverage"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
}

// Limits содержит торговые ограничения биржи для инструмента
type Limits struct {
	Symbol      string  `json:"symbol"`
	QtyStep     float64 `json:"qty_step"`     // шаг изменения объёма (10^-szDecimals)
	SzDecimals  int     `json:"sz_decimals"`  // знаков после запятой в объёме
	MaxLeverage int     `json:"max_leverage"` // максимальное плечо
}

// ExchangeError представляет ошибку от биржи
type ExchangeError struct {
	Exchange string
	Code     string
	Message  string
	Original error
}

func (e *ExchangeError) Error() string {
	return e.Exchange + ": " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *ExchangeError) Unwrap() error {
	return e.Original
}

// Side constants for orders
const (
	SideBuy  = "buy"  // покупка (открытие long или закрытие short)
	SideSell = "sell" // продажа (открытие short или закрытие long)
)

// Order status constants
const (
	OrderStatusFilled   = "filled"
	OrderStatusResting  = "resting"
	OrderStatusRejected = "rejected"
)
