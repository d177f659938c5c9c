package models

// AlertRequest представляет сырой JSON payload вебхука от TradingView
//
// Поле secret сравнивается с настроенным общим секретом,
// action - одно из BUY / SELL / FLAT (без учёта регистра),
// symbol опционален, при отсутствии подставляется пара из конфигурации.
type AlertRequest struct {
	Secret string `json:"secret"`
	Action string `json:"action"`
	Symbol string `json:"symbol,omitempty"`
}

// PositionIntent - намерение, выведенное из действия алерта
type PositionIntent string

const (
	IntentOpenLong  PositionIntent = "open_long"  // BUY
	IntentOpenShort PositionIntent = "open_short" // SELL
	IntentCloseAll  PositionIntent = "close_all"  // FLAT
)

// Alert - проверенный алерт, живёт в пределах одного запроса
type Alert struct {
	Intent PositionIntent `json:"intent"`
	Action string         `json:"action"` // нормализованное действие (BUY/SELL/FLAT)
	Symbol string         `json:"symbol"`
}

// OrderPlan - рассчитанные параметры рыночного ордера
//
// Инвариант: Amount строго положителен и кратен шагу объёма биржи.
type OrderPlan struct {
	Symbol    string  `json:"symbol"`     // пара в формате алерта (BTC/USDC:USDC)
	Coin      string  `json:"coin"`       // нативный тикер биржи (BTC)
	Side      string  `json:"side"`       // "buy" или "sell"
	Amount    float64 `json:"amount"`     // объём в базовой монете
	Leverage  int     `json:"leverage"`   // плечо из конфигурации
	MarkPrice float64 `json:"mark_price"` // цена, по которой считался объём
	Close     bool    `json:"close"`      // true для закрытия позиции (FLAT)
}
