package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hyperhook/internal/config"
	"hyperhook/internal/exchange"
	"hyperhook/internal/models"
	"hyperhook/pkg/utils"
)

// Ошибки сервиса
var (
	ErrBadSecret           = errors.New("alert secret does not match")
	ErrUnknownAction       = errors.New("unknown alert action")
	ErrInsufficientBalance = errors.New("insufficient balance for a new position")
	ErrNoPosition          = errors.New("no open position to close")
)

// InsufficientBalanceError несёт свободный баланс для уведомления о пропуске
type InsufficientBalanceError struct {
	Balance float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for a new position: free %.6f USDC", e.Balance)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// NoPositionError несёт mark price на момент FLAT алерта без позиции
type NoPositionError struct {
	Symbol    string
	MarkPrice float64
}

func (e *NoPositionError) Error() string {
	return fmt.Sprintf("no open position to close: %s at %.2f", e.Symbol, e.MarkPrice)
}

func (e *NoPositionError) Unwrap() error { return ErrNoPosition }

// TradeService - бизнес-логика релея: валидация алертов, расчёт и отправка ордеров
//
// Расчёт объёма всегда идёт от текущего свободного баланса, а не от прошлых
// ордеров: повторные BUY без промежуточного FLAT не накапливают плечо
// сверх настроенного множителя.
type TradeService struct {
	gateway exchange.Exchange
	cfg     config.RelayConfig
	logger  *zap.Logger

	// Сериализация отправки ордеров: на бирже в один момент времени
	// выставляется не больше одного ордера релея
	orderMu sync.Mutex
}

// NewTradeService создает новый экземпляр сервиса
func NewTradeService(gateway exchange.Exchange, cfg config.RelayConfig, logger *zap.Logger) *TradeService {
	return &TradeService{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// ValidateAlert проверяет сырой payload алерта
//
// Возвращает:
//   - ErrBadSecret: секрет не совпал (сравнение за константное время)
//   - ErrUnknownAction: action вне BUY/SELL/FLAT (без учёта регистра)
//
// Symbol не проверяется по списку инструментов биржи: неизвестный символ
// отклонит сам шлюз на этапе планирования.
func (s *TradeService) ValidateAlert(req *models.AlertRequest) (*models.Alert, error) {
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.cfg.WebhookSecret)) != 1 {
		return nil, ErrBadSecret
	}

	action := strings.ToUpper(strings.TrimSpace(req.Action))

	var intent models.PositionIntent
	switch action {
	case "BUY":
		intent = models.IntentOpenLong
	case "SELL":
		intent = models.IntentOpenShort
	case "FLAT":
		intent = models.IntentCloseAll
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		symbol = s.cfg.DefaultSymbol
	}

	return &models.Alert{
		Intent: intent,
		Action: action,
		Symbol: symbol,
	}, nil
}

// PlanOrder рассчитывает параметры рыночного ордера по проверенному алерту
//
// OpenLong/OpenShort: объём = свободный баланс * плечо / mark price,
// округлённый вниз до шага биржи. Баланс на уровне MIN_BALANCE или ниже -
// ErrInsufficientBalance.
//
// CloseAll: объём = |размер открытой позиции| с противоположной стороной;
// позиции нет - ErrNoPosition (не ошибка, штатный no-op).
func (s *TradeService) PlanOrder(ctx context.Context, alert *models.Alert) (*models.OrderPlan, error) {
	if alert.Intent == models.IntentCloseAll {
		return s.planClose(ctx, alert)
	}
	return s.planOpen(ctx, alert)
}

// planOpen рассчитывает ордер на открытие позиции
func (s *TradeService) planOpen(ctx context.Context, alert *models.Alert) (*models.OrderPlan, error) {
	balance, err := s.gateway.GetBalance(ctx)
	if err != nil {
		return nil, err
	}

	if balance <= s.cfg.MinBalance {
		return nil, &InsufficientBalanceError{Balance: balance}
	}

	ticker, err := s.gateway.GetTicker(ctx, alert.Symbol)
	if err != nil {
		return nil, err
	}

	limits, err := s.gateway.GetLimits(ctx, alert.Symbol)
	if err != nil {
		return nil, err
	}

	side := exchange.SideBuy
	if alert.Intent == models.IntentOpenShort {
		side = exchange.SideSell
	}

	amount := balance * float64(s.cfg.Leverage) / ticker.MarkPrice
	amount = utils.RoundToLotSize(amount, limits.QtyStep)
	if amount <= 0 {
		return nil, &InsufficientBalanceError{Balance: balance}
	}

	s.logger.Info("order planned",
		zap.String("symbol", alert.Symbol),
		zap.String("side", side),
		zap.Float64("balance", balance),
		zap.Float64("mark_price", ticker.MarkPrice),
		zap.Float64("amount", amount),
	)

	return &models.OrderPlan{
		Symbol:    alert.Symbol,
		Coin:      exchange.CoinFromSymbol(alert.Symbol),
		Side:      side,
		Amount:    amount,
		Leverage:  s.cfg.Leverage,
		MarkPrice: ticker.MarkPrice,
	}, nil
}

// planClose рассчитывает ордер на закрытие открытой позиции
func (s *TradeService) planClose(ctx context.Context, alert *models.Alert) (*models.OrderPlan, error) {
	ticker, err := s.gateway.GetTicker(ctx, alert.Symbol)
	if err != nil {
		return nil, err
	}

	positions, err := s.gateway.GetOpenPositions(ctx)
	if err != nil {
		return nil, err
	}

	coin := exchange.CoinFromSymbol(alert.Symbol)
	for _, pos := range positions {
		if pos.Symbol != coin || pos.Size == 0 {
			continue
		}

		// Закрываем противоположной стороной: long продаём, short выкупаем
		side := exchange.SideSell
		amount := pos.Size
		if pos.Size < 0 {
			side = exchange.SideBuy
			amount = -pos.Size
		}

		s.logger.Info("close planned",
			zap.String("symbol", alert.Symbol),
			zap.String("side", side),
			zap.Float64("position_size", pos.Size),
		)

		return &models.OrderPlan{
			Symbol:    alert.Symbol,
			Coin:      coin,
			Side:      side,
			Amount:    amount,
			Leverage:  s.cfg.Leverage,
			MarkPrice: ticker.MarkPrice,
			Close:     true,
		}, nil
	}

	return nil, &NoPositionError{Symbol: alert.Symbol, MarkPrice: ticker.MarkPrice}
}

// Execute отправляет рассчитанный ордер на биржу
//
// Отправка сериализована мьютексом: выставление плеча и ордер одного алерта
// не перемешиваются с действиями другого. Расчёт объёма идёт до захвата
// мьютекса, сериализуется только отправка.
// Ошибки биржи не ретраятся - оператор при желании шлёт алерт повторно.
func (s *TradeService) Execute(ctx context.Context, plan *models.OrderPlan) (*exchange.Order, error) {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()

	// Плечо выставляется перед открытием; для закрытия не трогаем
	if !plan.Close {
		if err := s.gateway.UpdateLeverage(ctx, plan.Symbol, plan.Leverage); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	order, err := s.gateway.PlaceMarketOrder(ctx, plan.Symbol, plan.Side, plan.Amount, plan.Close)
	if err != nil {
		return nil, err
	}
	OrderExecutionLatency.WithLabelValues(plan.Side).Observe(float64(time.Since(start).Milliseconds()))

	s.logger.Info("order executed",
		zap.String("order_id", order.ID),
		zap.String("symbol", plan.Symbol),
		zap.String("side", order.Side),
		zap.Float64("filled_qty", order.FilledQty),
		zap.Float64("avg_fill_price", order.AvgFillPrice),
		zap.String("status", order.Status),
	)

	return order, nil
}
