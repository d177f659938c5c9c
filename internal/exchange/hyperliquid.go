package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hyperhook/pkg/ratelimit"
	"hyperhook/pkg/utils"
)

const (
	hyperliquidMainnetURL = "https://api.hyperliquid.xyz"

	// Перпы Hyperliquid принимают цены максимум с 6 знаками после запятой
	// (минус szDecimals инструмента) и не более 5 значащих цифр.
	hyperliquidMaxPriceDecimals = 6
	hyperliquidPriceSigFigs     = 5
)

// assetMeta - метаданные инструмента из /info meta
type assetMeta struct {
	ID          int // индекс в universe, он же asset id для ордеров
	SzDecimals  int
	MaxLeverage int
}

// Hyperliquid реализует интерфейс Exchange для биржи Hyperliquid
//
// Все вызовы идут через REST: /info для чтения (без подписи),
// /exchange для ордеров и настроек (EIP-712 подпись API-кошелька).
type Hyperliquid struct {
	baseURL       string
	walletAddress string // основной аккаунт, по нему читаются баланс и позиции
	signer        *signer
	mainnet       bool

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter

	// Допуск цены для IOC "рыночных" ордеров: ордер исполняется по рынку,
	// допуск лишь защищает от экстремального проскальзывания
	slippagePct float64

	// Кэш метаданных инструментов (coin -> assetMeta), заполняется при Connect
	assets   map[string]assetMeta
	assetsMu sync.RWMutex

	// Сериализация nonce: биржа требует строго возрастающие значения
	nonceMu   sync.Mutex
	lastNonce uint64

	connected bool
}

// NewHyperliquid создаёт новый экземпляр Hyperliquid
func NewHyperliquid(apiURL, walletAddress, privateKey string) (*Hyperliquid, error) {
	if apiURL == "" {
		apiURL = hyperliquidMainnetURL
	}

	s, err := newSigner(privateKey)
	if err != nil {
		return nil, err
	}

	return &Hyperliquid{
		baseURL:       strings.TrimRight(apiURL, "/"),
		walletAddress: strings.ToLower(walletAddress),
		signer:        s,
		mainnet:       !strings.Contains(apiURL, "testnet"),
		httpClient:    NewHTTPClient(DefaultHTTPClientConfig()),
		limiter:       ratelimit.NewRateLimiter(10, 20),
		slippagePct:   5.0,
		assets:        make(map[string]assetMeta),
	}, nil
}

// doRequest выполняет POST запрос к API с учётом rate limit
func (h *Hyperliquid) doRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Exchange: "hyperliquid", Message: "request failed", Original: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{
			Exchange: "hyperliquid",
			Code:     strconv.Itoa(resp.StatusCode),
			Message:  strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// doInfo выполняет запрос к /info (чтение, без подписи)
func (h *Hyperliquid) doInfo(ctx context.Context, payload map[string]interface{}) ([]byte, error) {
	return h.doRequest(ctx, "/info", payload)
}

// doAction подписывает action и отправляет его на /exchange
func (h *Hyperliquid) doAction(ctx context.Context, action interface{}) ([]byte, error) {
	nonce := h.nextNonce()

	sig, err := h.signer.signAction(action, nonce, h.mainnet)
	if err != nil {
		return nil, err
	}

	body, err := h.doRequest(ctx, "/exchange", map[string]interface{}{
		"action":    action,
		"nonce":     nonce,
		"signature": sig,
	})
	if err != nil {
		return nil, err
	}

	// Базовый ответ: {"status":"ok"|"err","response":...}
	var baseResp struct {
		Status   string          `json:"status"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &baseResp); err != nil {
		return nil, err
	}

	if baseResp.Status != "ok" {
		var msg string
		_ = json.Unmarshal(baseResp.Response, &msg)
		if msg == "" {
			msg = string(baseResp.Response)
		}
		return nil, &ExchangeError{Exchange: "hyperliquid", Code: baseResp.Status, Message: msg}
	}

	return baseResp.Response, nil
}

// nextNonce возвращает строго возрастающий nonce в миллисекундах
func (h *Hyperliquid) nextNonce() uint64 {
	h.nonceMu.Lock()
	defer h.nonceMu.Unlock()

	nonce := uint64(time.Now().UnixMilli())
	if nonce <= h.lastNonce {
		nonce = h.lastNonce + 1
	}
	h.lastNonce = nonce
	return nonce
}

// Connect загружает метаданные инструментов и проверяет доступ к аккаунту
func (h *Hyperliquid) Connect(ctx context.Context) error {
	if err := h.loadMeta(ctx); err != nil {
		return fmt.Errorf("failed to load instrument metadata: %w", err)
	}

	// Проверяем доступ: читаем стейт аккаунта
	if _, err := h.GetBalance(ctx); err != nil {
		return fmt.Errorf("failed to connect to Hyperliquid: %w", err)
	}

	h.connected = true
	return nil
}

func (h *Hyperliquid) GetName() string {
	return "hyperliquid"
}

// APIWalletAddress возвращает адрес API-кошелька, которым подписываются действия
func (h *Hyperliquid) APIWalletAddress() string {
	return h.signer.address()
}

// loadMeta кэширует universe: coin -> (asset id, szDecimals, maxLeverage)
func (h *Hyperliquid) loadMeta(ctx context.Context) error {
	body, err := h.doInfo(ctx, map[string]interface{}{"type": "meta"})
	if err != nil {
		return err
	}

	var resp struct {
		Universe []struct {
			Name        string `json:"name"`
			SzDecimals  int    `json:"szDecimals"`
			MaxLeverage int    `json:"maxLeverage"`
		} `json:"universe"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}

	assets := make(map[string]assetMeta, len(resp.Universe))
	for i, u := range resp.Universe {
		assets[u.Name] = assetMeta{
			ID:          i,
			SzDecimals:  u.SzDecimals,
			MaxLeverage: u.MaxLeverage,
		}
	}

	h.assetsMu.Lock()
	h.assets = assets
	h.assetsMu.Unlock()

	return nil
}

// assetFor возвращает метаданные инструмента для символа
func (h *Hyperliquid) assetFor(symbol string) (string, assetMeta, error) {
	coin := CoinFromSymbol(symbol)

	h.assetsMu.RLock()
	meta, ok := h.assets[coin]
	h.assetsMu.RUnlock()

	if !ok {
		return "", assetMeta{}, &ExchangeError{
			Exchange: "hyperliquid",
			Message:  fmt.Sprintf("unknown instrument %q", symbol),
		}
	}
	return coin, meta, nil
}

// clearinghouseState - состояние перп-аккаунта: маржа, баланс, позиции
type clearinghouseState struct {
	Withdrawable   string `json:"withdrawable"`
	AssetPositions []struct {
		Position struct {
			Coin     string `json:"coin"`
			Szi      string `json:"szi"` // подписанный размер: >0 long, <0 short
			EntryPx  string `json:"entryPx"`
			Leverage struct {
				Value int `json:"value"`
			} `json:"leverage"`
			UnrealizedPnl string `json:"unrealizedPnl"`
		} `json:"position"`
	} `json:"assetPositions"`
}

func (h *Hyperliquid) fetchClearinghouseState(ctx context.Context) (*clearinghouseState, error) {
	body, err := h.doInfo(ctx, map[string]interface{}{
		"type": "clearinghouseState",
		"user": h.walletAddress,
	})
	if err != nil {
		return nil, err
	}

	var state clearinghouseState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetBalance возвращает свободный (withdrawable) USDC баланс перп-аккаунта
func (h *Hyperliquid) GetBalance(ctx context.Context) (float64, error) {
	state, err := h.fetchClearinghouseState(ctx)
	if err != nil {
		return 0, err
	}

	free, err := strconv.ParseFloat(state.Withdrawable, 64)
	if err != nil {
		return 0, fmt.Errorf("bad withdrawable value %q: %w", state.Withdrawable, err)
	}
	return free, nil
}

// GetOpenPositions возвращает открытые позиции аккаунта
func (h *Hyperliquid) GetOpenPositions(ctx context.Context) ([]*Position, error) {
	state, err := h.fetchClearinghouseState(ctx)
	if err != nil {
		return nil, err
	}

	positions := make([]*Position, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		size, _ := strconv.ParseFloat(ap.Position.Szi, 64)
		if size == 0 {
			continue
		}

		entryPrice, _ := strconv.ParseFloat(ap.Position.EntryPx, 64)
		pnl, _ := strconv.ParseFloat(ap.Position.UnrealizedPnl, 64)

		positions = append(positions, &Position{
			Symbol:        ap.Position.Coin,
			Size:          size,
			EntryPrice:    entryPrice,
			Leverage:      ap.Position.Leverage.Value,
			UnrealizedPnl: pnl,
		})
	}

	return positions, nil
}

// GetTicker возвращает текущую mark price инструмента
//
// metaAndAssetCtxs отдаёт массив из двух элементов: universe и контексты
// инструментов в том же порядке.
func (h *Hyperliquid) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	coin, meta, err := h.assetFor(symbol)
	if err != nil {
		return nil, err
	}

	body, err := h.doInfo(ctx, map[string]interface{}{"type": "metaAndAssetCtxs"})
	if err != nil {
		return nil, err
	}

	var resp []json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, &ExchangeError{Exchange: "hyperliquid", Message: "malformed metaAndAssetCtxs response"}
	}

	var ctxs []struct {
		MarkPx   string `json:"markPx"`
		OraclePx string `json:"oraclePx"`
	}
	if err := json.Unmarshal(resp[1], &ctxs); err != nil {
		return nil, err
	}
	if meta.ID >= len(ctxs) {
		return nil, &ExchangeError{Exchange: "hyperliquid", Message: fmt.Sprintf("no asset context for %s", coin)}
	}

	markPrice, err := strconv.ParseFloat(ctxs[meta.ID].MarkPx, 64)
	if err != nil || markPrice <= 0 {
		return nil, &ExchangeError{Exchange: "hyperliquid", Message: fmt.Sprintf("bad mark price for %s", coin)}
	}
	oraclePrice, _ := strconv.ParseFloat(ctxs[meta.ID].OraclePx, 64)

	return &Ticker{
		Symbol:      symbol,
		MarkPrice:   markPrice,
		OraclePrice: oraclePrice,
		Timestamp:   time.Now(),
	}, nil
}

// GetLimits возвращает торговые лимиты инструмента из кэша метаданных
func (h *Hyperliquid) GetLimits(ctx context.Context, symbol string) (*Limits, error) {
	_, meta, err := h.assetFor(symbol)
	if err != nil {
		return nil, err
	}

	step := 1.0
	for i := 0; i < meta.SzDecimals; i++ {
		step /= 10
	}

	return &Limits{
		Symbol:      symbol,
		QtyStep:     step,
		SzDecimals:  meta.SzDecimals,
		MaxLeverage: meta.MaxLeverage,
	}, nil
}

// Wire-форматы action'ов. Порядок полей фиксирован: он входит в msgpack-хэш,
// биржа отвергает подпись при любом другом порядке.

type wireLimit struct {
	Tif string `msgpack:"tif" json:"tif"`
}

type wireOrderType struct {
	Limit wireLimit `msgpack:"limit" json:"limit"`
}

type wireOrder struct {
	Asset      int           `msgpack:"a" json:"a"`
	IsBuy      bool          `msgpack:"b" json:"b"`
	Price      string        `msgpack:"p" json:"p"`
	Size       string        `msgpack:"s" json:"s"`
	ReduceOnly bool          `msgpack:"r" json:"r"`
	OrderType  wireOrderType `msgpack:"t" json:"t"`
}

type orderAction struct {
	Type     string      `msgpack:"type" json:"type"`
	Orders   []wireOrder `msgpack:"orders" json:"orders"`
	Grouping string      `msgpack:"grouping" json:"grouping"`
}

type leverageAction struct {
	Type     string `msgpack:"type" json:"type"`
	Asset    int    `msgpack:"asset" json:"asset"`
	IsCross  bool   `msgpack:"isCross" json:"isCross"`
	Leverage int    `msgpack:"leverage" json:"leverage"`
}

// PlaceMarketOrder размещает рыночный ордер
//
// У Hyperliquid нет нативных market ордеров: отправляется IOC limit
// с ценой, сдвинутой от mark price на slippage (как делает ccxt).
func (h *Hyperliquid) PlaceMarketOrder(ctx context.Context, symbol, side string, qty float64, reduceOnly bool) (*Order, error) {
	coin, meta, err := h.assetFor(symbol)
	if err != nil {
		return nil, err
	}

	ticker, err := h.GetTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}

	isBuy := side == SideBuy
	price := slippagePrice(ticker.MarkPrice, isBuy, h.slippagePct, meta.SzDecimals)

	qty = utils.RoundToDecimals(qty, meta.SzDecimals)
	if qty <= 0 {
		return nil, &ExchangeError{Exchange: "hyperliquid", Message: "order size rounds to zero"}
	}

	action := orderAction{
		Type: "order",
		Orders: []wireOrder{{
			Asset:      meta.ID,
			IsBuy:      isBuy,
			Price:      formatFloat(price, hyperliquidMaxPriceDecimals-meta.SzDecimals),
			Size:       formatFloat(qty, meta.SzDecimals),
			ReduceOnly: reduceOnly,
			OrderType:  wireOrderType{Limit: wireLimit{Tif: "Ioc"}},
		}},
		Grouping: "na",
	}

	respBody, err := h.doAction(ctx, action)
	if err != nil {
		return nil, err
	}

	// Статусы ордеров идут в том же порядке, что и отправленные ордера
	var resp struct {
		Type string `json:"type"`
		Data struct {
			Statuses []struct {
				Filled *struct {
					TotalSz string `json:"totalSz"`
					AvgPx   string `json:"avgPx"`
					Oid     int64  `json:"oid"`
				} `json:"filled"`
				Resting *struct {
					Oid int64 `json:"oid"`
				} `json:"resting"`
				Error string `json:"error"`
			} `json:"statuses"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.Statuses) == 0 {
		return nil, &ExchangeError{Exchange: "hyperliquid", Message: "empty order status"}
	}

	status := resp.Data.Statuses[0]
	if status.Error != "" {
		return nil, &ExchangeError{Exchange: "hyperliquid", Code: "order_rejected", Message: status.Error}
	}

	order := &Order{
		Symbol:    coin,
		Side:      side,
		Quantity:  qty,
		CreatedAt: time.Now(),
	}

	switch {
	case status.Filled != nil:
		order.ID = strconv.FormatInt(status.Filled.Oid, 10)
		order.Status = OrderStatusFilled
		order.FilledQty, _ = strconv.ParseFloat(status.Filled.TotalSz, 64)
		order.AvgFillPrice, _ = strconv.ParseFloat(status.Filled.AvgPx, 64)
	case status.Resting != nil:
		// IOC не должен зависать в стакане, но на всякий случай
		order.ID = strconv.FormatInt(status.Resting.Oid, 10)
		order.Status = OrderStatusResting
	default:
		order.Status = OrderStatusRejected
	}

	return order, nil
}

// UpdateLeverage устанавливает кросс-плечо для инструмента
func (h *Hyperliquid) UpdateLeverage(ctx context.Context, symbol string, leverage int) error {
	_, meta, err := h.assetFor(symbol)
	if err != nil {
		return err
	}

	if leverage > meta.MaxLeverage {
		leverage = meta.MaxLeverage
	}

	_, err = h.doAction(ctx, leverageAction{
		Type:     "updateLeverage",
		Asset:    meta.ID,
		IsCross:  true,
		Leverage: leverage,
	})
	return err
}

// Close закрывает idle соединения с биржей
func (h *Hyperliquid) Close() error {
	CloseIdleConnections(h.httpClient)
	h.connected = false
	return nil
}

// SetSlippage задаёт допуск цены в процентах (из конфигурации)
func (h *Hyperliquid) SetSlippage(pct float64) {
	if pct > 0 {
		h.slippagePct = pct
	}
}

// CoinFromSymbol извлекает нативный тикер биржи из пары формата алерта:
// "BTC/USDC:USDC" -> "BTC". Голый тикер ("BTC") проходит без изменений.
func CoinFromSymbol(symbol string) string {
	if i := strings.Index(symbol, "/"); i > 0 {
		return strings.ToUpper(symbol[:i])
	}
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// slippagePrice сдвигает mark price на slippage и приводит к формату биржи:
// не более 5 значащих цифр и (6 - szDecimals) знаков после запятой
func slippagePrice(markPrice float64, isBuy bool, slippagePct float64, szDecimals int) float64 {
	factor := 1 + slippagePct/100
	if !isBuy {
		factor = 1 - slippagePct/100
	}

	price := markPrice * factor
	price = utils.RoundToSignificant(price, hyperliquidPriceSigFigs)
	return utils.RoundToDecimals(price, hyperliquidMaxPriceDecimals-szDecimals)
}

// formatFloat форматирует число с обрезкой хвостовых нулей: 0.100000 -> "0.1"
func formatFloat(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
