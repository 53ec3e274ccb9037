package repository

import (
	"context"
	"strconv"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/internal/service/ratelimit"
	xhttp "TradePilot/pkg/http"
	xlogger "TradePilot/pkg/logger"
)

const DefaultFuturesBaseURL = "https://fapi.binance.com"

// FuturesClient talks to the Binance USDT-margined futures REST API.
type FuturesClient struct {
	core *binanceCore
}

var _ domrepo.DerivativesExchange = (*FuturesClient)(nil)

func NewFuturesClient(baseURL, apiKey, secret string, client *xhttp.Client, limiter *ratelimit.Limiter, logger *xlogger.Logger) *FuturesClient {
	if baseURL == "" {
		baseURL = DefaultFuturesBaseURL
	}
	return &FuturesClient{core: newBinanceCore(baseURL, apiKey, secret, client, limiter, logger)}
}

func (f *FuturesClient) ServerTime(ctx context.Context) (time.Time, error) {
	var resp spotTimeResponse
	if err := f.core.call(ctx, xhttp.MethodGet, "/fapi/v1/time", nil, false, &resp); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(resp.ServerTime), nil
}

type futuresBalance struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"availableBalance"`
}

func (f *FuturesClient) Balances(ctx context.Context) ([]models.Balance, error) {
	var resp []futuresBalance
	if err := f.core.call(ctx, xhttp.MethodGet, "/fapi/v2/balance", nil, true, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Balance, 0, len(resp))
	for _, b := range resp {
		total, free := parseFloat(b.Balance), parseFloat(b.AvailableBalance)
		if total == 0 {
			continue
		}
		out = append(out, models.Balance{Asset: b.Asset, Free: free, Locked: total - free})
	}
	return out, nil
}

func (f *FuturesClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var resp tickerPriceResponse
	params := map[string]string{"symbol": symbol}
	if err := f.core.call(ctx, xhttp.MethodGet, "/fapi/v1/ticker/price", params, false, &resp); err != nil {
		return 0, err
	}
	return parseFloat(resp.Price), nil
}

type futuresOrderResponse struct {
	OrderID      int64  `json:"orderId"`
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	ExecutedQty  string `json:"executedQty"`
	AvgPrice     string `json:"avgPrice"`
	PositionSide string `json:"positionSide"`
	UpdateTime   int64  `json:"updateTime"`
}

func (r futuresOrderResponse) record(side models.OrderSide) *models.OrderRecord {
	executed := parseFloat(r.ExecutedQty)
	price := parseFloat(r.AvgPrice)
	return &models.OrderRecord{
		OrderID:      strconv.FormatInt(r.OrderID, 10),
		Symbol:       r.Symbol,
		Side:         side,
		PositionSide: models.PositionSide(r.PositionSide),
		Quantity:     executed,
		Notional:     executed * price,
		Price:        price,
		CreatedAt:    time.UnixMilli(r.UpdateTime),
	}
}

func (f *FuturesClient) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, quantity float64) (*models.OrderRecord, error) {
	if err := f.core.allowOrder(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"symbol":   symbol,
		"side":     string(side),
		"type":     "MARKET",
		"quantity": formatQty(quantity),
	}
	var resp futuresOrderResponse
	if err := f.core.call(ctx, xhttp.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return nil, err
	}
	return resp.record(side), nil
}

func (f *FuturesClient) PlaceStopLossOrder(ctx context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	return f.placeStopLimit(ctx, symbol, side, "STOP", quantity, stopPrice, limitPrice)
}

func (f *FuturesClient) PlaceTakeProfitOrder(ctx context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	return f.placeStopLimit(ctx, symbol, side, "TAKE_PROFIT", quantity, stopPrice, limitPrice)
}

func (f *FuturesClient) placeStopLimit(ctx context.Context, symbol string, side models.OrderSide, orderType string, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	if err := f.core.allowOrder(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"symbol":      symbol,
		"side":        string(side),
		"type":        orderType,
		"quantity":    formatQty(quantity),
		"stopPrice":   formatQty(stopPrice),
		"price":       formatQty(limitPrice),
		"timeInForce": "GTC",
		"reduceOnly":  "true",
	}
	var resp futuresOrderResponse
	if err := f.core.call(ctx, xhttp.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return nil, err
	}
	rec := resp.record(side)
	rec.StopLoss = stopPrice
	return rec, nil
}

func (f *FuturesClient) CancelAllOrders(ctx context.Context, symbol string) error {
	params := map[string]string{"symbol": symbol}
	return f.core.call(ctx, xhttp.MethodDelete, "/fapi/v1/allOpenOrders", params, true, nil)
}

type futuresOpenOrder struct {
	OrderID      int64  `json:"orderId"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	PositionSide string `json:"positionSide"`
	OrigQty      string `json:"origQty"`
	Price        string `json:"price"`
	StopPrice    string `json:"stopPrice"`
	Time         int64  `json:"time"`
}

func (f *FuturesClient) OpenOrders(ctx context.Context, symbol string) ([]models.OrderRecord, error) {
	params := map[string]string{"symbol": symbol}
	var resp []futuresOpenOrder
	if err := f.core.call(ctx, xhttp.MethodGet, "/fapi/v1/openOrders", params, true, &resp); err != nil {
		return nil, err
	}

	out := make([]models.OrderRecord, 0, len(resp))
	for _, o := range resp {
		out = append(out, models.OrderRecord{
			OrderID:      strconv.FormatInt(o.OrderID, 10),
			Symbol:       o.Symbol,
			Side:         models.OrderSide(o.Side),
			PositionSide: models.PositionSide(o.PositionSide),
			Quantity:     parseFloat(o.OrigQty),
			Price:        parseFloat(o.Price),
			StopLoss:     parseFloat(o.StopPrice),
			CreatedAt:    time.UnixMilli(o.Time),
		})
	}
	return out, nil
}

type positionRisk struct {
	Symbol       string `json:"symbol"`
	PositionSide string `json:"positionSide"`
	PositionAmt  string `json:"positionAmt"`
	EntryPrice   string `json:"entryPrice"`
	Leverage     string `json:"leverage"`
	UnrealizedPL string `json:"unRealizedProfit"`
}

// Positions returns open positions. An empty symbol returns every position
// on the account.
func (f *FuturesClient) Positions(ctx context.Context, symbol string) ([]models.Position, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = symbol
	}
	var resp []positionRisk
	if err := f.core.call(ctx, xhttp.MethodGet, "/fapi/v2/positionRisk", params, true, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Position, 0, len(resp))
	for _, p := range resp {
		amt := parseFloat(p.PositionAmt)
		if amt == 0 {
			continue
		}
		lev, _ := strconv.Atoi(p.Leverage)
		out = append(out, models.Position{
			Symbol:       p.Symbol,
			PositionSide: models.PositionSide(p.PositionSide),
			Quantity:     amt,
			EntryPrice:   parseFloat(p.EntryPrice),
			Leverage:     lev,
			UnrealizedPL: parseFloat(p.UnrealizedPL),
		})
	}
	return out, nil
}

func (f *FuturesClient) ChangeLeverage(ctx context.Context, symbol string, leverage int) error {
	params := map[string]string{
		"symbol":   symbol,
		"leverage": strconv.Itoa(leverage),
	}
	return f.core.call(ctx, xhttp.MethodPost, "/fapi/v1/leverage", params, true, nil)
}

func (f *FuturesClient) ChangeMarginType(ctx context.Context, symbol string, margin models.MarginType) error {
	params := map[string]string{
		"symbol":     symbol,
		"marginType": string(margin),
	}
	return f.core.call(ctx, xhttp.MethodPost, "/fapi/v1/marginType", params, true, nil)
}

func (f *FuturesClient) ChangePositionMode(ctx context.Context, hedgeMode bool) error {
	params := map[string]string{
		"dualSidePosition": strconv.FormatBool(hedgeMode),
	}
	return f.core.call(ctx, xhttp.MethodPost, "/fapi/v1/positionSide/dual", params, true, nil)
}

type premiumIndex struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
}

func (f *FuturesClient) FundingRate(ctx context.Context, symbol string) (float64, error) {
	var resp premiumIndex
	params := map[string]string{"symbol": symbol}
	if err := f.core.call(ctx, xhttp.MethodGet, "/fapi/v1/premiumIndex", params, false, &resp); err != nil {
		return 0, err
	}
	return parseFloat(resp.LastFundingRate), nil
}

// ClosePosition flattens quantity with a reduce-only market order. In hedge
// mode the positionSide of the position being closed must be passed through.
func (f *FuturesClient) ClosePosition(ctx context.Context, symbol string, side models.OrderSide, quantity float64, positionSide models.PositionSide) (*models.OrderRecord, error) {
	if err := f.core.allowOrder(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"symbol":   symbol,
		"side":     string(side),
		"type":     "MARKET",
		"quantity": formatQty(quantity),
	}
	if positionSide == models.PositionBoth || positionSide == "" {
		params["reduceOnly"] = "true"
	} else {
		params["positionSide"] = string(positionSide)
	}
	var resp futuresOrderResponse
	if err := f.core.call(ctx, xhttp.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return nil, err
	}
	return resp.record(side), nil
}
