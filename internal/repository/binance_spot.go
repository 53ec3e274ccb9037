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

const DefaultSpotBaseURL = "https://api.binance.com"

// SpotClient talks to the Binance spot REST API.
type SpotClient struct {
	core *binanceCore
}

var _ domrepo.Exchange = (*SpotClient)(nil)

func NewSpotClient(baseURL, apiKey, secret string, client *xhttp.Client, limiter *ratelimit.Limiter, logger *xlogger.Logger) *SpotClient {
	if baseURL == "" {
		baseURL = DefaultSpotBaseURL
	}
	return &SpotClient{core: newBinanceCore(baseURL, apiKey, secret, client, limiter, logger)}
}

type spotTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

func (s *SpotClient) ServerTime(ctx context.Context) (time.Time, error) {
	var resp spotTimeResponse
	if err := s.core.call(ctx, xhttp.MethodGet, "/api/v3/time", nil, false, &resp); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(resp.ServerTime), nil
}

type spotAccountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

func (s *SpotClient) Balances(ctx context.Context) ([]models.Balance, error) {
	var resp spotAccountResponse
	if err := s.core.call(ctx, xhttp.MethodGet, "/api/v3/account", nil, true, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		free, locked := parseFloat(b.Free), parseFloat(b.Locked)
		if free == 0 && locked == 0 {
			continue
		}
		out = append(out, models.Balance{Asset: b.Asset, Free: free, Locked: locked})
	}
	return out, nil
}

type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (s *SpotClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var resp tickerPriceResponse
	params := map[string]string{"symbol": symbol}
	if err := s.core.call(ctx, xhttp.MethodGet, "/api/v3/ticker/price", params, false, &resp); err != nil {
		return 0, err
	}
	return parseFloat(resp.Price), nil
}

type spotOrderResponse struct {
	OrderID             int64  `json:"orderId"`
	Symbol              string `json:"symbol"`
	Status              string `json:"status"`
	ExecutedQty         string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	TransactTime        int64  `json:"transactTime"`
}

func (r spotOrderResponse) record(side models.OrderSide) *models.OrderRecord {
	executed := parseFloat(r.ExecutedQty)
	quote := parseFloat(r.CummulativeQuoteQty)
	rec := &models.OrderRecord{
		OrderID:   strconv.FormatInt(r.OrderID, 10),
		Symbol:    r.Symbol,
		Side:      side,
		Quantity:  executed,
		Notional:  quote,
		CreatedAt: time.UnixMilli(r.TransactTime),
	}
	if executed > 0 {
		rec.Price = quote / executed
	}
	return rec
}

func (s *SpotClient) PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, quantity float64) (*models.OrderRecord, error) {
	if err := s.core.allowOrder(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"symbol":   symbol,
		"side":     string(side),
		"type":     "MARKET",
		"quantity": formatQty(quantity),
	}
	var resp spotOrderResponse
	if err := s.core.call(ctx, xhttp.MethodPost, "/api/v3/order", params, true, &resp); err != nil {
		return nil, err
	}
	return resp.record(side), nil
}

func (s *SpotClient) PlaceStopLossOrder(ctx context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	return s.placeStopLimit(ctx, symbol, side, "STOP_LOSS_LIMIT", quantity, stopPrice, limitPrice)
}

func (s *SpotClient) PlaceTakeProfitOrder(ctx context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	return s.placeStopLimit(ctx, symbol, side, "TAKE_PROFIT_LIMIT", quantity, stopPrice, limitPrice)
}

func (s *SpotClient) placeStopLimit(ctx context.Context, symbol string, side models.OrderSide, orderType string, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	if err := s.core.allowOrder(); err != nil {
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
	}
	var resp spotOrderResponse
	if err := s.core.call(ctx, xhttp.MethodPost, "/api/v3/order", params, true, &resp); err != nil {
		return nil, err
	}
	rec := resp.record(side)
	rec.StopLoss = stopPrice
	return rec, nil
}

func (s *SpotClient) CancelAllOrders(ctx context.Context, symbol string) error {
	params := map[string]string{"symbol": symbol}
	return s.core.call(ctx, xhttp.MethodDelete, "/api/v3/openOrders", params, true, nil)
}

type spotOpenOrder struct {
	OrderID   int64  `json:"orderId"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrigQty   string `json:"origQty"`
	Price     string `json:"price"`
	StopPrice string `json:"stopPrice"`
	Time      int64  `json:"time"`
}

func (s *SpotClient) OpenOrders(ctx context.Context, symbol string) ([]models.OrderRecord, error) {
	params := map[string]string{"symbol": symbol}
	var resp []spotOpenOrder
	if err := s.core.call(ctx, xhttp.MethodGet, "/api/v3/openOrders", params, true, &resp); err != nil {
		return nil, err
	}

	out := make([]models.OrderRecord, 0, len(resp))
	for _, o := range resp {
		out = append(out, models.OrderRecord{
			OrderID:   strconv.FormatInt(o.OrderID, 10),
			Symbol:    o.Symbol,
			Side:      models.OrderSide(o.Side),
			Quantity:  parseFloat(o.OrigQty),
			Price:     parseFloat(o.Price),
			StopLoss:  parseFloat(o.StopPrice),
			CreatedAt: time.UnixMilli(o.Time),
		})
	}
	return out, nil
}
