package repository

import (
	"context"
	"time"

	"TradePilot/internal/domain/models"
)

// Exchange is the spot trading boundary. Implementations sign mutating calls
// with a monotonic timestamp and an HMAC signature over the canonical query
// string.
type Exchange interface {
	ServerTime(ctx context.Context) (time.Time, error)
	Balances(ctx context.Context) ([]models.Balance, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	PlaceMarketOrder(ctx context.Context, symbol string, side models.OrderSide, quantity float64) (*models.OrderRecord, error)
	PlaceStopLossOrder(ctx context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error)
	PlaceTakeProfitOrder(ctx context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error)
	CancelAllOrders(ctx context.Context, symbol string) error
	OpenOrders(ctx context.Context, symbol string) ([]models.OrderRecord, error)
}

// DerivativesExchange extends the spot surface with futures operations.
type DerivativesExchange interface {
	Exchange
	Positions(ctx context.Context, symbol string) ([]models.Position, error)
	ChangeLeverage(ctx context.Context, symbol string, leverage int) error
	ChangeMarginType(ctx context.Context, symbol string, margin models.MarginType) error
	ChangePositionMode(ctx context.Context, hedgeMode bool) error
	FundingRate(ctx context.Context, symbol string) (float64, error)
	ClosePosition(ctx context.Context, symbol string, side models.OrderSide, quantity float64, positionSide models.PositionSide) (*models.OrderRecord, error)
}

// EventPublisher streams analysis/execution events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.TradingEvent) error
	Close() error
}

// Metrics is the observability recorder for the decision pipeline and gate.
type Metrics interface {
	RecordInference(capability, result string, seconds float64)
	RecordFallback(capability string)
	RecordDecision(symbol, decision string)
	RecordRiskScore(symbol string, score float64)
	RecordOrder(symbol, status string)
	RecordError(kind string)
}
