package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
)

type fakeExchange struct {
	balance    float64
	balanceErr error
	price      float64
	priceErr   error

	marketErr error
	stopErr   error
	takeErr   error

	marketCalls int
	stopCalls   int
	takeCalls   int

	lastSide  models.OrderSide
	lastQty   float64
	lastStop  float64
	lastLimit float64
}

func (f *fakeExchange) ServerTime(_ context.Context) (time.Time, error) { return time.Now(), nil }

func (f *fakeExchange) Balances(_ context.Context) ([]models.Balance, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return []models.Balance{{Asset: "USDT", Free: f.balance}}, nil
}

func (f *fakeExchange) CurrentPrice(_ context.Context, _ string) (float64, error) {
	return f.price, f.priceErr
}

func (f *fakeExchange) PlaceMarketOrder(_ context.Context, symbol string, side models.OrderSide, quantity float64) (*models.OrderRecord, error) {
	f.marketCalls++
	f.lastSide = side
	f.lastQty = quantity
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	return &models.OrderRecord{OrderID: "ord-1", Symbol: symbol, Side: side, Quantity: quantity, Price: f.price, CreatedAt: time.Now()}, nil
}

func (f *fakeExchange) PlaceStopLossOrder(_ context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	f.stopCalls++
	f.lastStop = stopPrice
	f.lastLimit = limitPrice
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return &models.OrderRecord{OrderID: "sl-1", Symbol: symbol, Side: side, Quantity: quantity}, nil
}

func (f *fakeExchange) PlaceTakeProfitOrder(_ context.Context, symbol string, side models.OrderSide, quantity, stopPrice, limitPrice float64) (*models.OrderRecord, error) {
	f.takeCalls++
	if f.takeErr != nil {
		return nil, f.takeErr
	}
	return &models.OrderRecord{OrderID: "tp-1", Symbol: symbol, Side: side, Quantity: quantity}, nil
}

func (f *fakeExchange) CancelAllOrders(_ context.Context, _ string) error { return nil }

func (f *fakeExchange) OpenOrders(_ context.Context, _ string) ([]models.OrderRecord, error) {
	return nil, nil
}

type fakeFutures struct {
	fakeExchange
	positions    []models.Position
	positionsErr error
	leverage     int
	closeCalls   int
	closedQty    float64
}

func (f *fakeFutures) Positions(_ context.Context, _ string) ([]models.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeFutures) ChangeLeverage(_ context.Context, _ string, leverage int) error {
	f.leverage = leverage
	return nil
}

func (f *fakeFutures) ChangeMarginType(_ context.Context, _ string, _ models.MarginType) error {
	return nil
}

func (f *fakeFutures) ChangePositionMode(_ context.Context, _ bool) error { return nil }

func (f *fakeFutures) FundingRate(_ context.Context, _ string) (float64, error) { return 0, nil }

func (f *fakeFutures) ClosePosition(_ context.Context, symbol string, side models.OrderSide, quantity float64, _ models.PositionSide) (*models.OrderRecord, error) {
	f.closeCalls++
	f.closedQty = quantity
	f.positions = nil
	return &models.OrderRecord{OrderID: "close-1", Symbol: symbol, Side: side, Quantity: quantity}, nil
}

func spotPolicy() models.TradingPolicy {
	return models.TradingPolicy{
		Mode:           models.ModeSpot,
		Enabled:        true,
		AllowedSymbols: []string{"BTCUSDT"},
		Risk:           models.RiskParameters{MaxPositionSize: 100},
	}
}

func derivativesPolicy() models.TradingPolicy {
	p := spotPolicy()
	p.Mode = models.ModeDerivatives
	p.Risk.MaxLeverage = 5
	p.Derivatives = &models.DerivativesParameters{DefaultLeverage: 10, MaxOpenPositions: 3}
	return p
}

func TestExecuteDisabledPolicy(t *testing.T) {
	p := spotPolicy()
	p.Enabled = false
	g := NewExecutionGate(p, &fakeExchange{}, nil, nil, nil)
	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 0.5)
	if res.Success || res.ErrorMessage != "Trading is disabled by policy" {
		t.Fatalf("got %+v", res)
	}
}

func TestExecuteHold(t *testing.T) {
	g := NewExecutionGate(spotPolicy(), &fakeExchange{}, nil, nil, nil)
	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionHold, 0.5)
	if res.Success {
		t.Fatalf("HOLD must not execute")
	}
	if res.ErrorMessage != "Action is HOLD, no trade executed" {
		t.Fatalf("got %q", res.ErrorMessage)
	}
}

func TestExecuteSymbolNotAllowed(t *testing.T) {
	g := NewExecutionGate(spotPolicy(), &fakeExchange{}, nil, nil, nil)
	res := g.Execute(context.Background(), "DOGEUSDT", models.DecisionBuy, 0.5)
	if res.Success || !strings.Contains(res.ErrorMessage, "not in the allowed list") {
		t.Fatalf("got %+v", res)
	}
}

func TestExecuteNonPositiveConfidence(t *testing.T) {
	g := NewExecutionGate(spotPolicy(), &fakeExchange{}, nil, nil, nil)
	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 0)
	if res.Success || res.ErrorMessage != "Confidence must be positive" {
		t.Fatalf("got %+v", res)
	}
}

func TestExecuteTestMode(t *testing.T) {
	p := spotPolicy()
	p.TestMode = true
	ex := &fakeExchange{balance: 1000, price: 100}
	g := NewExecutionGate(p, ex, nil, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionSell, 0.5)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if !strings.HasPrefix(res.OrderID, "test_") {
		t.Fatalf("order id %q, want test_ prefix", res.OrderID)
	}
	if !res.Order.Simulated {
		t.Fatalf("simulated flag not set")
	}
	if res.Order.Notional != 50 {
		t.Fatalf("notional %f, want 50", res.Order.Notional)
	}
	if ex.marketCalls != 0 {
		t.Fatalf("test mode must not reach the exchange")
	}
}

func TestExecuteSpotSizing(t *testing.T) {
	ex := &fakeExchange{balance: 1000, price: 20000}
	g := NewExecutionGate(spotPolicy(), ex, nil, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 0.5)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if res.Order.Notional != 50 {
		t.Fatalf("notional %f, want 50", res.Order.Notional)
	}
	// 50 / 20000 floored to six decimals
	if ex.lastQty != 0.0025 {
		t.Fatalf("quantity %f, want 0.0025", ex.lastQty)
	}
	if ex.lastSide != models.SideBuy {
		t.Fatalf("side %s, want BUY", ex.lastSide)
	}
	if ex.stopCalls != 0 || ex.takeCalls != 0 {
		t.Fatalf("protective legs placed without configured percents")
	}
}

func TestExecuteSpotBalanceCapsNotional(t *testing.T) {
	ex := &fakeExchange{balance: 30.557, price: 100}
	g := NewExecutionGate(spotPolicy(), ex, nil, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if res.Order.Notional != 30.55 {
		t.Fatalf("notional %f, want 30.55 (floored to cents)", res.Order.Notional)
	}
}

func TestExecuteConfidenceClamped(t *testing.T) {
	ex := &fakeExchange{balance: 1000, price: 100}
	g := NewExecutionGate(spotPolicy(), ex, nil, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 7)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if res.Order.Notional != 100 {
		t.Fatalf("notional %f, want 100 (confidence clamped to 1)", res.Order.Notional)
	}
}

func TestExecuteProtectiveLegPrices(t *testing.T) {
	p := spotPolicy()
	p.Risk.StopLossPercent = 0.02
	p.Risk.TakeProfitPercent = 0.04
	ex := &fakeExchange{balance: 1000, price: 100}
	g := NewExecutionGate(p, ex, nil, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if !res.Success || res.Warning != "" {
		t.Fatalf("got %+v", res)
	}
	if ex.stopCalls != 1 || ex.takeCalls != 1 {
		t.Fatalf("leg calls %d/%d, want 1/1", ex.stopCalls, ex.takeCalls)
	}
	// BUY at 100: stop-loss triggers at 98 with a sell limit 1% below
	if math.Abs(ex.lastStop-98) > 1e-9 {
		t.Fatalf("stop price %f, want 98", ex.lastStop)
	}
	if math.Abs(ex.lastLimit-98*0.99) > 1e-9 {
		t.Fatalf("limit price %f, want %f", ex.lastLimit, 98*0.99)
	}
	if res.Order.StopLoss != ex.lastStop {
		t.Fatalf("stop not recorded on the order")
	}
}

func TestExecuteProtectiveLegFailureIsWarning(t *testing.T) {
	p := spotPolicy()
	p.Risk.StopLossPercent = 0.02
	p.Risk.TakeProfitPercent = 0.04
	ex := &fakeExchange{balance: 1000, price: 100, stopErr: errors.New("rejected"), takeErr: errors.New("rejected")}
	g := NewExecutionGate(p, ex, nil, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if !res.Success {
		t.Fatalf("entry success must survive leg failures: %+v", res)
	}
	if !strings.HasPrefix(res.Warning, "Entry filled but protective orders failed:") {
		t.Fatalf("warning %q", res.Warning)
	}
	if !strings.Contains(res.Warning, "stop-loss") || !strings.Contains(res.Warning, "take-profit") {
		t.Fatalf("warning %q does not name both legs", res.Warning)
	}
}

func TestExecuteDailyLossLimit(t *testing.T) {
	p := spotPolicy()
	p.Risk.MaxDailyLoss = 500
	ex := &fakeExchange{balance: 1000, price: 100}
	g := NewExecutionGate(p, ex, nil, nil, nil)
	g.RecordPnL(-600)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if res.Success || !strings.Contains(res.ErrorMessage, "Daily loss limit reached") {
		t.Fatalf("got %+v", res)
	}
	if ex.marketCalls != 0 {
		t.Fatalf("order placed past the loss limit")
	}
}

func TestExecuteDrawdownLimit(t *testing.T) {
	p := spotPolicy()
	p.Risk.MaxDrawdownPercent = 0.1
	ex := &fakeExchange{balance: 1000, price: 100}
	g := NewExecutionGate(p, ex, nil, nil, nil)

	if res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1); !res.Success {
		t.Fatalf("baseline execution failed: %+v", res)
	}

	ex.balance = 800 // 20% below the initial balance
	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if res.Success || !strings.Contains(res.ErrorMessage, "Drawdown") {
		t.Fatalf("got %+v", res)
	}
}

func TestExecuteDerivativesLeverageAndSizing(t *testing.T) {
	fut := &fakeFutures{fakeExchange: fakeExchange{balance: 1000, price: 100}}
	g := NewExecutionGate(derivativesPolicy(), nil, fut, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if fut.leverage != 5 {
		t.Fatalf("leverage %d, want 5 (clamped by max)", fut.leverage)
	}
	if res.Order.Leverage != 5 {
		t.Fatalf("order leverage %d, want 5", res.Order.Leverage)
	}
	// min(100*1*5, 1000*5) = 500 notional at price 100
	if res.Order.Notional != 500 {
		t.Fatalf("notional %f, want 500", res.Order.Notional)
	}
	if fut.lastQty != 5 {
		t.Fatalf("quantity %f, want 5", fut.lastQty)
	}
	if res.Order.PositionSide != models.PositionBoth {
		t.Fatalf("position side %s, want BOTH in one-way mode", res.Order.PositionSide)
	}
}

func TestExecuteDerivativesClosesOpposing(t *testing.T) {
	fut := &fakeFutures{
		fakeExchange: fakeExchange{balance: 1000, price: 100},
		positions:    []models.Position{{Symbol: "BTCUSDT", PositionSide: models.PositionBoth, Quantity: -2}},
	}
	g := NewExecutionGate(derivativesPolicy(), nil, fut, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if fut.closeCalls != 1 || fut.closedQty != 2 {
		t.Fatalf("close calls %d qty %f, want 1/2", fut.closeCalls, fut.closedQty)
	}
}

func TestExecuteDerivativesHedgeModeKeepsOpposing(t *testing.T) {
	p := derivativesPolicy()
	p.Derivatives.HedgeMode = true
	fut := &fakeFutures{
		fakeExchange: fakeExchange{balance: 1000, price: 100},
		positions:    []models.Position{{Symbol: "BTCUSDT", PositionSide: models.PositionShort, Quantity: -2}},
	}
	g := NewExecutionGate(p, nil, fut, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if fut.closeCalls != 0 {
		t.Fatalf("hedge mode must not flatten the short")
	}
	if res.Order.PositionSide != models.PositionLong {
		t.Fatalf("position side %s, want LONG", res.Order.PositionSide)
	}
}

func TestExecuteDerivativesOpenPositionLimit(t *testing.T) {
	p := derivativesPolicy()
	p.Derivatives.MaxOpenPositions = 1
	fut := &fakeFutures{
		fakeExchange: fakeExchange{balance: 1000, price: 100},
		positions:    []models.Position{{Symbol: "ETHUSDT", PositionSide: models.PositionBoth, Quantity: 1}},
	}
	g := NewExecutionGate(p, nil, fut, nil, nil)

	res := g.Execute(context.Background(), "BTCUSDT", models.DecisionBuy, 1)
	if res.Success || !strings.Contains(res.ErrorMessage, "Open position limit reached") {
		t.Fatalf("got %+v", res)
	}
	if fut.marketCalls != 0 {
		t.Fatalf("order placed past the position limit")
	}
}

func TestUpdatePolicyMerge(t *testing.T) {
	g := NewExecutionGate(spotPolicy(), &fakeExchange{}, nil, nil, nil)
	enabled := false
	updated := g.UpdatePolicy(models.PolicyUpdateRequest{Enabled: &enabled})
	if updated.Enabled {
		t.Fatalf("enable flag not merged")
	}
	if len(updated.AllowedSymbols) != 1 || updated.AllowedSymbols[0] != "BTCUSDT" {
		t.Fatalf("untouched fields lost: %+v", updated)
	}
	if g.Policy().Enabled {
		t.Fatalf("stored policy not replaced")
	}
}
