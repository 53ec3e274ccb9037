package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	xlogger "TradePilot/pkg/logger"
)

// protectiveLimitOffset places the protective-leg limit price 1% beyond the
// stop trigger in the fill direction.
const protectiveLimitOffset = 0.01

// ExecutionGate sizes and places orders for pipeline decisions, enforcing
// the trading policy's risk limits. The policy is replaced wholesale on
// update; a per-symbol mutex is held across the check-then-place sequence so
// two executions for the same symbol cannot race past the risk gate.
type ExecutionGate struct {
	policyMu sync.RWMutex
	policy   models.TradingPolicy

	spot    domrepo.Exchange
	futures domrepo.DerivativesExchange
	metrics domrepo.Metrics
	logger  *xlogger.Logger

	symbolMu sync.Mutex
	symbols  map[string]*sync.Mutex

	stateMu        sync.Mutex
	initialBalance float64
	dailyPnL       float64
	pnlDay         time.Time
}

// NewExecutionGate creates the gate. futures may be nil when the policy will
// only ever trade spot.
func NewExecutionGate(policy models.TradingPolicy, spot domrepo.Exchange, futures domrepo.DerivativesExchange, metrics domrepo.Metrics, logger *xlogger.Logger) *ExecutionGate {
	return &ExecutionGate{
		policy:  policy,
		spot:    spot,
		futures: futures,
		metrics: metrics,
		logger:  logger,
		symbols: make(map[string]*sync.Mutex),
	}
}

// Policy returns a copy of the current policy.
func (g *ExecutionGate) Policy() models.TradingPolicy {
	g.policyMu.RLock()
	defer g.policyMu.RUnlock()
	return g.policy
}

// UpdatePolicy merges the partial update and replaces the policy wholesale.
func (g *ExecutionGate) UpdatePolicy(req models.PolicyUpdateRequest) models.TradingPolicy {
	g.policyMu.Lock()
	defer g.policyMu.Unlock()
	g.policy = req.Merge(g.policy)
	return g.policy
}

// RecordPnL adds a realized profit/loss delta to the daily accumulator,
// resetting it on UTC day rollover.
func (g *ExecutionGate) RecordPnL(delta float64) {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	g.rolloverLocked()
	g.dailyPnL += delta
}

// DailyPnL returns today's realized P&L.
func (g *ExecutionGate) DailyPnL() float64 {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	g.rolloverLocked()
	return g.dailyPnL
}

func (g *ExecutionGate) rolloverLocked() {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if !day.Equal(g.pnlDay) {
		g.pnlDay = day
		g.dailyPnL = 0
	}
}

func (g *ExecutionGate) symbolLock(symbol string) *sync.Mutex {
	g.symbolMu.Lock()
	defer g.symbolMu.Unlock()
	mu, ok := g.symbols[symbol]
	if !ok {
		mu = &sync.Mutex{}
		g.symbols[symbol] = mu
	}
	return mu
}

// Execute applies the policy preconditions in order, short-circuiting on the
// first violation, then sizes and places the order with its protective legs.
// It never panics past its boundary; every rejection is a structured message.
func (g *ExecutionGate) Execute(ctx context.Context, symbol string, decision models.Decision, confidence float64) models.ExecutionResult {
	policy := g.Policy()

	if !policy.Enabled {
		return g.reject(symbol, "Trading is disabled by policy")
	}
	if decision == models.DecisionHold {
		return g.reject(symbol, "Action is HOLD, no trade executed")
	}
	if !decision.Valid() {
		return g.reject(symbol, fmt.Sprintf("Unknown action %q", decision))
	}
	if !policy.SymbolAllowed(symbol) {
		return g.reject(symbol, fmt.Sprintf("Symbol %s is not in the allowed list", symbol))
	}
	if confidence <= 0 {
		return g.reject(symbol, "Confidence must be positive")
	}
	if confidence > 1 {
		confidence = 1
	}

	if policy.TestMode {
		return g.simulate(symbol, decision, confidence, policy)
	}

	mu := g.symbolLock(symbol)
	mu.Lock()
	defer mu.Unlock()

	if policy.IsDerivatives() {
		if g.futures == nil {
			return g.reject(symbol, "Derivatives trading is not configured")
		}
		return g.executeDerivatives(ctx, symbol, decision, confidence, policy)
	}
	return g.executeSpot(ctx, symbol, decision, confidence, policy)
}

func (g *ExecutionGate) executeSpot(ctx context.Context, symbol string, decision models.Decision, confidence float64, policy models.TradingPolicy) models.ExecutionResult {
	balance, res, ok := g.riskGate(ctx, symbol, policy, g.spot, false)
	if !ok {
		return res
	}

	price, err := g.spot.CurrentPrice(ctx, symbol)
	if err != nil {
		return g.reject(symbol, fmt.Sprintf("Failed to fetch current price: %v", err))
	}
	if price <= 0 {
		return g.reject(symbol, "Exchange returned a non-positive price")
	}

	notional := floorTwo(minFloat(policy.Risk.MaxPositionSize*confidence, balance))
	if notional <= 0 {
		return g.reject(symbol, "Position size computed to zero")
	}
	quantity := quantityFor(notional, price)

	side := sideFor(decision)
	order, err := g.spot.PlaceMarketOrder(ctx, symbol, side, quantity)
	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordOrder(symbol, "failed")
		}
		return g.reject(symbol, fmt.Sprintf("Market order failed: %v", err))
	}

	fill := order.Price
	if fill <= 0 {
		fill = price
	}
	warning := g.placeProtectiveLegs(ctx, g.spot, symbol, side, quantity, fill, policy.Risk, order)

	order.Notional = notional
	if g.metrics != nil {
		g.metrics.RecordOrder(symbol, "placed")
	}
	g.logExecuted(symbol, order, warning)
	return models.ExecutionResult{Success: true, OrderID: order.OrderID, Order: order, Warning: warning}
}

func (g *ExecutionGate) executeDerivatives(ctx context.Context, symbol string, decision models.Decision, confidence float64, policy models.TradingPolicy) models.ExecutionResult {
	deriv := policy.Derivatives
	if deriv == nil {
		return g.reject(symbol, "Derivatives parameters are not configured")
	}

	balance, res, ok := g.riskGate(ctx, symbol, policy, g.futures, true)
	if !ok {
		return res
	}

	leverage := deriv.DefaultLeverage
	if leverage < 1 {
		leverage = 1
	}
	if policy.Risk.MaxLeverage > 0 && leverage > policy.Risk.MaxLeverage {
		leverage = policy.Risk.MaxLeverage
	}
	if err := g.futures.ChangeLeverage(ctx, symbol, leverage); err != nil && g.logger != nil {
		g.logger.Warn("leverage change failed", xlogger.String("symbol", symbol), xlogger.Error(err))
	}

	price, err := g.futures.CurrentPrice(ctx, symbol)
	if err != nil {
		return g.reject(symbol, fmt.Sprintf("Failed to fetch current price: %v", err))
	}
	if price <= 0 {
		return g.reject(symbol, "Exchange returned a non-positive price")
	}

	side := sideFor(decision)
	positionSide := positionSideFor(side, deriv.HedgeMode)

	// One-way mode: an opposing position must be flattened before reversing.
	if !deriv.HedgeMode {
		if res := g.closeOpposing(ctx, symbol, side); res != nil {
			return *res
		}
	}

	lev := float64(leverage)
	notional := floorTwo(minFloat(policy.Risk.MaxPositionSize*confidence*lev, balance*lev))
	if notional <= 0 {
		return g.reject(symbol, "Position size computed to zero")
	}
	quantity := quantityFor(notional, price)

	order, err := g.futures.PlaceMarketOrder(ctx, symbol, side, quantity)
	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordOrder(symbol, "failed")
		}
		return g.reject(symbol, fmt.Sprintf("Market order failed: %v", err))
	}
	order.PositionSide = positionSide
	order.Leverage = leverage
	order.Notional = notional

	fill := order.Price
	if fill <= 0 {
		fill = price
	}
	warning := g.placeProtectiveLegs(ctx, g.futures, symbol, side, quantity, fill, policy.Risk, order)

	if g.metrics != nil {
		g.metrics.RecordOrder(symbol, "placed")
	}
	g.logExecuted(symbol, order, warning)
	return models.ExecutionResult{Success: true, OrderID: order.OrderID, Order: order, Warning: warning}
}

// riskGate runs the shared precondition checks that need exchange state.
// It returns the available balance on success.
func (g *ExecutionGate) riskGate(ctx context.Context, symbol string, policy models.TradingPolicy, ex domrepo.Exchange, derivatives bool) (float64, models.ExecutionResult, bool) {
	if daily := g.DailyPnL(); policy.Risk.MaxDailyLoss > 0 && daily < -policy.Risk.MaxDailyLoss {
		return 0, g.reject(symbol, fmt.Sprintf("Daily loss limit reached (%.2f)", daily)), false
	}

	balance, err := availableBalance(ctx, ex)
	if err != nil {
		return 0, g.reject(symbol, fmt.Sprintf("Failed to fetch balance: %v", err)), false
	}

	g.stateMu.Lock()
	if g.initialBalance <= 0 {
		g.initialBalance = balance
	}
	initial := g.initialBalance
	g.stateMu.Unlock()

	if initial > 0 && policy.Risk.MaxDrawdownPercent > 0 {
		drawdown := 1 - balance/initial
		if drawdown > policy.Risk.MaxDrawdownPercent {
			return 0, g.reject(symbol, fmt.Sprintf("Drawdown %.2f%% exceeds limit", drawdown*100)), false
		}
	}

	if derivatives && policy.Derivatives != nil && policy.Derivatives.MaxOpenPositions > 0 {
		positions, err := g.futures.Positions(ctx, "")
		if err != nil {
			return 0, g.reject(symbol, fmt.Sprintf("Failed to fetch positions: %v", err)), false
		}
		open := 0
		for _, p := range positions {
			if p.IsOpen() {
				open++
			}
		}
		if open >= policy.Derivatives.MaxOpenPositions {
			return 0, g.reject(symbol, fmt.Sprintf("Open position limit reached (%d)", open)), false
		}
	}

	return balance, models.ExecutionResult{}, true
}

// closeOpposing flattens an opposing position with a reduce-only market
// order. A non-nil result is a rejection to surface.
func (g *ExecutionGate) closeOpposing(ctx context.Context, symbol string, side models.OrderSide) *models.ExecutionResult {
	positions, err := g.futures.Positions(ctx, symbol)
	if err != nil {
		res := g.reject(symbol, fmt.Sprintf("Failed to fetch positions: %v", err))
		return &res
	}
	for _, p := range positions {
		if !p.IsOpen() {
			continue
		}
		opposing := (side == models.SideBuy && p.IsShort()) || (side == models.SideSell && !p.IsShort())
		if !opposing {
			continue
		}
		qty := p.Quantity
		if qty < 0 {
			qty = -qty
		}
		if _, err := g.futures.ClosePosition(ctx, symbol, side, qty, p.PositionSide); err != nil {
			res := g.reject(symbol, fmt.Sprintf("Failed to close opposing position: %v", err))
			return &res
		}
		if g.logger != nil {
			g.logger.Info("closed opposing position",
				xlogger.String("symbol", symbol),
				xlogger.Any("quantity", qty),
			)
		}
	}
	return nil
}

// placeProtectiveLegs places the stop-loss and take-profit orders. Failures
// here never roll back the entry; they surface as a warning.
func (g *ExecutionGate) placeProtectiveLegs(ctx context.Context, ex domrepo.Exchange, symbol string, entrySide models.OrderSide, quantity, fill float64, risk models.RiskParameters, order *models.OrderRecord) string {
	exitSide := entrySide.Opposite()
	var failures []string

	if risk.StopLossPercent > 0 {
		stop := stopPrice(fill, risk.StopLossPercent, entrySide, true)
		limit := limitBeyond(stop, exitSide)
		if _, err := ex.PlaceStopLossOrder(ctx, symbol, exitSide, quantity, stop, limit); err != nil {
			failures = append(failures, fmt.Sprintf("stop-loss: %v", err))
		} else {
			order.StopLoss = stop
		}
	}

	if risk.TakeProfitPercent > 0 {
		stop := stopPrice(fill, risk.TakeProfitPercent, entrySide, false)
		limit := limitBeyond(stop, exitSide)
		if _, err := ex.PlaceTakeProfitOrder(ctx, symbol, exitSide, quantity, stop, limit); err != nil {
			failures = append(failures, fmt.Sprintf("take-profit: %v", err))
		} else {
			order.TakeProfit = stop
		}
	}

	if len(failures) == 0 {
		return ""
	}
	warning := "Entry filled but protective orders failed: " + joinAnd(failures)
	if g.logger != nil {
		g.logger.Warn("partial execution", xlogger.String("symbol", symbol), xlogger.String("detail", warning))
	}
	if g.metrics != nil {
		g.metrics.RecordError("partial_execution")
	}
	return warning
}

func (g *ExecutionGate) simulate(symbol string, decision models.Decision, confidence float64, policy models.TradingPolicy) models.ExecutionResult {
	notional := floorTwo(policy.Risk.MaxPositionSize * confidence)
	order := &models.OrderRecord{
		OrderID:   fmt.Sprintf("test_%d", time.Now().UnixNano()),
		Symbol:    symbol,
		Side:      sideFor(decision),
		Notional:  notional,
		Simulated: true,
		CreatedAt: time.Now(),
	}
	if g.logger != nil {
		g.logger.Info("simulated order",
			xlogger.String("symbol", symbol),
			xlogger.String("side", string(order.Side)),
			xlogger.Any("notional", notional),
		)
	}
	if g.metrics != nil {
		g.metrics.RecordOrder(symbol, "simulated")
	}
	return models.ExecutionResult{Success: true, OrderID: order.OrderID, Order: order}
}

func (g *ExecutionGate) reject(symbol, reason string) models.ExecutionResult {
	if g.logger != nil {
		g.logger.Info("execution rejected",
			xlogger.String("symbol", symbol),
			xlogger.String("reason", reason),
		)
	}
	if g.metrics != nil {
		g.metrics.RecordOrder(symbol, "rejected")
	}
	return models.Rejected(reason)
}

func (g *ExecutionGate) logExecuted(symbol string, order *models.OrderRecord, warning string) {
	if g.logger == nil {
		return
	}
	g.logger.Info("order executed",
		xlogger.String("symbol", symbol),
		xlogger.String("order_id", order.OrderID),
		xlogger.String("side", string(order.Side)),
		xlogger.Any("quantity", order.Quantity),
		xlogger.Bool("partial", warning != ""),
	)
}

func sideFor(decision models.Decision) models.OrderSide {
	if decision == models.DecisionSell {
		return models.SideSell
	}
	return models.SideBuy
}

func positionSideFor(side models.OrderSide, hedgeMode bool) models.PositionSide {
	if !hedgeMode {
		return models.PositionBoth
	}
	if side == models.SideBuy {
		return models.PositionLong
	}
	return models.PositionShort
}

// stopPrice offsets the fill by pct in the loss direction (protective=true)
// or the profit direction for the given entry side.
func stopPrice(fill, pct float64, entrySide models.OrderSide, protective bool) float64 {
	down := protective
	if entrySide == models.SideSell {
		down = !protective
	}
	if down {
		return fill * (1 - pct)
	}
	return fill * (1 + pct)
}

// limitBeyond offsets the limit 1% past the trigger so the leg can fill
// after the stop fires.
func limitBeyond(stop float64, exitSide models.OrderSide) float64 {
	if exitSide == models.SideSell {
		return stop * (1 - protectiveLimitOffset)
	}
	return stop * (1 + protectiveLimitOffset)
}

// availableBalance sums free quote balances. USDT is the quote asset for the
// supported symbols.
func availableBalance(ctx context.Context, ex domrepo.Exchange) (float64, error) {
	balances, err := ex.Balances(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range balances {
		if b.Asset == "USDT" {
			return b.Free, nil
		}
	}
	return 0, nil
}

func floorTwo(v float64) float64 {
	return decimal.NewFromFloat(v).RoundFloor(2).InexactFloat64()
}

// quantityFor converts notional to base quantity at price, floored to six
// decimals to stay under exchange step sizes.
func quantityFor(notional, price float64) float64 {
	return decimal.NewFromFloat(notional).
		Div(decimal.NewFromFloat(price)).
		RoundFloor(6).
		InexactFloat64()
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "; " + parts[1]
	}
}
