package models

import "time"

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// PositionSide tags a derivatives position. BOTH is used in one-way mode;
// LONG/SHORT only apply when hedge mode is on.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
	PositionBoth  PositionSide = "BOTH"
)

// OrderRecord describes one order the gate placed (or simulated).
type OrderRecord struct {
	OrderID      string       `json:"order_id"`
	Symbol       string       `json:"symbol"`
	Side         OrderSide    `json:"side"`
	PositionSide PositionSide `json:"position_side,omitempty"`
	Quantity     float64      `json:"quantity"`
	Notional     float64      `json:"notional"`
	Price        float64      `json:"price"`
	Leverage     int          `json:"leverage,omitempty"`
	StopLoss     float64      `json:"stop_loss,omitempty"`
	TakeProfit   float64      `json:"take_profit,omitempty"`
	Simulated    bool         `json:"simulated,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ExecutionResult is returned once per execution call. Warning is set when
// the entry filled but one or both protective legs failed.
type ExecutionResult struct {
	Success      bool         `json:"success"`
	OrderID      string       `json:"order_id,omitempty"`
	Order        *OrderRecord `json:"order,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Warning      string       `json:"warning,omitempty"`
}

// Rejected builds a failed result with a human-readable reason.
func Rejected(reason string) ExecutionResult {
	return ExecutionResult{Success: false, ErrorMessage: reason}
}

// Balance is one asset balance reported by an exchange.
type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// Position is one open derivatives position.
type Position struct {
	Symbol       string       `json:"symbol"`
	PositionSide PositionSide `json:"position_side"`
	Quantity     float64      `json:"quantity"` // signed: negative means short
	EntryPrice   float64      `json:"entry_price"`
	Leverage     int          `json:"leverage"`
	UnrealizedPL float64      `json:"unrealized_pnl"`
}

// IsShort reports whether the position is net short.
func (p Position) IsShort() bool { return p.Quantity < 0 }

// IsOpen reports whether the position has any size.
func (p Position) IsOpen() bool { return p.Quantity != 0 }
