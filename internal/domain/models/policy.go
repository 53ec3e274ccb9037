package models

// PolicyMode discriminates the trading policy union.
type PolicyMode string

const (
	ModeSpot        PolicyMode = "spot"
	ModeDerivatives PolicyMode = "derivatives"
)

// MarginType selects the derivatives margin mode.
type MarginType string

const (
	MarginCrossed  MarginType = "CROSSED"
	MarginIsolated MarginType = "ISOLATED"
)

// RiskParameters bound position sizing and protective pricing.
type RiskParameters struct {
	MaxPositionSize    float64 `json:"max_position_size" yaml:"max_position_size"`
	MaxLeverage        int     `json:"max_leverage" yaml:"max_leverage"`
	StopLossPercent    float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent  float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
	MaxDailyLoss       float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent" yaml:"max_drawdown_percent"`
}

// DerivativesParameters extend RiskParameters for futures trading.
type DerivativesParameters struct {
	MarginType         MarginType `json:"margin_type" yaml:"margin_type"`
	DefaultLeverage    int        `json:"default_leverage" yaml:"default_leverage"`
	MaxOpenPositions   int        `json:"max_open_positions" yaml:"max_open_positions"`
	MaxLossPerPosition float64    `json:"max_loss_per_position" yaml:"max_loss_per_position"`
	HedgeMode          bool       `json:"hedge_mode" yaml:"hedge_mode"`
}

// TradingPolicy is the process-wide trading configuration. Mode is the union
// discriminator: Derivatives is only consulted when Mode is "derivatives".
// The policy is replaced wholesale on update, never field-mutated in place.
type TradingPolicy struct {
	Mode           PolicyMode             `json:"mode" yaml:"mode"`
	Enabled        bool                   `json:"enabled" yaml:"enabled"`
	TestMode       bool                   `json:"test_mode" yaml:"test_mode"`
	AllowedSymbols []string               `json:"allowed_symbols" yaml:"allowed_symbols"`
	Risk           RiskParameters         `json:"risk_parameters" yaml:"risk_parameters"`
	Derivatives    *DerivativesParameters `json:"derivatives_parameters,omitempty" yaml:"derivatives_parameters,omitempty"`
}

// SymbolAllowed reports whether symbol is in the allow-list.
func (p TradingPolicy) SymbolAllowed(symbol string) bool {
	for _, s := range p.AllowedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// IsDerivatives reports whether the policy trades futures.
func (p TradingPolicy) IsDerivatives() bool {
	return p.Mode == ModeDerivatives
}
