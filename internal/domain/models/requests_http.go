package models

// Requests for the trading HTTP endpoints. Defined in domain for consistency
// and reuse.

type AnalyzeRequest struct {
	Symbol        string         `json:"symbol" validate:"required"`
	Snapshot      MarketSnapshot `json:"snapshot" validate:"required"`
	News          NewsContext    `json:"news"`
	Query         string         `json:"query" default:"What is the trading decision based on RSI?"`
	ForceFallback bool           `json:"force_fallback"`
}

type ExecuteRequest struct {
	Symbol     string  `json:"symbol" validate:"required"`
	Decision   string  `json:"decision" validate:"required,oneof=BUY SELL HOLD"`
	Confidence float64 `json:"confidence" default:"0.5" validate:"gte=0,lte=1"`
}

type PolicyUpdateRequest struct {
	Mode           *string                `json:"mode" validate:"omitempty,oneof=spot derivatives"`
	Enabled        *bool                  `json:"enabled"`
	TestMode       *bool                  `json:"test_mode"`
	AllowedSymbols []string               `json:"allowed_symbols"`
	Risk           *RiskParameters        `json:"risk_parameters"`
	Derivatives    *DerivativesParameters `json:"derivatives_parameters"`
}

type OutcomeRequest struct {
	Capability string `json:"capability" validate:"required,oneof=table sentiment decision summary"`
	Correct    bool   `json:"correct"`
	Note       string `json:"note"`
}

// Merge applies the partial update onto a copy of base and returns it.
// Absent fields keep the base value; the result replaces the policy
// wholesale.
func (r PolicyUpdateRequest) Merge(base TradingPolicy) TradingPolicy {
	next := base
	if r.Mode != nil {
		next.Mode = PolicyMode(*r.Mode)
	}
	if r.Enabled != nil {
		next.Enabled = *r.Enabled
	}
	if r.TestMode != nil {
		next.TestMode = *r.TestMode
	}
	if r.AllowedSymbols != nil {
		next.AllowedSymbols = append([]string(nil), r.AllowedSymbols...)
	}
	if r.Risk != nil {
		next.Risk = *r.Risk
	}
	if r.Derivatives != nil {
		d := *r.Derivatives
		next.Derivatives = &d
	}
	return next
}
