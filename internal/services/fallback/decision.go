package fallback

import (
	"context"
	"fmt"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
	"TradePilot/internal/services/risk"
)

// DecisionHeuristic applies an ordered rule cascade over the upstream stage
// values. Rules are evaluated in a fixed order and the first match
// short-circuits.
type DecisionHeuristic struct {
	t risk.Thresholds
}

func NewDecisionHeuristic(t risk.Thresholds) *DecisionHeuristic {
	return &DecisionHeuristic{t: t}
}

// Synthesize satisfies the capability interface; the heuristic cannot fail.
func (d *DecisionHeuristic) Synthesize(_ context.Context, in domsvc.DecisionInput) (models.Decision, models.AnalysisOutcome, error) {
	decision, outcome := d.Decide(in)
	return decision, outcome, nil
}

// Decide is the pure core of the cascade.
func (d *DecisionHeuristic) Decide(in domsvc.DecisionInput) (models.Decision, models.AnalysisOutcome) {
	decision, reason := d.applyRules(in)
	return decision, models.AnalysisOutcome{
		Value:        string(decision),
		Reasoning:    reason,
		UsedFallback: true,
	}
}

func (d *DecisionHeuristic) applyRules(in domsvc.DecisionInput) (models.Decision, string) {
	// (a) risk override
	if in.Risk > d.t.ConservativeRisk {
		return models.DecisionHold, fmt.Sprintf("Risk %.2f exceeds %.2f; holding", in.Risk, d.t.ConservativeRisk)
	}

	// (b) RSI bands, strict inequalities
	if in.Snapshot.RSI > d.t.Overbought {
		return models.DecisionSell, fmt.Sprintf("RSI %.2f above %.0f (overbought)", in.Snapshot.RSI, d.t.Overbought)
	}
	if in.Snapshot.RSI < d.t.Oversold {
		return models.DecisionBuy, fmt.Sprintf("RSI %.2f below %.0f (oversold)", in.Snapshot.RSI, d.t.Oversold)
	}

	// (c) MACD relation to signal line
	if in.Snapshot.MACD > in.Snapshot.SignalLine && in.Risk < d.t.BullishRisk {
		return models.DecisionBuy, "MACD above signal with acceptable risk"
	}
	if in.Snapshot.MACD < in.Snapshot.SignalLine {
		return models.DecisionSell, "MACD below signal"
	}

	// (d) qualitative market condition
	cond := strings.ToLower(in.MarketCondition)
	switch {
	case strings.Contains(cond, "volatile"):
		return models.DecisionHold, "Volatile market condition; holding"
	case strings.Contains(cond, "uptrend"):
		return models.DecisionBuy, "Uptrend market condition"
	case strings.Contains(cond, "downtrend"):
		return models.DecisionSell, "Downtrend market condition"
	case strings.Contains(cond, "sideways"):
		return models.DecisionHold, "Sideways market condition; holding"
	}

	// (e) default
	return models.DecisionHold, "No rule matched; defaulting to HOLD"
}

var _ domsvc.DecisionSynthesizer = (*DecisionHeuristic)(nil)
