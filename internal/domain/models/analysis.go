package models

import "time"

// Decision is the trade action produced by the pipeline. It is always one of
// exactly three values.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// ParseDecision maps a free-form token to a Decision, defaulting to HOLD.
func ParseDecision(s string) Decision {
	switch Decision(s) {
	case DecisionBuy, DecisionSell:
		return Decision(s)
	default:
		return DecisionHold
	}
}

// Valid reports whether d is one of the three allowed values.
func (d Decision) Valid() bool {
	return d == DecisionBuy || d == DecisionSell || d == DecisionHold
}

// Capability identifies one of the four remote analysis functions.
type Capability string

const (
	CapabilityTable     Capability = "table"
	CapabilitySentiment Capability = "sentiment"
	CapabilityDecision  Capability = "decision"
	CapabilitySummary   Capability = "summary"
)

// Capabilities lists all capabilities in pipeline order.
func Capabilities() []Capability {
	return []Capability{CapabilityTable, CapabilitySentiment, CapabilityDecision, CapabilitySummary}
}

// AnalysisOutcome is the result of a single pipeline stage. Value holds the
// stage's answer rendered as a string (sentiment additionally exposes its
// numeric score on PipelineResult). UsedFallback is true whenever any remote
// call in the stage's cascade failed.
type AnalysisOutcome struct {
	Value        string `json:"value"`
	Reasoning    string `json:"reasoning"`
	UsedFallback bool   `json:"used_fallback"`
}

// PipelineResult composes the four stage outcomes into the pipeline's answer
// for one analysis request. It is created fresh per request and never mutated
// after construction.
type PipelineResult struct {
	Symbol       string          `json:"symbol"`
	Timestamp    time.Time       `json:"timestamp"`
	Decision     Decision        `json:"decision"`
	RiskScore    float64         `json:"risk_score"`
	Sentiment    float64         `json:"sentiment"`
	Table        AnalysisOutcome `json:"table_outcome"`
	News         AnalysisOutcome `json:"sentiment_outcome"`
	Synthesis    AnalysisOutcome `json:"decision_outcome"`
	Summary      AnalysisOutcome `json:"summary_outcome"`
	UsedFallback bool            `json:"used_fallback"`
}
