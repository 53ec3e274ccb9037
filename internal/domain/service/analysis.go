package service

import (
	"context"

	"TradePilot/internal/domain/models"
)

// TableInterpreter answers a natural-language query over a tabular projection
// of the market snapshot.
type TableInterpreter interface {
	Interpret(ctx context.Context, query string, table models.IndicatorTable) (models.AnalysisOutcome, error)
}

// SentimentScorer scores news text into [0,1], 0.5 being neutral.
type SentimentScorer interface {
	Score(ctx context.Context, news models.NewsContext) (float64, models.AnalysisOutcome, error)
}

// DecisionSynthesizer combines the upstream stage values into a trade action.
type DecisionSynthesizer interface {
	Synthesize(ctx context.Context, in DecisionInput) (models.Decision, models.AnalysisOutcome, error)
}

// DecisionInput carries everything stage three needs.
type DecisionInput struct {
	Snapshot        models.MarketSnapshot
	TableAnswer     string
	Sentiment       float64
	Risk            float64
	MarketCondition string
}

// Summarizer condenses a synthesized market narrative.
type Summarizer interface {
	Summarize(ctx context.Context, narrative string) (models.AnalysisOutcome, error)
}
