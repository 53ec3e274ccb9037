package fallback

import (
	"testing"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
	"TradePilot/internal/services/risk"
)

func decide(t *testing.T, in domsvc.DecisionInput) models.Decision {
	t.Helper()
	h := NewDecisionHeuristic(risk.DefaultThresholds())
	decision, outcome := h.Decide(in)
	if !outcome.UsedFallback {
		t.Fatalf("expected fallback flag")
	}
	if outcome.Value != string(decision) {
		t.Fatalf("outcome value %q does not match decision %s", outcome.Value, decision)
	}
	return decision
}

func TestDecideRiskOverride(t *testing.T) {
	// overbought RSI would say SELL, but the risk override wins
	got := decide(t, domsvc.DecisionInput{
		Snapshot: models.MarketSnapshot{RSI: 80},
		Risk:     0.8,
	})
	if got != models.DecisionHold {
		t.Fatalf("got %s, want HOLD", got)
	}
}

func TestDecideRSIBands(t *testing.T) {
	if got := decide(t, domsvc.DecisionInput{Snapshot: models.MarketSnapshot{RSI: 75}, Risk: 0.6}); got != models.DecisionSell {
		t.Fatalf("overbought: got %s, want SELL", got)
	}
	if got := decide(t, domsvc.DecisionInput{Snapshot: models.MarketSnapshot{RSI: 25}, Risk: 0.2}); got != models.DecisionBuy {
		t.Fatalf("oversold: got %s, want BUY", got)
	}
	// boundaries are strict
	if got := decide(t, domsvc.DecisionInput{Snapshot: models.MarketSnapshot{RSI: 70}, Risk: 0.2}); got == models.DecisionSell {
		t.Fatalf("RSI 70 must not trigger the overbought rule")
	}
}

func TestDecideMACDNeedsLowRisk(t *testing.T) {
	snap := models.MarketSnapshot{RSI: 50, MACD: 0.3, SignalLine: 0.1}
	if got := decide(t, domsvc.DecisionInput{Snapshot: snap, Risk: 0.4}); got != models.DecisionBuy {
		t.Fatalf("got %s, want BUY", got)
	}
	// same crossover with elevated risk falls through to the default
	if got := decide(t, domsvc.DecisionInput{Snapshot: snap, Risk: 0.6}); got != models.DecisionHold {
		t.Fatalf("got %s, want HOLD", got)
	}
}

func TestDecideMACDBelowSignal(t *testing.T) {
	got := decide(t, domsvc.DecisionInput{
		Snapshot: models.MarketSnapshot{RSI: 50, MACD: 0.05, SignalLine: 0.1},
		Risk:     0.3,
	})
	if got != models.DecisionSell {
		t.Fatalf("got %s, want SELL", got)
	}
}

func TestDecideMarketCondition(t *testing.T) {
	cases := []struct {
		cond string
		want models.Decision
	}{
		{"volatile", models.DecisionHold},
		{"Uptrend", models.DecisionBuy},
		{"downtrend", models.DecisionSell},
		{"sideways", models.DecisionHold},
	}
	for _, tc := range cases {
		got := decide(t, domsvc.DecisionInput{
			Snapshot:        models.MarketSnapshot{RSI: 50},
			Risk:            0.3,
			MarketCondition: tc.cond,
		})
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.cond, got, tc.want)
		}
	}
}

func TestDecideDefaultHold(t *testing.T) {
	got := decide(t, domsvc.DecisionInput{Snapshot: models.MarketSnapshot{RSI: 50}, Risk: 0.3})
	if got != models.DecisionHold {
		t.Fatalf("got %s, want HOLD", got)
	}
}
