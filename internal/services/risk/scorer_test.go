package risk

import (
	"math"
	"testing"

	"TradePilot/internal/domain/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoreNeutralBaseline(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	// MACD above signal is the only nudge: 0.5 - 0.05
	got := s.Score(models.MarketSnapshot{RSI: 50, MACD: 0.2, SignalLine: 0.1}, 0.5)
	if !almostEqual(got, 0.45) {
		t.Fatalf("got %f, want 0.45", got)
	}
}

func TestScoreOverboughtHighVolume(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	snap := models.MarketSnapshot{RSI: 75, MACD: 0.1, SignalLine: 0.05, Volume: 2_000_000}
	got := s.Score(snap, 0.5)
	// 0.5 + 0.1 - 0.05 + 0.05
	if !almostEqual(got, 0.6) {
		t.Fatalf("got %f, want 0.6", got)
	}
}

func TestScoreOversold(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	got := s.Score(models.MarketSnapshot{RSI: 25, MACD: 0.2, SignalLine: 0.1}, 0.5)
	// 0.5 - 0.1 - 0.05
	if !almostEqual(got, 0.35) {
		t.Fatalf("got %f, want 0.35", got)
	}
}

func TestScoreSentimentPull(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	snap := models.MarketSnapshot{RSI: 50, MACD: -0.1, SignalLine: 0}

	bearish := s.Score(snap, 0.0) // 0.5 + 0.05 + (0-0.5)*0.2
	if !almostEqual(bearish, 0.45) {
		t.Fatalf("bearish: got %f, want 0.45", bearish)
	}
	bullish := s.Score(snap, 1.0) // 0.5 + 0.05 + (1-0.5)*0.2
	if !almostEqual(bullish, 0.65) {
		t.Fatalf("bullish: got %f, want 0.65", bullish)
	}
}

func TestScoreStrictBoundaries(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	// RSI exactly at a threshold does not nudge, volume exactly at the
	// threshold does not nudge
	got := s.Score(models.MarketSnapshot{RSI: 70, MACD: 0.1, SignalLine: 0, Volume: 1_000_000}, 0.5)
	if !almostEqual(got, 0.45) {
		t.Fatalf("got %f, want 0.45", got)
	}
}

func TestScoreClamped(t *testing.T) {
	s := NewScorer(Thresholds{Overbought: 70, Oversold: 30, HighVolume: 100})
	high := s.Score(models.MarketSnapshot{RSI: 90, MACD: -1, SignalLine: 0, Volume: 1000}, 3.5)
	if high != 1 {
		t.Fatalf("got %f, want 1 (clamped)", high)
	}
	low := s.Score(models.MarketSnapshot{RSI: 10, MACD: 1, SignalLine: 0}, -3)
	if low != 0 {
		t.Fatalf("got %f, want 0 (clamped)", low)
	}
}
