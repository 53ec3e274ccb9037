package fallback

import (
	"math"
	"testing"

	"TradePilot/internal/domain/models"
)

func TestSentimentNeutral(t *testing.T) {
	h := NewSentimentHeuristic()
	score, outcome := h.ScoreText(models.NewsContext{
		Headlines: []string{"The market traded flat today"},
	})
	if score != 0.5 {
		t.Fatalf("got %f, want 0.5", score)
	}
	if outcome.Value != "0.500" {
		t.Fatalf("got %q, want 0.500", outcome.Value)
	}
	if !outcome.UsedFallback {
		t.Fatalf("expected fallback flag")
	}
}

func TestSentimentAllPositive(t *testing.T) {
	h := NewSentimentHeuristic()
	score, _ := h.ScoreText(models.NewsContext{
		Headlines: []string{"Shares surge after upgrade"},
	})
	if score != 1 {
		t.Fatalf("got %f, want 1", score)
	}
}

func TestSentimentAllNegative(t *testing.T) {
	h := NewSentimentHeuristic()
	score, _ := h.ScoreText(models.NewsContext{
		Summaries: []string{"Stocks crash amid recession fear"},
	})
	if score != 0 {
		t.Fatalf("got %f, want 0", score)
	}
}

func TestSentimentWeightedMix(t *testing.T) {
	h := NewSentimentHeuristic()
	// surge 0.8 positive, down 0.3 negative
	score, outcome := h.ScoreText(models.NewsContext{
		Headlines: []string{"Surge then down"},
	})
	want := 0.8 / 1.1
	if math.Abs(score-want) > 1e-9 {
		t.Fatalf("got %f, want %f", score, want)
	}
	if outcome.Value != "0.727" {
		t.Fatalf("got %q, want 0.727", outcome.Value)
	}
}

func TestSentimentCaseAndPunctuation(t *testing.T) {
	h := NewSentimentHeuristic()
	score, _ := h.ScoreText(models.NewsContext{
		Headlines: []string{"RALLY!", "bullish."},
	})
	if score != 1 {
		t.Fatalf("got %f, want 1", score)
	}
}

func TestSentimentDeterministic(t *testing.T) {
	h := NewSentimentHeuristic()
	news := models.NewsContext{Headlines: []string{"gains and losses"}}
	s1, o1 := h.ScoreText(news)
	s2, o2 := h.ScoreText(news)
	if s1 != s2 || o1 != o2 {
		t.Fatalf("heuristic not deterministic")
	}
}
