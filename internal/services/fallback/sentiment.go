package fallback

import (
	"context"
	"fmt"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// Keyword weights in [0.3, 0.8]. Matching is case-insensitive on whole
// tokens after punctuation stripping.
var positiveTerms = map[string]float64{
	"surge":    0.8,
	"rally":    0.7,
	"bullish":  0.8,
	"upgrade":  0.7,
	"gain":     0.6,
	"gains":    0.6,
	"growth":   0.6,
	"profit":   0.6,
	"beat":     0.6,
	"optimism": 0.6,
	"record":   0.5,
	"strong":   0.5,
	"recovery": 0.5,
	"rise":     0.5,
	"rises":    0.5,
	"high":     0.4,
	"up":       0.3,
}

var negativeTerms = map[string]float64{
	"crash":     0.8,
	"plunge":    0.8,
	"bearish":   0.8,
	"downgrade": 0.7,
	"selloff":   0.7,
	"recession": 0.7,
	"loss":      0.6,
	"losses":    0.6,
	"fear":      0.6,
	"decline":   0.5,
	"declines":  0.5,
	"weak":      0.5,
	"drop":      0.5,
	"drops":     0.5,
	"fall":      0.5,
	"falls":     0.5,
	"miss":      0.5,
	"risk":      0.4,
	"down":      0.3,
}

// SentimentHeuristic scores news text by weighted keyword matching.
type SentimentHeuristic struct{}

func NewSentimentHeuristic() *SentimentHeuristic { return &SentimentHeuristic{} }

// Score satisfies the capability interface; the heuristic cannot fail.
func (s *SentimentHeuristic) Score(_ context.Context, news models.NewsContext) (float64, models.AnalysisOutcome, error) {
	score, outcome := s.ScoreText(news)
	return score, outcome, nil
}

// ScoreText is the pure core: positiveWeight/(positiveWeight+negativeWeight),
// 0.5 neutral when no keyword matches.
func (s *SentimentHeuristic) ScoreText(news models.NewsContext) (float64, models.AnalysisOutcome) {
	text := strings.Join(append(append([]string{}, news.Headlines...), news.Summaries...), " ")

	var pos, neg float64
	var posHits, negHits int
	for _, tok := range tokenize(text) {
		if w, ok := positiveTerms[tok]; ok {
			pos += w
			posHits++
		}
		if w, ok := negativeTerms[tok]; ok {
			neg += w
			negHits++
		}
	}

	if pos+neg == 0 {
		return 0.5, models.AnalysisOutcome{
			Value:        "0.500",
			Reasoning:    "No sentiment keywords matched; neutral 0.5",
			UsedFallback: true,
		}
	}

	score := pos / (pos + neg)
	return score, models.AnalysisOutcome{
		Value: fmt.Sprintf("%.3f", score),
		Reasoning: fmt.Sprintf("Keyword sentiment: %d positive (weight %.2f), %d negative (weight %.2f)",
			posHits, pos, negHits, neg),
		UsedFallback: true,
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

var _ domsvc.SentimentScorer = (*SentimentHeuristic)(nil)
