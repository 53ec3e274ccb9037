package inference

import (
	"context"
	"fmt"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// SentimentScorer asks the remote sentiment capability for a
// positive/negative score pair over the concatenated news text.
type SentimentScorer struct {
	client *Client
	model  string
}

func NewSentimentScorer(client *Client, model string) *SentimentScorer {
	return &SentimentScorer{client: client, model: model}
}

type sentimentReq struct {
	Text string `json:"text"`
}

type sentimentResp struct {
	Positive  float64 `json:"positive"`
	Negative  float64 `json:"negative"`
	Reasoning string  `json:"reasoning"`
}

func (s *SentimentScorer) Score(ctx context.Context, news models.NewsContext) (float64, models.AnalysisOutcome, error) {
	text := strings.Join(append(append([]string{}, news.Headlines...), news.Summaries...), "\n")

	var sr sentimentResp
	err := s.client.Invoke(ctx, models.CapabilitySentiment, s.model,
		sentimentReq{Text: text},
		&sr,
		func() bool { return sr.Positive+sr.Negative > 0 },
	)
	if err != nil {
		return 0, models.AnalysisOutcome{}, err
	}

	score := sr.Positive / (sr.Positive + sr.Negative)
	reasoning := sr.Reasoning
	if reasoning == "" {
		reasoning = fmt.Sprintf("Remote sentiment: positive=%.3f negative=%.3f", sr.Positive, sr.Negative)
	}
	return score, models.AnalysisOutcome{
		Value:     fmt.Sprintf("%.3f", score),
		Reasoning: reasoning,
	}, nil
}

var _ domsvc.SentimentScorer = (*SentimentScorer)(nil)
