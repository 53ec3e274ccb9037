package inference

import (
	"context"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// Summarizer asks the remote summarization capability to condense a market
// narrative.
type Summarizer struct {
	client *Client
	model  string
}

func NewSummarizer(client *Client, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

type summaryReq struct {
	Text string `json:"text"`
}

type summaryResp struct {
	Summary string `json:"summary"`
}

func (s *Summarizer) Summarize(ctx context.Context, narrative string) (models.AnalysisOutcome, error) {
	var sr summaryResp
	err := s.client.Invoke(ctx, models.CapabilitySummary, s.model,
		summaryReq{Text: narrative},
		&sr,
		func() bool { return strings.TrimSpace(sr.Summary) != "" },
	)
	if err != nil {
		return models.AnalysisOutcome{}, err
	}
	return models.AnalysisOutcome{
		Value:     strings.TrimSpace(sr.Summary),
		Reasoning: "Remote summarization (" + s.model + ")",
	}, nil
}

var _ domsvc.Summarizer = (*Summarizer)(nil)
