package inference

import (
	"context"
	"fmt"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// DecisionSynthesizer asks the remote decision capability to combine the
// upstream stage values into a trade action. The decision token is parsed
// from the first line of the free-text completion, defaulting to HOLD.
type DecisionSynthesizer struct {
	client *Client
	model  string
}

func NewDecisionSynthesizer(client *Client, model string) *DecisionSynthesizer {
	return &DecisionSynthesizer{client: client, model: model}
}

type decisionReq struct {
	Prompt string `json:"prompt"`
}

type decisionResp struct {
	Text string `json:"text"`
}

func (d *DecisionSynthesizer) Synthesize(ctx context.Context, in domsvc.DecisionInput) (models.Decision, models.AnalysisOutcome, error) {
	var dr decisionResp
	err := d.client.Invoke(ctx, models.CapabilityDecision, d.model,
		decisionReq{Prompt: composeDecisionPrompt(in)},
		&dr,
		func() bool { return strings.TrimSpace(dr.Text) != "" },
	)
	if err != nil {
		return models.DecisionHold, models.AnalysisOutcome{}, err
	}

	decision := parseDecisionLine(dr.Text)
	return decision, models.AnalysisOutcome{
		Value:     string(decision),
		Reasoning: strings.TrimSpace(dr.Text),
	}, nil
}

func composeDecisionPrompt(in domsvc.DecisionInput) string {
	var sb strings.Builder
	sb.WriteString("You are a trading assistant. Decide BUY, SELL or HOLD.\n\n")
	fmt.Fprintf(&sb, "Indicator analysis answer: %s\n", in.TableAnswer)
	fmt.Fprintf(&sb, "News sentiment score (0=negative, 1=positive): %.3f\n", in.Sentiment)
	fmt.Fprintf(&sb, "Computed risk score (0=safe, 1=risky): %.3f\n", in.Risk)
	fmt.Fprintf(&sb, "RSI: %.2f, MACD: %.4f, Signal: %.4f, Volume: %.0f, Price: %.2f\n",
		in.Snapshot.RSI, in.Snapshot.MACD, in.Snapshot.SignalLine, in.Snapshot.Volume, in.Snapshot.Price)
	if in.MarketCondition != "" {
		fmt.Fprintf(&sb, "Market condition: %s\n", in.MarketCondition)
	}
	sb.WriteString("\nIf the risk score is above 0.7, be conservative and prefer HOLD.\n")
	sb.WriteString("Answer with the decision on the first line, then a short explanation.")
	return sb.String()
}

// parseDecisionLine extracts BUY/SELL/HOLD from the first line of a
// completion, defaulting to HOLD when no token is present.
func parseDecisionLine(text string) models.Decision {
	first := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first = text[:i]
	}
	upper := strings.ToUpper(first)
	switch {
	case strings.Contains(upper, string(models.DecisionBuy)):
		return models.DecisionBuy
	case strings.Contains(upper, string(models.DecisionSell)):
		return models.DecisionSell
	default:
		return models.DecisionHold
	}
}

var _ domsvc.DecisionSynthesizer = (*DecisionSynthesizer)(nil)
