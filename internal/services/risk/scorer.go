// Package risk computes a scalar risk score from technical and sentiment
// inputs. The scorer is a pure function with no hidden state.
package risk

import "TradePilot/internal/domain/models"

// Thresholds are the heuristic constants shared by the risk scorer and the
// decision fallback cascade. They are configurable but the defaults below
// are the documented behavior.
type Thresholds struct {
	Overbought       float64 // RSI above this is overbought (strict)
	Oversold         float64 // RSI below this is oversold (strict)
	ConservativeRisk float64 // above this the decision cascade forces HOLD
	BullishRisk      float64 // MACD-bullish entries require risk below this
	HighVolume       float64 // volume above this adds risk
}

// DefaultThresholds returns the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Overbought:       70,
		Oversold:         30,
		ConservativeRisk: 0.7,
		BullishRisk:      0.5,
		HighVolume:       1_000_000,
	}
}

// Scorer combines indicators and sentiment into a risk value in [0,1].
type Scorer struct {
	t Thresholds
}

func NewScorer(t Thresholds) *Scorer { return &Scorer{t: t} }

// Score starts at 0.5 and nudges per indicator, then clamps to [0,1]:
// +0.1 overbought RSI, -0.1 oversold RSI, -0.05 MACD above signal else
// +0.05, +0.05 high volume, +(sentiment-0.5)*0.2.
func (s *Scorer) Score(snap models.MarketSnapshot, sentiment float64) float64 {
	score := 0.5

	if snap.RSI > s.t.Overbought {
		score += 0.1
	} else if snap.RSI < s.t.Oversold {
		score -= 0.1
	}

	if snap.MACD > snap.SignalLine {
		score -= 0.05
	} else {
		score += 0.05
	}

	if snap.Volume > s.t.HighVolume {
		score += 0.05
	}

	score += (sentiment - 0.5) * 0.2

	return clamp01(score)
}

// Thresholds returns the scorer's configured constants.
func (s *Scorer) Thresholds() Thresholds { return s.t }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
