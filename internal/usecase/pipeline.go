package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	domsvc "TradePilot/internal/domain/service"
	"TradePilot/internal/services/risk"
	"TradePilot/pkg/cache"
	xlogger "TradePilot/pkg/logger"
)

// SignalPipeline orchestrates the four analysis stages. Each stage is an
// ordered cascade: the remote capability (with alternates for the table
// stage), then the deterministic local heuristic. The pipeline itself never
// fails: every stage is guaranteed a result.
type SignalPipeline struct {
	tableRemotes []domsvc.TableInterpreter // primary + up to two alternates
	tableLocal   domsvc.TableInterpreter

	sentimentRemote domsvc.SentimentScorer
	sentimentLocal  domsvc.SentimentScorer

	decisionRemote domsvc.DecisionSynthesizer
	decisionLocal  domsvc.DecisionSynthesizer

	summaryRemote domsvc.Summarizer
	summaryLocal  domsvc.Summarizer

	scorer  *risk.Scorer
	metrics domrepo.Metrics
	logger  *xlogger.Logger

	cache    cache.Service
	cacheTTL time.Duration
}

// PipelineOption configures SignalPipeline.
type PipelineOption func(*SignalPipeline)

// WithResultCache caches pipeline results per symbol+snapshot for ttl.
func WithResultCache(c cache.Service, ttl time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// NewSignalPipeline builds the pipeline from its stage strategies. The local
// heuristics are required; remote strategies may be nil slices/values when
// the inference service is not configured.
func NewSignalPipeline(
	tableRemotes []domsvc.TableInterpreter,
	tableLocal domsvc.TableInterpreter,
	sentimentRemote, sentimentLocal domsvc.SentimentScorer,
	decisionRemote, decisionLocal domsvc.DecisionSynthesizer,
	summaryRemote, summaryLocal domsvc.Summarizer,
	scorer *risk.Scorer,
	metrics domrepo.Metrics,
	logger *xlogger.Logger,
	opts ...PipelineOption,
) *SignalPipeline {
	p := &SignalPipeline{
		tableRemotes:    tableRemotes,
		tableLocal:      tableLocal,
		sentimentRemote: sentimentRemote,
		sentimentLocal:  sentimentLocal,
		decisionRemote:  decisionRemote,
		decisionLocal:   decisionLocal,
		summaryRemote:   summaryRemote,
		summaryLocal:    summaryLocal,
		scorer:          scorer,
		metrics:         metrics,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze runs the four-stage cascade for one symbol. forceFallback skips
// every remote call and runs the local heuristics directly.
func (p *SignalPipeline) Analyze(ctx context.Context, symbol string, snap models.MarketSnapshot, news models.NewsContext, query string, forceFallback bool) (models.PipelineResult, error) {
	if query == "" {
		query = "What is the trading decision based on RSI?"
	}

	cacheKey := p.resultKey(symbol, snap, query)
	if p.cache != nil && !forceFallback {
		var cached models.PipelineResult
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	table := snapshotTable(snap)

	// Stage 1: table/indicator interpretation.
	tableOutcome := p.runTable(ctx, query, table, forceFallback)

	// Stage 2: sentiment.
	sentiment, sentimentOutcome := p.runSentiment(ctx, news, forceFallback)

	// Risk score, once sentiment is known.
	riskScore := p.scorer.Score(snap, sentiment)

	// Stage 3: decision synthesis.
	in := domsvc.DecisionInput{
		Snapshot:        snap,
		TableAnswer:     tableOutcome.Value,
		Sentiment:       sentiment,
		Risk:            riskScore,
		MarketCondition: marketCondition(snap),
	}
	decision, decisionOutcome := p.runDecision(ctx, in, forceFallback)

	// Stage 4: narrative summarization.
	narrative := p.buildNarrative(symbol, snap, tableOutcome, sentiment, decision, riskScore)
	summaryOutcome := p.runSummary(ctx, narrative, forceFallback)

	result := models.PipelineResult{
		Symbol:    symbol,
		Timestamp: time.Now(),
		Decision:  decision,
		RiskScore: riskScore,
		Sentiment: sentiment,
		Table:     tableOutcome,
		News:      sentimentOutcome,
		Synthesis: decisionOutcome,
		Summary:   summaryOutcome,
		UsedFallback: tableOutcome.UsedFallback || sentimentOutcome.UsedFallback ||
			decisionOutcome.UsedFallback || summaryOutcome.UsedFallback,
	}

	if p.metrics != nil {
		p.metrics.RecordDecision(symbol, string(decision))
		p.metrics.RecordRiskScore(symbol, riskScore)
	}
	if p.logger != nil {
		p.logger.Info("analysis complete",
			xlogger.String("symbol", symbol),
			xlogger.String("decision", string(decision)),
			xlogger.Any("risk", riskScore),
			xlogger.Bool("fallback", result.UsedFallback),
		)
	}

	if p.cache != nil && !forceFallback {
		if err := p.cache.Set(ctx, cacheKey, result, p.cacheTTL); err != nil && p.logger != nil {
			p.logger.Warn("result cache set failed", xlogger.Error(err))
		}
	}

	return result, nil
}

func (p *SignalPipeline) runTable(ctx context.Context, query string, table models.IndicatorTable, force bool) models.AnalysisOutcome {
	attempts := make([]attempt[models.AnalysisOutcome], 0, len(p.tableRemotes)+1)
	if !force {
		for i, remote := range p.tableRemotes {
			r := remote
			attempts = append(attempts, attempt[models.AnalysisOutcome]{
				name: fmt.Sprintf("remote-%d", i),
				run: func(ctx context.Context) (models.AnalysisOutcome, error) {
					return r.Interpret(ctx, query, table)
				},
			})
		}
	}
	attempts = append(attempts, attempt[models.AnalysisOutcome]{
		name: "local",
		run: func(ctx context.Context) (models.AnalysisOutcome, error) {
			return p.tableLocal.Interpret(ctx, query, table)
		},
	})

	outcome, idx, err := tryInOrder(ctx, attempts)
	if err != nil {
		// unreachable: the local heuristic cannot fail
		outcome = models.AnalysisOutcome{Value: string(models.DecisionHold), Reasoning: err.Error(), UsedFallback: true}
	}
	return p.finishStage(models.CapabilityTable, outcome, idx, force)
}

func (p *SignalPipeline) runSentiment(ctx context.Context, news models.NewsContext, force bool) (float64, models.AnalysisOutcome) {
	type scored struct {
		score   float64
		outcome models.AnalysisOutcome
	}

	attempts := make([]attempt[scored], 0, 2)
	if !force && p.sentimentRemote != nil {
		attempts = append(attempts, attempt[scored]{
			name: "remote",
			run: func(ctx context.Context) (scored, error) {
				s, o, err := p.sentimentRemote.Score(ctx, news)
				return scored{score: s, outcome: o}, err
			},
		})
	}
	attempts = append(attempts, attempt[scored]{
		name: "local",
		run: func(ctx context.Context) (scored, error) {
			s, o, err := p.sentimentLocal.Score(ctx, news)
			return scored{score: s, outcome: o}, err
		},
	})

	res, idx, err := tryInOrder(ctx, attempts)
	if err != nil {
		res = scored{score: 0.5, outcome: models.AnalysisOutcome{Value: "0.500", Reasoning: err.Error(), UsedFallback: true}}
	}
	return res.score, p.finishStage(models.CapabilitySentiment, res.outcome, idx, force)
}

func (p *SignalPipeline) runDecision(ctx context.Context, in domsvc.DecisionInput, force bool) (models.Decision, models.AnalysisOutcome) {
	type decided struct {
		decision models.Decision
		outcome  models.AnalysisOutcome
	}

	attempts := make([]attempt[decided], 0, 2)
	if !force && p.decisionRemote != nil {
		attempts = append(attempts, attempt[decided]{
			name: "remote",
			run: func(ctx context.Context) (decided, error) {
				d, o, err := p.decisionRemote.Synthesize(ctx, in)
				return decided{decision: d, outcome: o}, err
			},
		})
	}
	attempts = append(attempts, attempt[decided]{
		name: "local",
		run: func(ctx context.Context) (decided, error) {
			d, o, err := p.decisionLocal.Synthesize(ctx, in)
			return decided{decision: d, outcome: o}, err
		},
	})

	res, idx, err := tryInOrder(ctx, attempts)
	if err != nil {
		res = decided{decision: models.DecisionHold, outcome: models.AnalysisOutcome{Value: string(models.DecisionHold), Reasoning: err.Error(), UsedFallback: true}}
	}
	return res.decision, p.finishStage(models.CapabilityDecision, res.outcome, idx, force)
}

func (p *SignalPipeline) runSummary(ctx context.Context, narrative string, force bool) models.AnalysisOutcome {
	attempts := make([]attempt[models.AnalysisOutcome], 0, 2)
	if !force && p.summaryRemote != nil {
		attempts = append(attempts, attempt[models.AnalysisOutcome]{
			name: "remote",
			run: func(ctx context.Context) (models.AnalysisOutcome, error) {
				return p.summaryRemote.Summarize(ctx, narrative)
			},
		})
	}
	attempts = append(attempts, attempt[models.AnalysisOutcome]{
		name: "local",
		run: func(ctx context.Context) (models.AnalysisOutcome, error) {
			return p.summaryLocal.Summarize(ctx, narrative)
		},
	})

	outcome, idx, err := tryInOrder(ctx, attempts)
	if err != nil {
		outcome = models.AnalysisOutcome{Value: "", Reasoning: err.Error(), UsedFallback: true}
	}
	return p.finishStage(models.CapabilitySummary, outcome, idx, force)
}

// finishStage applies the fallback invariant: the flag is set whenever any
// remote attempt in the cascade failed, including forced-fallback runs.
func (p *SignalPipeline) finishStage(cap models.Capability, outcome models.AnalysisOutcome, idx int, force bool) models.AnalysisOutcome {
	if idx > 0 || force {
		outcome.UsedFallback = true
	}
	if outcome.UsedFallback && p.metrics != nil {
		p.metrics.RecordFallback(string(cap))
	}
	return outcome
}

// snapshotTable projects the snapshot into the tabular shape the table
// capability expects.
func snapshotTable(snap models.MarketSnapshot) models.IndicatorTable {
	return models.IndicatorTable{
		Columns: []string{"rsi", "macd", "signal_line", "volume", "price"},
		Rows: [][]string{{
			fmt.Sprintf("%g", snap.RSI),
			fmt.Sprintf("%g", snap.MACD),
			fmt.Sprintf("%g", snap.SignalLine),
			fmt.Sprintf("%g", snap.Volume),
			fmt.Sprintf("%g", snap.Price),
		}},
	}
}

// marketCondition derives the qualitative condition keyword consumed by the
// decision cascade's rule (d).
func marketCondition(snap models.MarketSnapshot) string {
	spread := snap.MACD - snap.SignalLine
	if snap.Price > 0 && (spread > snap.Price*0.001 || spread < -snap.Price*0.001) {
		return "volatile"
	}
	switch {
	case spread > 0:
		return "uptrend"
	case spread < 0:
		return "downtrend"
	default:
		return "sideways"
	}
}

func (p *SignalPipeline) buildNarrative(symbol string, snap models.MarketSnapshot, table models.AnalysisOutcome, sentiment float64, decision models.Decision, riskScore float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Market analysis for %s at price %.2f. ", symbol, snap.Price)
	fmt.Fprintf(&sb, "The indicator query answered: %s. ", table.Value)
	fmt.Fprintf(&sb, "RSI stands at %.2f while MACD %.4f compares to a signal line of %.4f. ", snap.RSI, snap.MACD, snap.SignalLine)
	fmt.Fprintf(&sb, "News sentiment scored %.3f on a zero to one scale. ", sentiment)
	fmt.Fprintf(&sb, "The computed risk score is %.3f. ", riskScore)
	fmt.Fprintf(&sb, "The synthesized trading decision is %s.", decision)
	return sb.String()
}

func (p *SignalPipeline) resultKey(symbol string, snap models.MarketSnapshot, query string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%g|%g|%g|%g|%g|%s", symbol, snap.RSI, snap.MACD, snap.SignalLine, snap.Volume, snap.Price, query)
	return fmt.Sprintf("analysis:%s:%x", symbol, h.Sum64())
}
