package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
	"TradePilot/internal/services/fallback"
	"TradePilot/internal/services/risk"
	"TradePilot/pkg/cache"
)

type fakeTable struct {
	calls int
	err   error
	value string
}

func (f *fakeTable) Interpret(_ context.Context, _ string, _ models.IndicatorTable) (models.AnalysisOutcome, error) {
	f.calls++
	if f.err != nil {
		return models.AnalysisOutcome{}, f.err
	}
	return models.AnalysisOutcome{Value: f.value, Reasoning: "remote"}, nil
}

type fakeSentiment struct {
	calls int
	err   error
	score float64
}

func (f *fakeSentiment) Score(_ context.Context, _ models.NewsContext) (float64, models.AnalysisOutcome, error) {
	f.calls++
	if f.err != nil {
		return 0, models.AnalysisOutcome{}, f.err
	}
	return f.score, models.AnalysisOutcome{Value: "remote"}, nil
}

type fakeDecision struct {
	calls    int
	err      error
	decision models.Decision
}

func (f *fakeDecision) Synthesize(_ context.Context, _ domsvc.DecisionInput) (models.Decision, models.AnalysisOutcome, error) {
	f.calls++
	if f.err != nil {
		return "", models.AnalysisOutcome{}, f.err
	}
	return f.decision, models.AnalysisOutcome{Value: string(f.decision)}, nil
}

type fakeSummary struct {
	calls int
	err   error
}

func (f *fakeSummary) Summarize(_ context.Context, _ string) (models.AnalysisOutcome, error) {
	f.calls++
	if f.err != nil {
		return models.AnalysisOutcome{}, f.err
	}
	return models.AnalysisOutcome{Value: "remote summary"}, nil
}

func newTestPipeline(tables []domsvc.TableInterpreter, s domsvc.SentimentScorer, d domsvc.DecisionSynthesizer, sum domsvc.Summarizer, opts ...PipelineOption) *SignalPipeline {
	t := risk.DefaultThresholds()
	return NewSignalPipeline(
		tables, fallback.NewTableHeuristic(),
		s, fallback.NewSentimentHeuristic(),
		d, fallback.NewDecisionHeuristic(t),
		sum, fallback.NewSummaryHeuristic(),
		risk.NewScorer(t),
		nil, nil,
		opts...,
	)
}

func testSnapshot() models.MarketSnapshot {
	return models.MarketSnapshot{RSI: 50, MACD: 0.1, SignalLine: 0.1, Volume: 500, Price: 100}
}

func TestAnalyzeAllRemotesSucceed(t *testing.T) {
	table := &fakeTable{value: "HOLD"}
	sent := &fakeSentiment{score: 0.6}
	dec := &fakeDecision{decision: models.DecisionBuy}
	sum := &fakeSummary{}
	p := newTestPipeline([]domsvc.TableInterpreter{table}, sent, dec, sum)

	res, err := p.Analyze(context.Background(), "BTCUSDT", testSnapshot(), models.NewsContext{}, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UsedFallback {
		t.Fatalf("fallback flag set with all remotes healthy")
	}
	if res.Decision != models.DecisionBuy {
		t.Fatalf("decision %s, want BUY", res.Decision)
	}
	if res.Sentiment != 0.6 {
		t.Fatalf("sentiment %f, want 0.6", res.Sentiment)
	}
	if table.calls != 1 || sent.calls != 1 || dec.calls != 1 || sum.calls != 1 {
		t.Fatalf("remote calls %d/%d/%d/%d, want one each", table.calls, sent.calls, dec.calls, sum.calls)
	}
}

func TestAnalyzeSingleStageFailureFlagsFallback(t *testing.T) {
	table := &fakeTable{err: errors.New("timeout")}
	sent := &fakeSentiment{score: 0.5}
	dec := &fakeDecision{decision: models.DecisionHold}
	sum := &fakeSummary{}
	p := newTestPipeline([]domsvc.TableInterpreter{table}, sent, dec, sum)

	res, err := p.Analyze(context.Background(), "BTCUSDT", testSnapshot(), models.NewsContext{}, "rsi", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedFallback {
		t.Fatalf("fallback flag not set after a remote failure")
	}
	if !res.Table.UsedFallback {
		t.Fatalf("table stage not flagged")
	}
	if res.News.UsedFallback || res.Synthesis.UsedFallback || res.Summary.UsedFallback {
		t.Fatalf("healthy stages flagged: %+v", res)
	}
}

func TestAnalyzeAlternateModelFlagsFallback(t *testing.T) {
	primary := &fakeTable{err: errors.New("unavailable")}
	alternate := &fakeTable{value: "BUY"}
	p := newTestPipeline([]domsvc.TableInterpreter{primary, alternate},
		&fakeSentiment{score: 0.5}, &fakeDecision{decision: models.DecisionHold}, &fakeSummary{})

	res, err := p.Analyze(context.Background(), "ETHUSDT", testSnapshot(), models.NewsContext{}, "rsi", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 1 || alternate.calls != 1 {
		t.Fatalf("calls %d/%d, want 1/1", primary.calls, alternate.calls)
	}
	if res.Table.Value != "BUY" {
		t.Fatalf("table value %q, want the alternate's answer", res.Table.Value)
	}
	if !res.Table.UsedFallback {
		t.Fatalf("second-attempt success must still flag fallback")
	}
}

func TestAnalyzeForceFallbackSkipsRemotes(t *testing.T) {
	table := &fakeTable{value: "HOLD"}
	sent := &fakeSentiment{score: 0.9}
	dec := &fakeDecision{decision: models.DecisionBuy}
	sum := &fakeSummary{}
	p := newTestPipeline([]domsvc.TableInterpreter{table}, sent, dec, sum)

	res, err := p.Analyze(context.Background(), "BTCUSDT", testSnapshot(), models.NewsContext{}, "rsi", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.calls != 0 || sent.calls != 0 || dec.calls != 0 || sum.calls != 0 {
		t.Fatalf("remotes called under forced fallback: %d/%d/%d/%d", table.calls, sent.calls, dec.calls, sum.calls)
	}
	if !res.UsedFallback {
		t.Fatalf("forced run must flag fallback")
	}
}

func TestAnalyzeLocalsOnly(t *testing.T) {
	p := newTestPipeline(nil, nil, nil, nil)
	res, err := p.Analyze(context.Background(), "BTCUSDT", testSnapshot(), models.NewsContext{}, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Decision.Valid() {
		t.Fatalf("invalid decision %q", res.Decision)
	}
	if !res.UsedFallback {
		t.Fatalf("heuristic-only run must flag fallback")
	}
}

func TestAnalyzeResultCache(t *testing.T) {
	table := &fakeTable{value: "HOLD"}
	p := newTestPipeline([]domsvc.TableInterpreter{table},
		&fakeSentiment{score: 0.5}, &fakeDecision{decision: models.DecisionHold}, &fakeSummary{},
		WithResultCache(cache.NewMemoryCache(), time.Minute))

	snap := testSnapshot()
	if _, err := p.Analyze(context.Background(), "BTCUSDT", snap, models.NewsContext{}, "rsi", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Analyze(context.Background(), "BTCUSDT", snap, models.NewsContext{}, "rsi", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.calls != 1 {
		t.Fatalf("remote called %d times, want 1 (second run served from cache)", table.calls)
	}

	// a different snapshot misses the cache
	snap.RSI = 60
	if _, err := p.Analyze(context.Background(), "BTCUSDT", snap, models.NewsContext{}, "rsi", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.calls != 2 {
		t.Fatalf("remote called %d times, want 2", table.calls)
	}
}
