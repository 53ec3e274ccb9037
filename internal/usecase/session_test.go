package usecase

import (
	"context"
	"errors"
	"testing"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
	"TradePilot/internal/service/tracker"
)

type capturePublisher struct {
	events []*models.TradingEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev *models.TradingEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func newTestSession(pub *capturePublisher) (*TradingSession, *fakeExchange) {
	pipeline := newTestPipeline([]domsvc.TableInterpreter{&fakeTable{value: "HOLD"}},
		&fakeSentiment{score: 0.5}, &fakeDecision{decision: models.DecisionBuy}, &fakeSummary{})
	ex := &fakeExchange{balance: 1000, price: 100}
	gate := NewExecutionGate(spotPolicy(), ex, nil, nil, nil)
	if pub == nil {
		return NewTradingSession(pipeline, gate, tracker.New(0), nil, nil), ex
	}
	return NewTradingSession(pipeline, gate, tracker.New(0), pub, nil), ex
}

func TestSessionExecutePublishesBothEvents(t *testing.T) {
	pub := &capturePublisher{}
	s, ex := newTestSession(pub)

	analysis, execution, err := s.Execute(context.Background(), "BTCUSDT", testSnapshot(), models.NewsContext{}, "rsi", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Decision != models.DecisionBuy {
		t.Fatalf("decision %s, want BUY", analysis.Decision)
	}
	if !execution.Success {
		t.Fatalf("execution failed: %+v", execution)
	}
	if ex.marketCalls != 1 {
		t.Fatalf("market calls %d, want 1", ex.marketCalls)
	}
	if len(pub.events) != 2 {
		t.Fatalf("got %d events, want analysis + execution", len(pub.events))
	}
	if pub.events[0].Type != models.EventAnalysis || pub.events[1].Type != models.EventExecution {
		t.Fatalf("event types %s/%s", pub.events[0].Type, pub.events[1].Type)
	}
}

func TestSessionConfidenceFromRisk(t *testing.T) {
	if got := confidenceFor(models.PipelineResult{RiskScore: 0.4}); got != 0.6 {
		t.Fatalf("got %f, want 0.6", got)
	}
	if got := confidenceFor(models.PipelineResult{RiskScore: 0.99}); got != 0.1 {
		t.Fatalf("got %f, want the 0.1 floor", got)
	}
}

func TestSessionSurvivesPublisherFailure(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	s, _ := newTestSession(pub)

	_, execution, err := s.Execute(context.Background(), "BTCUSDT", testSnapshot(), models.NewsContext{}, "rsi", false)
	if err != nil {
		t.Fatalf("publish failure must not fail the call: %v", err)
	}
	if !execution.Success {
		t.Fatalf("execution failed: %+v", execution)
	}
}

func TestSessionNilPublisher(t *testing.T) {
	s, _ := newTestSession(nil)
	res := s.ExecuteDecision(context.Background(), "BTCUSDT", models.DecisionSell, 0.5)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
}
