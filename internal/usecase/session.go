package usecase

import (
	"context"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/internal/service/tracker"
	xlogger "TradePilot/pkg/logger"
)

// TradingSession is the single process-wide facade over the pipeline, the
// execution gate and the performance tracker. Handlers depend on it rather
// than on the parts.
type TradingSession struct {
	pipeline  *SignalPipeline
	gate      *ExecutionGate
	tracker   *tracker.Tracker
	publisher domrepo.EventPublisher
	logger    *xlogger.Logger
}

// NewTradingSession wires the session. publisher may be nil when no broker
// is configured.
func NewTradingSession(pipeline *SignalPipeline, gate *ExecutionGate, trk *tracker.Tracker, publisher domrepo.EventPublisher, logger *xlogger.Logger) *TradingSession {
	return &TradingSession{
		pipeline:  pipeline,
		gate:      gate,
		tracker:   trk,
		publisher: publisher,
		logger:    logger,
	}
}

// Analyze runs the four-stage pipeline and publishes the analysis event.
func (s *TradingSession) Analyze(ctx context.Context, symbol string, snap models.MarketSnapshot, news models.NewsContext, query string, forceFallback bool) (models.PipelineResult, error) {
	result, err := s.pipeline.Analyze(ctx, symbol, snap, news, query, forceFallback)
	if err != nil {
		return result, err
	}
	s.publish(ctx, &models.TradingEvent{
		Type:      models.EventAnalysis,
		Symbol:    symbol,
		Timestamp: time.Now(),
		Analysis:  &result,
	})
	return result, nil
}

// Execute runs the pipeline, then feeds the decision through the gate.
func (s *TradingSession) Execute(ctx context.Context, symbol string, snap models.MarketSnapshot, news models.NewsContext, query string, forceFallback bool) (models.PipelineResult, models.ExecutionResult, error) {
	analysis, err := s.Analyze(ctx, symbol, snap, news, query, forceFallback)
	if err != nil {
		return analysis, models.ExecutionResult{}, err
	}

	confidence := confidenceFor(analysis)
	execution := s.gate.Execute(ctx, symbol, analysis.Decision, confidence)

	s.publish(ctx, &models.TradingEvent{
		Type:      models.EventExecution,
		Symbol:    symbol,
		Timestamp: time.Now(),
		Execution: &execution,
	})
	return analysis, execution, nil
}

// ExecuteDecision bypasses the pipeline and feeds a caller-provided decision
// through the gate.
func (s *TradingSession) ExecuteDecision(ctx context.Context, symbol string, decision models.Decision, confidence float64) models.ExecutionResult {
	execution := s.gate.Execute(ctx, symbol, decision, confidence)
	s.publish(ctx, &models.TradingEvent{
		Type:      models.EventExecution,
		Symbol:    symbol,
		Timestamp: time.Now(),
		Execution: &execution,
	})
	return execution
}

// Policy returns the gate's current policy.
func (s *TradingSession) Policy() models.TradingPolicy {
	return s.gate.Policy()
}

// UpdatePolicy applies a partial policy update and returns the new policy.
func (s *TradingSession) UpdatePolicy(req models.PolicyUpdateRequest) models.TradingPolicy {
	policy := s.gate.UpdatePolicy(req)
	if s.logger != nil {
		s.logger.Info("policy updated",
			xlogger.String("mode", string(policy.Mode)),
			xlogger.Bool("enabled", policy.Enabled),
			xlogger.Bool("test_mode", policy.TestMode),
		)
	}
	return policy
}

// RecordOutcome stores a graded outcome for a past prediction.
func (s *TradingSession) RecordOutcome(rec models.OutcomeRecord) {
	s.tracker.RecordOutcome(rec)
}

// Performance returns the tracker snapshot.
func (s *TradingSession) Performance() tracker.Snapshot {
	return s.tracker.Snapshot()
}

// ResetPerformance clears all tracked records and aggregates.
func (s *TradingSession) ResetPerformance() {
	s.tracker.ClearAll()
}

// Connections reports per-capability remote health.
func (s *TradingSession) Connections() []models.ConnectionHealth {
	return s.tracker.AllHealth()
}

// confidenceFor maps the risk score to a sizing confidence: riskier setups
// size smaller.
func confidenceFor(result models.PipelineResult) float64 {
	c := 1 - result.RiskScore
	if c < 0.1 {
		c = 0.1
	}
	return c
}

func (s *TradingSession) publish(ctx context.Context, ev *models.TradingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil && s.logger != nil {
		s.logger.Warn("event publish failed",
			xlogger.String("type", string(ev.Type)),
			xlogger.Error(err),
		)
	}
}
