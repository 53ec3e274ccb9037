package models

import "time"

// EventType discriminates published trading events.
type EventType string

const (
	EventAnalysis  EventType = "analysis"
	EventExecution EventType = "execution"
)

// TradingEvent is the fire-and-forget observability record published after
// each completed analysis or execution attempt. It is a stream, not a ledger.
type TradingEvent struct {
	Type      EventType        `json:"type"`
	Symbol    string           `json:"symbol"`
	Timestamp time.Time        `json:"timestamp"`
	Analysis  *PipelineResult  `json:"analysis,omitempty"`
	Execution *ExecutionResult `json:"execution,omitempty"`
}
