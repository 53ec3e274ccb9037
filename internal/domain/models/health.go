package models

import "time"

// ConnectionStatus is the rolling health of one inference capability.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDegraded     ConnectionStatus = "degraded"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusUnknown      ConnectionStatus = "unknown"
)

// ConnectionHealth is updated by every inference attempt and read by
// dashboards. Last-write-wins per capability.
type ConnectionHealth struct {
	Capability  Capability       `json:"capability"`
	Status      ConnectionStatus `json:"status"`
	LastChecked time.Time        `json:"last_checked"`
	LastLatency time.Duration    `json:"last_latency_ms"`
	LastError   string           `json:"last_error,omitempty"`
}

// InferenceRecord is one tracked inference attempt, success or not.
type InferenceRecord struct {
	Capability Capability    `json:"capability"`
	Model      string        `json:"model,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Latency    time.Duration `json:"latency_ms"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

// OutcomeRecord is an optional human-graded correctness mark for a past
// prediction.
type OutcomeRecord struct {
	Capability Capability `json:"capability"`
	Timestamp  time.Time  `json:"timestamp"`
	Correct    bool       `json:"correct"`
	Note       string     `json:"note,omitempty"`
}

// CapabilityStats are incrementally maintained aggregates per capability.
type CapabilityStats struct {
	Capability     Capability    `json:"capability"`
	TotalCount     int           `json:"total_count"`
	SuccessRate    float64       `json:"success_rate"`
	AverageLatency time.Duration `json:"average_latency_ms"`
	ErrorRate      float64       `json:"error_rate"`
	LastUsed       time.Time     `json:"last_used"`
}
