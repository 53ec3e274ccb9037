// Package tracker keeps the in-memory rolling record of inference attempts,
// graded outcomes, per-capability aggregates and connection health. Nothing
// here survives a process restart.
package tracker

import (
	"sync"
	"time"

	"TradePilot/internal/domain/models"
)

// DefaultCapacity caps each rolling collection.
const DefaultCapacity = 1000

// Snapshot is the read view handed to dashboards and the websocket hub.
type Snapshot struct {
	Stats       []models.CapabilityStats  `json:"stats"`
	Health      []models.ConnectionHealth `json:"health"`
	Predictions int                       `json:"prediction_count"`
	Outcomes    int                       `json:"outcome_count"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// Tracker is safe for concurrent use. Aggregates are maintained
// incrementally on each new record; health is last-write-wins per
// capability.
type Tracker struct {
	mu          sync.RWMutex
	capacity    int
	predictions *ring[models.InferenceRecord]
	outcomes    *ring[models.OutcomeRecord]
	stats       map[models.Capability]*aggregate
	health      map[models.Capability]models.ConnectionHealth
}

type aggregate struct {
	total        int
	successes    int
	totalLatency time.Duration
	lastUsed     time.Time
}

// New creates a tracker with the given per-collection capacity (DefaultCapacity
// when zero or negative).
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	t := &Tracker{
		capacity:    capacity,
		predictions: newRing[models.InferenceRecord](capacity),
		outcomes:    newRing[models.OutcomeRecord](capacity),
		stats:       make(map[models.Capability]*aggregate),
		health:      make(map[models.Capability]models.ConnectionHealth),
	}
	for _, cap := range models.Capabilities() {
		t.health[cap] = models.ConnectionHealth{Capability: cap, Status: models.StatusUnknown}
	}
	return t
}

// RecordAttempt appends one inference attempt and updates the capability's
// aggregates.
func (t *Tracker) RecordAttempt(rec models.InferenceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.predictions.push(rec)

	agg, ok := t.stats[rec.Capability]
	if !ok {
		agg = &aggregate{}
		t.stats[rec.Capability] = agg
	}
	agg.total++
	if rec.Success {
		agg.successes++
	}
	agg.totalLatency += rec.Latency
	agg.lastUsed = rec.Timestamp
}

// RecordOutcome appends a human-graded correctness mark.
func (t *Tracker) RecordOutcome(rec models.OutcomeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes.push(rec)
}

// SetHealth replaces the capability's connection health.
func (t *Tracker) SetHealth(h models.ConnectionHealth) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.health[h.Capability] = h
}

// Health returns the rolling health for one capability.
func (t *Tracker) Health(cap models.Capability) models.ConnectionHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if h, ok := t.health[cap]; ok {
		return h
	}
	return models.ConnectionHealth{Capability: cap, Status: models.StatusUnknown}
}

// AllHealth returns health for every capability in pipeline order.
func (t *Tracker) AllHealth() []models.ConnectionHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.ConnectionHealth, 0, len(t.health))
	for _, cap := range models.Capabilities() {
		out = append(out, t.health[cap])
	}
	return out
}

// Stats returns the per-capability aggregates in pipeline order.
func (t *Tracker) Stats() []models.CapabilityStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.CapabilityStats, 0, len(t.stats))
	for _, cap := range models.Capabilities() {
		agg, ok := t.stats[cap]
		if !ok {
			continue
		}
		s := models.CapabilityStats{
			Capability: cap,
			TotalCount: agg.total,
			LastUsed:   agg.lastUsed,
		}
		if agg.total > 0 {
			s.SuccessRate = float64(agg.successes) / float64(agg.total)
			s.ErrorRate = 1 - s.SuccessRate
			s.AverageLatency = agg.totalLatency / time.Duration(agg.total)
		}
		out = append(out, s)
	}
	return out
}

// Predictions returns the rolling prediction log, oldest first.
func (t *Tracker) Predictions() []models.InferenceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.predictions.items()
}

// Outcomes returns the rolling outcome log, oldest first.
func (t *Tracker) Outcomes() []models.OutcomeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.outcomes.items()
}

// Snapshot builds the read view in one lock acquisition.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Predictions: t.predictions.len(),
		Outcomes:    t.outcomes.len(),
		GeneratedAt: time.Now(),
	}
	for _, cap := range models.Capabilities() {
		snap.Health = append(snap.Health, t.health[cap])
		if agg, ok := t.stats[cap]; ok {
			s := models.CapabilityStats{Capability: cap, TotalCount: agg.total, LastUsed: agg.lastUsed}
			if agg.total > 0 {
				s.SuccessRate = float64(agg.successes) / float64(agg.total)
				s.ErrorRate = 1 - s.SuccessRate
				s.AverageLatency = agg.totalLatency / time.Duration(agg.total)
			}
			snap.Stats = append(snap.Stats, s)
		}
	}
	return snap
}

// ClearAll drops every record, aggregate and health entry.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.predictions.reset()
	t.outcomes.reset()
	t.stats = make(map[models.Capability]*aggregate)
	for _, cap := range models.Capabilities() {
		t.health[cap] = models.ConnectionHealth{Capability: cap, Status: models.StatusUnknown}
	}
}
