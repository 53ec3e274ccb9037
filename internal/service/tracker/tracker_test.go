package tracker

import (
	"fmt"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
)

func TestRollingEvictionOldestFirst(t *testing.T) {
	trk := New(3)
	for i := 0; i < 5; i++ {
		trk.RecordAttempt(models.InferenceRecord{
			Capability: models.CapabilityTable,
			Error:      fmt.Sprintf("attempt-%d", i),
		})
	}
	got := trk.Predictions()
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0].Error != "attempt-2" || got[2].Error != "attempt-4" {
		t.Fatalf("eviction order wrong: first %q last %q", got[0].Error, got[2].Error)
	}
}

func TestAggregatesSurviveEviction(t *testing.T) {
	trk := New(2)
	for i := 0; i < 10; i++ {
		trk.RecordAttempt(models.InferenceRecord{
			Capability: models.CapabilitySentiment,
			Success:    i%2 == 0,
			Latency:    100 * time.Millisecond,
		})
	}
	stats := trk.Stats()
	if len(stats) != 1 {
		t.Fatalf("got %d stats entries, want 1", len(stats))
	}
	s := stats[0]
	if s.TotalCount != 10 {
		t.Fatalf("total %d, want 10", s.TotalCount)
	}
	if s.SuccessRate != 0.5 || s.ErrorRate != 0.5 {
		t.Fatalf("rates %f/%f, want 0.5/0.5", s.SuccessRate, s.ErrorRate)
	}
	if s.AverageLatency != 100*time.Millisecond {
		t.Fatalf("avg latency %s, want 100ms", s.AverageLatency)
	}
}

func TestStatsPipelineOrder(t *testing.T) {
	trk := New(0)
	trk.RecordAttempt(models.InferenceRecord{Capability: models.CapabilitySummary, Success: true})
	trk.RecordAttempt(models.InferenceRecord{Capability: models.CapabilityTable, Success: true})
	stats := trk.Stats()
	if len(stats) != 2 {
		t.Fatalf("got %d stats entries, want 2", len(stats))
	}
	if stats[0].Capability != models.CapabilityTable || stats[1].Capability != models.CapabilitySummary {
		t.Fatalf("order wrong: %s, %s", stats[0].Capability, stats[1].Capability)
	}
}

func TestHealthLastWriteWins(t *testing.T) {
	trk := New(0)
	if h := trk.Health(models.CapabilityDecision); h.Status != models.StatusUnknown {
		t.Fatalf("initial status %s, want unknown", h.Status)
	}
	trk.SetHealth(models.ConnectionHealth{Capability: models.CapabilityDecision, Status: models.StatusConnected})
	trk.SetHealth(models.ConnectionHealth{Capability: models.CapabilityDecision, Status: models.StatusDegraded, LastError: "429"})

	h := trk.Health(models.CapabilityDecision)
	if h.Status != models.StatusDegraded || h.LastError != "429" {
		t.Fatalf("got %+v", h)
	}
	all := trk.AllHealth()
	if len(all) != len(models.Capabilities()) {
		t.Fatalf("got %d health entries, want %d", len(all), len(models.Capabilities()))
	}
}

func TestSnapshotCounts(t *testing.T) {
	trk := New(0)
	trk.RecordAttempt(models.InferenceRecord{Capability: models.CapabilityTable, Success: true})
	trk.RecordOutcome(models.OutcomeRecord{Capability: models.CapabilityTable, Correct: true})
	trk.RecordOutcome(models.OutcomeRecord{Capability: models.CapabilityTable, Correct: false})

	snap := trk.Snapshot()
	if snap.Predictions != 1 || snap.Outcomes != 2 {
		t.Fatalf("counts %d/%d, want 1/2", snap.Predictions, snap.Outcomes)
	}
	if len(snap.Health) != len(models.Capabilities()) {
		t.Fatalf("got %d health entries", len(snap.Health))
	}
	if snap.GeneratedAt.IsZero() {
		t.Fatalf("missing generated timestamp")
	}
}

func TestClearAll(t *testing.T) {
	trk := New(0)
	trk.RecordAttempt(models.InferenceRecord{Capability: models.CapabilityTable, Success: true})
	trk.RecordOutcome(models.OutcomeRecord{Capability: models.CapabilityTable, Correct: true})
	trk.SetHealth(models.ConnectionHealth{Capability: models.CapabilityTable, Status: models.StatusConnected})

	trk.ClearAll()

	if len(trk.Predictions()) != 0 || len(trk.Outcomes()) != 0 || len(trk.Stats()) != 0 {
		t.Fatalf("records survived reset")
	}
	if h := trk.Health(models.CapabilityTable); h.Status != models.StatusUnknown {
		t.Fatalf("health %s, want unknown after reset", h.Status)
	}
}
