package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"TradePilot/internal/domain/models"
)

type captureMonitor struct {
	records []models.InferenceRecord
	health  []models.ConnectionHealth
}

func (m *captureMonitor) RecordAttempt(rec models.InferenceRecord) { m.records = append(m.records, rec) }
func (m *captureMonitor) SetHealth(h models.ConnectionHealth)      { m.health = append(m.health, h) }

func (m *captureMonitor) lastHealth(t *testing.T) models.ConnectionHealth {
	t.Helper()
	if len(m.health) == 0 {
		t.Fatalf("no health update recorded")
	}
	return m.health[len(m.health)-1]
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestInvokeSuccess(t *testing.T) {
	var gotAuth string
	var gotReq invokeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"value":"BUY","reasoning":"remote"}}`))
	}))
	defer srv.Close()

	mon := &captureMonitor{}
	c := NewClient(srv.URL, "secret", nil, WithMonitor(mon))

	var out models.AnalysisOutcome
	err := c.Invoke(context.Background(), models.CapabilityTable, "analyst-v2", map[string]string{"q": "rsi"}, &out, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != "BUY" {
		t.Fatalf("decoded value %q, want BUY", out.Value)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotReq.CapabilityID != "table" || gotReq.Model != "analyst-v2" {
		t.Fatalf("request envelope %+v", gotReq)
	}
	if len(mon.records) != 1 || !mon.records[0].Success {
		t.Fatalf("records %+v", mon.records)
	}
	if h := mon.lastHealth(t); h.Status != models.StatusConnected {
		t.Fatalf("health %s, want connected", h.Status)
	}
}

func TestInvokeUnauthorized(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusUnauthorized, `{"detail":"bad key"}`))
	defer srv.Close()

	mon := &captureMonitor{}
	c := NewClient(srv.URL, "wrong", nil, WithMonitor(mon))

	err := c.Invoke(context.Background(), models.CapabilitySentiment, "m", nil, nil, nil)
	if !IsKind(err, KindUnauthorized) {
		t.Fatalf("got %v, want unauthorized", err)
	}
	if h := mon.lastHealth(t); h.Status != models.StatusDisconnected {
		t.Fatalf("health %s, want disconnected", h.Status)
	}
	if len(mon.records) != 1 || mon.records[0].Success {
		t.Fatalf("records %+v", mon.records)
	}
}

func TestInvokeRateLimitedDegrades(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusTooManyRequests, `{"detail":"slow down"}`))
	defer srv.Close()

	mon := &captureMonitor{}
	c := NewClient(srv.URL, "k", nil, WithMonitor(mon))

	err := c.Invoke(context.Background(), models.CapabilityDecision, "m", nil, nil, nil)
	if !IsKind(err, KindRateLimited) {
		t.Fatalf("got %v, want rate_limited", err)
	}
	if h := mon.lastHealth(t); h.Status != models.StatusDegraded {
		t.Fatalf("health %s, want degraded", h.Status)
	}
}

func TestInvokeServerErrorUnavailable(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusInternalServerError, `oops`))
	defer srv.Close()

	c := NewClient(srv.URL, "k", nil)
	err := c.Invoke(context.Background(), models.CapabilitySummary, "m", nil, nil, nil)
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("got %v, want unavailable", err)
	}
}

func TestInvokeNonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", nil)
	err := c.Invoke(context.Background(), models.CapabilityTable, "m", nil, nil, nil)
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("got %v, want unavailable", err)
	}
}

func TestInvokeErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, `{"error":"model overloaded"}`))
	defer srv.Close()

	mon := &captureMonitor{}
	c := NewClient(srv.URL, "k", nil, WithMonitor(mon))

	err := c.Invoke(context.Background(), models.CapabilityTable, "m", nil, nil, nil)
	if !IsKind(err, KindMalformed) {
		t.Fatalf("got %v, want malformed_response", err)
	}
	if h := mon.lastHealth(t); h.Status != models.StatusDegraded {
		t.Fatalf("health %s, want degraded", h.Status)
	}
}

func TestInvokeIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, `{"result":{"value":""}}`))
	defer srv.Close()

	mon := &captureMonitor{}
	c := NewClient(srv.URL, "k", nil, WithMonitor(mon))

	var out models.AnalysisOutcome
	err := c.Invoke(context.Background(), models.CapabilityTable, "m", nil, &out,
		func() bool { return out.Value != "" })
	if !IsKind(err, KindMalformed) {
		t.Fatalf("got %v, want malformed_response", err)
	}
	if h := mon.lastHealth(t); h.Status != models.StatusDegraded {
		t.Fatalf("health %s, want degraded", h.Status)
	}
}
