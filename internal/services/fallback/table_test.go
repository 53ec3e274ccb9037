package fallback

import (
	"testing"

	"TradePilot/internal/domain/models"
)

func rsiTable(values ...string) models.IndicatorTable {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v})
	}
	return models.IndicatorTable{Columns: []string{"rsi"}, Rows: rows}
}

func TestTableRSIBoundaries(t *testing.T) {
	h := NewTableHeuristic()

	cases := []struct {
		rsi  string
		want models.Decision
	}{
		{"71", models.DecisionSell},
		{"70", models.DecisionHold}, // boundary is strict
		{"30", models.DecisionHold},
		{"29", models.DecisionBuy},
	}
	for _, tc := range cases {
		out := h.Answer("What does the RSI say?", rsiTable(tc.rsi))
		if out.Value != string(tc.want) {
			t.Fatalf("rsi %s: got %s, want %s", tc.rsi, out.Value, tc.want)
		}
		if !out.UsedFallback {
			t.Fatalf("rsi %s: expected fallback flag", tc.rsi)
		}
	}
}

func TestTableMaxFirstOccurrenceWins(t *testing.T) {
	h := NewTableHeuristic()
	table := models.IndicatorTable{
		Columns: []string{"price"},
		Rows:    [][]string{{"10"}, {"42"}, {"42"}, {"7"}},
	}
	out := h.Answer("max price", table)
	if out.Value != "42" {
		t.Fatalf("got %q, want 42", out.Value)
	}
}

func TestTableAverage(t *testing.T) {
	h := NewTableHeuristic()
	table := models.IndicatorTable{
		Columns: []string{"volume"},
		Rows:    [][]string{{"10"}, {"20"}, {"30"}},
	}
	out := h.Answer("average volume", table)
	if out.Value != "20" {
		t.Fatalf("got %q, want 20", out.Value)
	}
}

func TestTableMACDCrossover(t *testing.T) {
	h := NewTableHeuristic()
	table := models.IndicatorTable{
		Columns: []string{"macd", "signal_line"},
		Rows: [][]string{
			{"-0.2", "0.1"},
			{"0.3", "0.1"},
		},
	}
	out := h.Answer("macd crossover", table)
	if out.Value != string(models.DecisionBuy) {
		t.Fatalf("got %s, want BUY", out.Value)
	}
}

func TestTableUnknownIntentDefaultsHold(t *testing.T) {
	h := NewTableHeuristic()
	out := h.Answer("tell me something", rsiTable("50"))
	if out.Value != string(models.DecisionHold) {
		t.Fatalf("got %s, want HOLD", out.Value)
	}
}

func TestTableMalformedCellsSkipped(t *testing.T) {
	h := NewTableHeuristic()
	table := models.IndicatorTable{
		Columns: []string{"price"},
		Rows:    [][]string{{"n/a"}, {"15"}, {""}},
	}
	out := h.Answer("min price", table)
	if out.Value != "15" {
		t.Fatalf("got %q, want 15", out.Value)
	}
}

func TestTableIdempotent(t *testing.T) {
	h := NewTableHeuristic()
	table := rsiTable("75")
	first := h.Answer("rsi", table)
	second := h.Answer("rsi", table)
	if first != second {
		t.Fatalf("heuristic not deterministic: %+v vs %+v", first, second)
	}
}
