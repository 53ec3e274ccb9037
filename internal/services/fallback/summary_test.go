package fallback

import (
	"strings"
	"testing"
)

func TestSummaryEmptyInput(t *testing.T) {
	h := NewSummaryHeuristic()
	for _, in := range []string{"", "   ", "..."} {
		out := h.Extract(in)
		if out.Value != EmptySummaryMessage {
			t.Fatalf("input %q: got %q, want %q", in, out.Value, EmptySummaryMessage)
		}
		if !out.UsedFallback {
			t.Fatalf("expected fallback flag")
		}
	}
}

func TestSummarySingleSentence(t *testing.T) {
	h := NewSummaryHeuristic()
	out := h.Extract("Bitcoin rallied sharply overnight.")
	if out.Value != "Bitcoin rallied sharply overnight." {
		t.Fatalf("got %q", out.Value)
	}
}

func TestSummaryKeepsAtMostThree(t *testing.T) {
	h := NewSummaryHeuristic()
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("The market moved on heavy volume today. ")
	}
	out := h.Extract(b.String())
	if n := strings.Count(out.Value, "."); n != 3 {
		t.Fatalf("got %d sentences, want 3: %q", n, out.Value)
	}
}

func TestSummaryPreservesOriginalOrder(t *testing.T) {
	h := NewSummaryHeuristic()
	// the market/rally sentences share vocabulary and outscore the fillers
	narrative := "The market rally continued. Weather stayed mild. The market rally strengthened. Lunch seemed pleasant. The market rally broadened. Traffic ran slow. Birds flew south."
	out := h.Extract(narrative)

	first := strings.Index(out.Value, "continued")
	second := strings.Index(out.Value, "strengthened")
	third := strings.Index(out.Value, "broadened")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("expected the three rally sentences, got %q", out.Value)
	}
	if !(first < second && second < third) {
		t.Fatalf("sentences out of original order: %q", out.Value)
	}
	if strings.Contains(out.Value, "Weather") {
		t.Fatalf("low-relevance sentence kept: %q", out.Value)
	}
}

func TestSummaryShortInputKeepsCeilThird(t *testing.T) {
	h := NewSummaryHeuristic()
	out := h.Extract("Prices rose early. Prices fell late.")
	// ceil(2/3) = 1 sentence survives
	if n := strings.Count(out.Value, "."); n != 1 {
		t.Fatalf("got %d sentences, want 1: %q", n, out.Value)
	}
}
