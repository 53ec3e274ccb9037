package fallback

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// EmptySummaryMessage is returned for input with no sentences.
const EmptySummaryMessage = "No content to summarize."

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {},
}

// SummaryHeuristic extracts the top-scoring sentences by word-frequency
// relevance, reassembled in original order.
type SummaryHeuristic struct{}

func NewSummaryHeuristic() *SummaryHeuristic { return &SummaryHeuristic{} }

// Summarize satisfies the capability interface; the heuristic cannot fail.
func (s *SummaryHeuristic) Summarize(_ context.Context, narrative string) (models.AnalysisOutcome, error) {
	return s.Extract(narrative), nil
}

// Extract is the pure core of the extractive summarizer.
func (s *SummaryHeuristic) Extract(narrative string) models.AnalysisOutcome {
	sentences := splitSentences(narrative)
	if len(sentences) == 0 {
		return models.AnalysisOutcome{
			Value:        EmptySummaryMessage,
			Reasoning:    "No content was found in the narrative",
			UsedFallback: true,
		}
	}
	if len(sentences) == 1 {
		return models.AnalysisOutcome{
			Value:        sentences[0],
			Reasoning:    "Single-sentence input returned verbatim",
			UsedFallback: true,
		}
	}

	freq := make(map[string]int)
	for _, sent := range sentences {
		for _, tok := range tokenize(sent) {
			if _, stop := stopWords[tok]; stop {
				continue
			}
			freq[tok]++
		}
	}

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, 0, len(sentences))
	for i, sent := range sentences {
		toks := tokenize(sent)
		if len(toks) == 0 {
			continue
		}
		var sum float64
		for _, tok := range toks {
			sum += float64(freq[tok])
		}
		// normalize by sentence length so long sentences do not dominate
		scores = append(scores, scored{index: i, score: sum / float64(len(toks))})
	}

	keep := len(sentences)/3 + boolToInt(len(sentences)%3 != 0) // ceil(n/3)
	if keep > 3 {
		keep = 3
	}
	if keep < 1 {
		keep = 1
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	top := scores
	if len(top) > keep {
		top = top[:keep]
	}
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	parts := make([]string, 0, len(top))
	for _, sc := range top {
		parts = append(parts, sentences[sc.index])
	}
	return models.AnalysisOutcome{
		Value:        strings.Join(parts, " "),
		Reasoning:    fmt.Sprintf("Extracted %d of %d sentences by word-frequency relevance", len(top), len(sentences)),
		UsedFallback: true,
	}
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s+".")
		}
	}
	return sentences
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ domsvc.Summarizer = (*SummaryHeuristic)(nil)
