// Package fallback holds the deterministic local heuristics that approximate
// each remote analysis capability. All of them are pure: identical inputs
// produce identical outcomes, and none of them can fail.
package fallback

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// TableHeuristic answers table queries by keyword intent detection and a
// direct scan of the relevant column.
type TableHeuristic struct{}

func NewTableHeuristic() *TableHeuristic { return &TableHeuristic{} }

type tableIntent int

const (
	intentNone tableIntent = iota
	intentMax
	intentMin
	intentAverage
	intentRSI
	intentMACD
)

// Interpret satisfies the capability interface; the heuristic cannot fail.
func (t *TableHeuristic) Interpret(_ context.Context, query string, table models.IndicatorTable) (models.AnalysisOutcome, error) {
	return t.Answer(query, table), nil
}

// Answer computes the fallback result for a query over a table. It is the
// pure core; Interpret adapts it to the capability interface.
func (t *TableHeuristic) Answer(query string, table models.IndicatorTable) models.AnalysisOutcome {
	switch detectIntent(query) {
	case intentRSI:
		return rsiAnswer(table)
	case intentMACD:
		return macdAnswer(table)
	case intentMax:
		return scanAnswer(query, table, "max")
	case intentMin:
		return scanAnswer(query, table, "min")
	case intentAverage:
		return scanAnswer(query, table, "average")
	default:
		return models.AnalysisOutcome{
			Value:        string(models.DecisionHold),
			Reasoning:    "No recognizable query intent; defaulting to HOLD",
			UsedFallback: true,
		}
	}
}

func detectIntent(query string) tableIntent {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "rsi"):
		return intentRSI
	case strings.Contains(q, "macd") || strings.Contains(q, "crossover"):
		return intentMACD
	case strings.Contains(q, "max") || strings.Contains(q, "highest"):
		return intentMax
	case strings.Contains(q, "min") || strings.Contains(q, "lowest"):
		return intentMin
	case strings.Contains(q, "average") || strings.Contains(q, "mean"):
		return intentAverage
	default:
		return intentNone
	}
}

// relevantColumn picks the column whose name appears in the query, falling
// back to the first column with a parseable numeric cell.
func relevantColumn(query string, table models.IndicatorTable) int {
	q := strings.ToLower(query)
	for i, col := range table.Columns {
		if col != "" && strings.Contains(q, strings.ToLower(col)) {
			return i
		}
	}
	for i := range table.Columns {
		for _, row := range table.Rows {
			if i < len(row) {
				if _, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64); err == nil {
					return i
				}
			}
		}
	}
	return -1
}

func columnValues(table models.IndicatorTable, col int) []float64 {
	vals := make([]float64, 0, len(table.Rows))
	for _, row := range table.Rows {
		if col < 0 || col >= len(row) {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err == nil {
			vals = append(vals, v)
		}
	}
	return vals
}

func scanAnswer(query string, table models.IndicatorTable, op string) models.AnalysisOutcome {
	col := relevantColumn(query, table)
	vals := columnValues(table, col)
	if len(vals) == 0 {
		return models.AnalysisOutcome{
			Value:        string(models.DecisionHold),
			Reasoning:    "No numeric data found for the query; defaulting to HOLD",
			UsedFallback: true,
		}
	}

	colName := "column"
	if col >= 0 && col < len(table.Columns) {
		colName = table.Columns[col]
	}

	var result float64
	switch op {
	case "max":
		// first occurrence wins ties
		result = vals[0]
		for _, v := range vals[1:] {
			if v > result {
				result = v
			}
		}
	case "min":
		result = vals[0]
		for _, v := range vals[1:] {
			if v < result {
				result = v
			}
		}
	case "average":
		var sum float64
		for _, v := range vals {
			sum += v
		}
		result = sum / float64(len(vals))
	}

	return models.AnalysisOutcome{
		Value:        strconv.FormatFloat(result, 'f', -1, 64),
		Reasoning:    fmt.Sprintf("Computed %s of %s over %d rows locally", op, colName, len(vals)),
		UsedFallback: true,
	}
}

func rsiAnswer(table models.IndicatorTable) models.AnalysisOutcome {
	col := relevantColumn("rsi", table)
	vals := columnValues(table, col)
	if len(vals) == 0 {
		return models.AnalysisOutcome{
			Value:        string(models.DecisionHold),
			Reasoning:    "No RSI values found; defaulting to HOLD",
			UsedFallback: true,
		}
	}

	rsi := vals[len(vals)-1]
	decision := models.DecisionHold
	switch {
	case rsi > 70:
		decision = models.DecisionSell
	case rsi < 30:
		decision = models.DecisionBuy
	}
	return models.AnalysisOutcome{
		Value:        string(decision),
		Reasoning:    fmt.Sprintf("RSI %.2f: >70 overbought (SELL), <30 oversold (BUY), otherwise HOLD", rsi),
		UsedFallback: true,
	}
}

func macdAnswer(table models.IndicatorTable) models.AnalysisOutcome {
	macdCol := relevantColumn("macd", table)
	sigCol := -1
	for i, col := range table.Columns {
		if strings.Contains(strings.ToLower(col), "signal") {
			sigCol = i
			break
		}
	}
	macd := columnValues(table, macdCol)
	sig := columnValues(table, sigCol)
	n := len(macd)
	if len(sig) < n {
		n = len(sig)
	}
	if n < 2 {
		return models.AnalysisOutcome{
			Value:        string(models.DecisionHold),
			Reasoning:    "Not enough MACD history for a crossover check; defaulting to HOLD",
			UsedFallback: true,
		}
	}

	prevDiff := macd[n-2] - sig[n-2]
	currDiff := macd[n-1] - sig[n-1]
	decision := models.DecisionHold
	reason := "No MACD crossover against the preceding bar"
	switch {
	case prevDiff <= 0 && currDiff > 0:
		decision = models.DecisionBuy
		reason = "Bullish MACD crossover against the preceding bar"
	case prevDiff >= 0 && currDiff < 0:
		decision = models.DecisionSell
		reason = "Bearish MACD crossover against the preceding bar"
	}
	return models.AnalysisOutcome{
		Value:        string(decision),
		Reasoning:    reason,
		UsedFallback: true,
	}
}

var _ domsvc.TableInterpreter = (*TableHeuristic)(nil)
