package models

// MarketSnapshot is the numeric technical state for one symbol at one
// instant. It is produced by an external indicator calculator and consumed
// read-only by the analysis pipeline.
type MarketSnapshot struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	SignalLine float64 `json:"signal_line"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
}

// NewsContext carries the text inputs for sentiment analysis.
type NewsContext struct {
	Headlines []string `json:"headlines"`
	Summaries []string `json:"summaries"`
}

// IsEmpty reports whether there is no text to analyze at all.
func (n NewsContext) IsEmpty() bool {
	return len(n.Headlines) == 0 && len(n.Summaries) == 0
}

// IndicatorTable is a tabular projection of one or more snapshots, the shape
// expected by the table-interpretation capability. Rows are ordered oldest
// first; the last row is the current bar.
type IndicatorTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
