package inference

import (
	"context"

	"TradePilot/internal/domain/models"
	domsvc "TradePilot/internal/domain/service"
)

// TableInterpreter asks the remote table capability to answer a query over an
// indicator table. One instance is built per model identifier so the pipeline
// can cascade through alternates.
type TableInterpreter struct {
	client *Client
	model  string
}

func NewTableInterpreter(client *Client, model string) *TableInterpreter {
	return &TableInterpreter{client: client, model: model}
}

type tableReq struct {
	Query   string     `json:"query"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type tableResp struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}

func (t *TableInterpreter) Interpret(ctx context.Context, query string, table models.IndicatorTable) (models.AnalysisOutcome, error) {
	var tr tableResp
	err := t.client.Invoke(ctx, models.CapabilityTable, t.model,
		tableReq{Query: query, Columns: table.Columns, Rows: table.Rows},
		&tr,
		func() bool { return tr.Answer != "" },
	)
	if err != nil {
		return models.AnalysisOutcome{}, err
	}
	reasoning := tr.Reasoning
	if reasoning == "" {
		reasoning = "Remote table interpretation (" + t.model + ")"
	}
	return models.AnalysisOutcome{Value: tr.Answer, Reasoning: reasoning}, nil
}

var _ domsvc.TableInterpreter = (*TableInterpreter)(nil)
