package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"salesrecon/internal/model"
)

// ReturnsSummary 退货透视表：行=商品，列=状态
type ReturnsSummary struct {
	Table    *model.Table
	IDColumn string
	Statuses []string
}

// AggregateReturns 按 商品 x 状态 汇总退货数量，缺失组合补 0，
// 追加行合计列 "Grand Total" 与总计行
func AggregateReturns(in *ReturnsInput) *ReturnsSummary {
	cells := make(map[string]map[string]decimal.Decimal)
	ids := make([]string, 0)
	statusSet := make(map[string]struct{})

	for _, r := range in.Table.Rows {
		id := r.Text(in.IDColumn)
		st := r.Text(in.StatusColumn)
		if st == "" {
			continue
		}
		statusSet[st] = struct{}{}
		row, ok := cells[id]
		if !ok {
			row = make(map[string]decimal.Decimal)
			cells[id] = row
			ids = append(ids, id)
		}
		row[st] = row[st].Add(r.Number(in.QtyColumn))
	}
	sort.Strings(ids)

	statuses := make([]string, 0, len(statusSet))
	for st := range statusSet {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)

	columns := append([]string{in.IDColumn}, statuses...)
	columns = append(columns, model.ColGrandTotal)
	t := model.NewTable(model.TableReturns, columns...)

	for _, id := range ids {
		values := map[string]any{in.IDColumn: id}
		total := decimal.Zero
		for _, st := range statuses {
			v := cells[id][st]
			values[st] = v
			total = total.Add(v)
		}
		values[model.ColGrandTotal] = total
		t.AppendRow(model.RowData, values)
	}
	t.AppendRow(model.RowGrandTotal, map[string]any{
		in.IDColumn: model.GrandTotalLabel,
	})

	numeric := append(append([]string{}, statuses...), model.ColGrandTotal)
	ReconcileTotals(t, "", numeric)

	return &ReturnsSummary{Table: t, IDColumn: in.IDColumn, Statuses: statuses}
}

// Lookup 商品标识 -> 指定状态的退货数量；状态列不存在时返回空表
func (s *ReturnsSummary) Lookup(status string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	if !s.Table.HasColumn(status) || status == s.IDColumn {
		return out
	}
	for _, r := range s.Table.Rows {
		id := r.Text(s.IDColumn)
		if r.Kind != model.RowData || id == "" {
			continue
		}
		out[id] = r.Number(status)
	}
	return out
}
