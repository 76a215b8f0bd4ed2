package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"salesrecon/internal/model"
)

// InventorySummary 按商品汇总的库存表
type InventorySummary struct {
	Table     *model.Table
	IDColumn  string
	QtyColumn string
}

// AggregateInventory 按商品标识汇总库存（空标识单独成组），取整后追加总计行
func AggregateInventory(in *InventoryInput) *InventorySummary {
	sums := make(map[string]decimal.Decimal)
	ids := make([]string, 0)
	for _, r := range in.Table.Rows {
		id := r.Text(in.IDColumn)
		if _, ok := sums[id]; !ok {
			ids = append(ids, id)
		}
		sums[id] = sums[id].Add(r.Number(in.QtyColumn))
	}
	sort.Strings(ids)

	t := model.NewTable(model.TableInventory, in.IDColumn, in.QtyColumn)
	for _, id := range ids {
		t.AppendRow(model.RowData, map[string]any{
			in.IDColumn:  id,
			in.QtyColumn: sums[id].Truncate(0),
		})
	}
	t.AppendRow(model.RowGrandTotal, map[string]any{
		in.IDColumn: model.GrandTotalLabel,
	})
	ReconcileTotals(t, "", []string{in.QtyColumn})

	return &InventorySummary{Table: t, IDColumn: in.IDColumn, QtyColumn: in.QtyColumn}
}

// Lookup 商品标识 -> 库存；不含总计行与空标识
func (s *InventorySummary) Lookup() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Table.Rows))
	for _, r := range s.Table.Rows {
		id := r.Text(s.IDColumn)
		if r.Kind != model.RowData || id == "" {
			continue
		}
		out[id] = r.Number(s.QtyColumn)
	}
	return out
}
