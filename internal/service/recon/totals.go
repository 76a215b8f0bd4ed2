package recon

import (
	"github.com/shopspring/decimal"

	"salesrecon/internal/model"
)

// ReconcileTotals 依据普通数据行重算小计行与总计行。
//
// 小计行取 groupKey 列去掉 " (Total)" 后缀的基础标签，累加同标签的数据行；
// groupKey 为空时只重算总计行。只读取 RowData 行，重复调用结果不变。
func ReconcileTotals(t *model.Table, groupKey string, numeric []string) {
	grand := make(map[string]decimal.Decimal, len(numeric))
	groups := make(map[string]map[string]decimal.Decimal)

	for _, r := range t.Rows {
		if r.Kind != model.RowData {
			continue
		}
		var g map[string]decimal.Decimal
		if groupKey != "" {
			key := r.Text(groupKey)
			g = groups[key]
			if g == nil {
				g = make(map[string]decimal.Decimal, len(numeric))
				groups[key] = g
			}
		}
		for _, col := range numeric {
			v := r.Number(col)
			grand[col] = grand[col].Add(v)
			if g != nil {
				g[col] = g[col].Add(v)
			}
		}
	}

	for i := range t.Rows {
		row := &t.Rows[i]
		switch row.Kind {
		case model.RowSubtotal:
			if groupKey == "" {
				continue
			}
			sums := groups[model.BaseLabel(row.Text(groupKey))]
			for _, col := range numeric {
				row.Set(col, sums[col])
			}
		case model.RowGrandTotal:
			for _, col := range numeric {
				row.Set(col, grand[col])
			}
		}
	}
}
