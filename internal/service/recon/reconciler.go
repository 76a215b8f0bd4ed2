package recon

import (
	"github.com/shopspring/decimal"

	"salesrecon/internal/model"
)

// reconciledNumeric 对账表中需要与总计行保持一致的数值列
var reconciledNumeric = []string{
	model.ColFinalSaleUnits,
	model.ColInventory,
	model.ColClosed,
	model.ColInTransit,
}

// Reconcile 把库存与退货汇总按商品标识左连接到销售透视表，
// 连接后重算品牌小计与总计。
func Reconcile(pivot *model.Table, inv *InventorySummary, ret *ReturnsSummary) *model.Table {
	t := pivot.Clone()
	t.Name = model.TableReconciled

	// 1. 库存左连接，缺失补 0
	stock := inv.Lookup()
	t.AddColumn(model.ColInventory, func(r model.Row) any {
		if r.Kind != model.RowData {
			return decimal.Zero
		}
		return lookupOrZero(stock, r.Text(model.ColProductID)).Truncate(0)
	})

	// 2-3. 品牌小计与总计按数据行重算
	ReconcileTotals(t, model.ColBrand, []string{model.ColInventory})

	// 4. 退货已完成 / 在途数量
	closed := ret.Lookup(model.StatusClosed)
	transit := ret.Lookup(model.StatusInTransit)
	t.AddColumn(model.ColClosed, func(r model.Row) any {
		return lookupOrZero(closed, r.Text(model.ColProductID)).Round(0)
	})
	t.AddColumn(model.ColInTransit, func(r model.Row) any {
		return lookupOrZero(transit, r.Text(model.ColProductID)).Round(0)
	})

	// 5. 以全部数据行为准覆盖总计行
	ReconcileTotals(t, model.ColBrand, reconciledNumeric)
	return t
}

func lookupOrZero(m map[string]decimal.Decimal, id string) decimal.Decimal {
	if id == "" {
		return decimal.Zero
	}
	v, ok := m[id]
	if !ok {
		return decimal.Zero
	}
	return v
}
