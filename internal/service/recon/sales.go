package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"salesrecon/internal/model"
)

// SalesOptions 销售汇总选项
type SalesOptions struct {
	// BrandSubtotals 为每个品牌追加 "<品牌> (Total)" 小计行
	BrandSubtotals bool
}

// JoinProductMaster 左连接商品主数据，在 Product Id 之后插入 Brand / Brand Manager。
// 未匹配的行品牌为空（nil）。
func JoinProductMaster(sales *model.Table, pm *ProductMaster) *model.Table {
	t := sales.Clone()
	t.AddColumn(model.ColBrand, nil)
	t.AddColumn(model.ColBrandManager, nil)

	for i := range t.Rows {
		brand, manager, ok := pm.Lookup(t.Rows[i].Text(model.ColProductID))
		if ok && pm.HasBrand && brand != "" {
			t.Rows[i].Set(model.ColBrand, brand)
		}
		if ok && pm.HasManager && manager != "" {
			t.Rows[i].Set(model.ColBrandManager, manager)
		}
	}

	// 任一前置列缺失时 MoveColumnsAfter 不做修改
	t.MoveColumnsAfter(model.ColProductID, model.ColBrand, model.ColBrandManager)
	return t
}

type salesKey struct {
	brand string
	id    string
}

// AggregateSales 按 (品牌, 商品) 汇总销量，并追加总计行
func AggregateSales(sales *model.Table, opts SalesOptions) *model.Table {
	sums := make(map[salesKey]decimal.Decimal)
	keys := make([]salesKey, 0)
	for _, r := range sales.Rows {
		if r.Kind != model.RowData {
			continue
		}
		brand := r.Text(model.ColBrand)
		if brand == "" {
			brand = model.UnknownBrand
		}
		k := salesKey{brand: brand, id: r.Text(model.ColProductID)}
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] = sums[k].Add(r.Number(model.ColFinalSaleUnits))
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].brand != keys[j].brand {
			return keys[i].brand < keys[j].brand
		}
		return keys[i].id < keys[j].id
	})

	pivot := model.NewTable(model.TableSalesPivot, model.ColBrand, model.ColProductID, model.ColFinalSaleUnits)
	for i, k := range keys {
		pivot.AppendRow(model.RowData, map[string]any{
			model.ColBrand:          k.brand,
			model.ColProductID:      k.id,
			model.ColFinalSaleUnits: sums[k],
		})
		lastOfBrand := i == len(keys)-1 || keys[i+1].brand != k.brand
		if opts.BrandSubtotals && lastOfBrand {
			pivot.AppendRow(model.RowSubtotal, map[string]any{
				model.ColBrand:     model.SubtotalLabel(k.brand),
				model.ColProductID: "",
			})
		}
	}
	pivot.AppendRow(model.RowGrandTotal, map[string]any{
		model.ColBrand:     model.GrandTotalLabel,
		model.ColProductID: "",
	})

	ReconcileTotals(pivot, model.ColBrand, []string{model.ColFinalSaleUnits})
	return pivot
}
