package recon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"salesrecon/internal/model"
	"salesrecon/internal/parser"
)

// Normalizer 表归一化器：补齐/重命名各输入表的必需列，缺失时退化为默认值，从不返回错误
type Normalizer struct {
	resolver *parser.Resolver
	warnings []model.Warning
}

// NewNormalizer 创建归一化器
func NewNormalizer(resolver *parser.Resolver) *Normalizer {
	if resolver == nil {
		resolver = parser.NewResolver(0)
	}
	return &Normalizer{resolver: resolver}
}

// Warnings 返回归一化过程中吸收的异常
func (n *Normalizer) Warnings() []model.Warning {
	out := make([]model.Warning, len(n.warnings))
	copy(out, n.warnings)
	return out
}

func (n *Normalizer) warn(input string, kind model.WarningKind, column, msg string, count int) {
	n.warnings = append(n.warnings, model.Warning{
		Input:   input,
		Kind:    kind,
		Column:  column,
		Message: msg,
		Count:   count,
	})
}

func (n *Normalizer) noteResolution(input, want string, res parser.Resolution) {
	switch res.Rule {
	case parser.MatchPosition:
		n.warn(input, model.WarnPositionalPick, want, fmt.Sprintf("no header matched, using column %q by position", res.Column), 0)
	case parser.MatchFuzzy:
		n.warn(input, model.WarnMissingColumn, want, fmt.Sprintf("approximate header %q used", res.Column), 0)
	}
}

// NormalizeSales 归一化销售报表：保证存在 Product Id 与非负的 Final Sale Units
func (n *Normalizer) NormalizeSales(in *model.Table) *model.Table {
	t := in.Clone()
	t.Name = model.TableSales

	// 销售报表自带的品牌列让位给商品主数据
	t.RenameColumn(model.ColBrand, model.ColSalesBrand)

	n.ensureSalesID(t)

	units := n.resolver.Resolve(t.Columns, salesUnitsAliases)
	switch {
	case !units.Found():
		t.AddColumn(model.ColFinalSaleUnits, func(model.Row) any { return decimal.Zero })
		n.warn(InputSales, model.WarnMissingColumn, model.ColFinalSaleUnits, "column missing, defaulting every row to 0", len(t.Rows))
	case units.Column != model.ColFinalSaleUnits:
		n.noteResolution(InputSales, model.ColFinalSaleUnits, units)
		t.RenameColumn(units.Column, model.ColFinalSaleUnits)
	}

	bad := 0
	for i := range t.Rows {
		raw := t.Rows[i].Cells[model.ColFinalSaleUnits]
		v, ok := coerceNumber(raw)
		if !ok && !isBlank(raw) {
			bad++
		}
		if v.IsNegative() {
			v = decimal.Zero
		}
		t.Rows[i].Set(model.ColFinalSaleUnits, v)
	}
	if bad > 0 {
		n.warn(InputSales, model.WarnTypeCoercion, model.ColFinalSaleUnits, "non-numeric values treated as 0", bad)
	}
	return t
}

func (n *Normalizer) ensureSalesID(t *model.Table) {
	res := n.resolver.Resolve(t.Columns, salesIDAliases)
	switch {
	case res.Found() && res.Column == model.ColProductID:
	case res.Found():
		n.noteResolution(InputSales, model.ColProductID, res)
		t.RenameColumn(res.Column, model.ColProductID)
	default:
		first := ""
		if len(t.Columns) > 0 {
			first = t.Columns[0]
		}
		t.Columns = append([]string{model.ColProductID}, t.Columns...)
		for i := range t.Rows {
			t.Rows[i].Set(model.ColProductID, t.Rows[i].Text(first))
		}
		n.warn(InputSales, model.WarnPositionalPick, model.ColProductID, fmt.Sprintf("no identifier header, using first column %q", first), 0)
	}

	for i := range t.Rows {
		t.Rows[i].Set(model.ColProductID, normalizeID(t.Rows[i].Text(model.ColProductID)))
	}
}

// productMeta 商品主数据中的品牌信息
type productMeta struct {
	brand   string
	manager string
}

// ProductMaster 去重后的商品主数据查找表
type ProductMaster struct {
	byID       map[string]productMeta
	HasBrand   bool
	HasManager bool
}

// Lookup 按商品标识查询品牌与品牌经理；未找到返回 ok=false
func (pm *ProductMaster) Lookup(id string) (brand, manager string, ok bool) {
	if pm == nil {
		return "", "", false
	}
	m, ok := pm.byID[id]
	return m.brand, m.manager, ok
}

// Len 去重后的商品数
func (pm *ProductMaster) Len() int {
	if pm == nil {
		return 0
	}
	return len(pm.byID)
}

// NormalizeProductMaster 解析商品主数据的标识/品牌/品牌经理列，按标识去重（首条优先）
func (n *Normalizer) NormalizeProductMaster(in *model.Table) *ProductMaster {
	pm := &ProductMaster{byID: make(map[string]productMeta)}

	id := n.resolver.ResolveOr(in.Columns, pmIDAliases, pmIDPosition)
	if !id.Found() {
		n.warn(InputProductMaster, model.WarnMissingColumn, model.ColProductID, "no identifier column, product master ignored", 0)
		return pm
	}
	n.noteResolution(InputProductMaster, model.ColProductID, id)

	manager := n.resolver.ResolveOr(in.Columns, pmManagerAliases, pmManagerPosition)
	brand := n.resolver.ResolveOr(in.Columns, pmBrandAliases, pmBrandPosition)
	if manager.Column == id.Column {
		manager = parser.Resolution{Rule: parser.MatchNone}
	}
	if brand.Column == id.Column {
		brand = parser.Resolution{Rule: parser.MatchNone}
	}
	pm.HasBrand = brand.Found()
	pm.HasManager = manager.Found()

	if !pm.HasBrand {
		n.warn(InputProductMaster, model.WarnMissingColumn, model.ColBrand, "column missing, brands default to Unknown", 0)
	} else {
		n.noteResolution(InputProductMaster, model.ColBrand, brand)
	}
	if !pm.HasManager {
		n.warn(InputProductMaster, model.WarnMissingColumn, model.ColBrandManager, "column missing", 0)
	} else {
		n.noteResolution(InputProductMaster, model.ColBrandManager, manager)
	}

	for _, r := range in.Rows {
		key := normalizeID(r.Text(id.Column))
		if key == "" {
			continue
		}
		if _, seen := pm.byID[key]; seen {
			continue
		}
		m := productMeta{}
		if pm.HasBrand {
			m.brand = strings.TrimSpace(r.Text(brand.Column))
		}
		if pm.HasManager {
			m.manager = strings.TrimSpace(r.Text(manager.Column))
		}
		pm.byID[key] = m
	}
	return pm
}

// InventoryInput 归一化后的库存明细
type InventoryInput struct {
	Table     *model.Table
	IDColumn  string
	QtyColumn string
}

// NormalizeInventory 解析库存表的标识列（兜底第一列）与库存数量列（兜底最后一列）
func (n *Normalizer) NormalizeInventory(in *model.Table) *InventoryInput {
	id := n.resolver.ResolveOr(in.Columns, inventoryIDAliases, 0)
	qty := n.resolver.ResolveOr(in.Columns, inventoryQtyAliases, -1)
	if qty.Found() && qty.Column == id.Column {
		qty = parser.Resolution{Rule: parser.MatchNone}
	}

	idCol, qtyCol := id.Column, qty.Column
	if !id.Found() {
		idCol = defaultInventoryIDColumn
		n.warn(InputInventory, model.WarnMissingColumn, idCol, "no identifier column, all rows grouped under an empty identifier", len(in.Rows))
	} else {
		n.noteResolution(InputInventory, idCol, id)
	}
	if !qty.Found() {
		qtyCol = defaultInventoryQtyColumn
		n.warn(InputInventory, model.WarnMissingColumn, qtyCol, "no stock column, defaulting every row to 0", len(in.Rows))
	} else {
		n.noteResolution(InputInventory, qtyCol, qty)
	}

	out := model.NewTable(model.TableInventory, idCol, qtyCol)
	bad := 0
	for _, r := range in.Rows {
		raw, _ := r.Get(qty.Column)
		v, ok := coerceNumber(raw)
		if qty.Found() && !ok && !isBlank(raw) {
			bad++
		}
		out.AppendRow(model.RowData, map[string]any{
			idCol:  normalizeID(r.Text(id.Column)),
			qtyCol: v,
		})
	}
	if bad > 0 {
		n.warn(InputInventory, model.WarnTypeCoercion, qtyCol, "non-numeric values treated as 0", bad)
	}
	return &InventoryInput{Table: out, IDColumn: idCol, QtyColumn: qtyCol}
}

// ReturnsInput 归一化后的退货明细
type ReturnsInput struct {
	Table        *model.Table
	IDColumn     string
	StatusColumn string
	QtyColumn    string
}

// NormalizeReturns 解析退货表的标识/状态/数量列并规范化状态值
func (n *Normalizer) NormalizeReturns(in *model.Table) *ReturnsInput {
	id := n.resolver.ResolveOr(in.Columns, returnsIDAliases, 0)
	status := n.resolver.Resolve(in.Columns, returnsStatusAliases)
	qty := n.resolver.Resolve(in.Columns, returnsQtyAliases)

	idCol := id.Column
	if !id.Found() {
		idCol = returnsIDAliases[0]
		n.warn(InputReturns, model.WarnMissingColumn, idCol, "no identifier column", len(in.Rows))
	} else {
		n.noteResolution(InputReturns, idCol, id)
	}
	statusCol := status.Column
	if !status.Found() {
		statusCol = defaultReturnsStatusColumn
		n.warn(InputReturns, model.WarnMissingColumn, statusCol, "column missing, every row treated as closed", len(in.Rows))
	}
	qtyCol := qty.Column
	if !qty.Found() {
		qtyCol = defaultReturnsQtyColumn
		n.warn(InputReturns, model.WarnMissingColumn, qtyCol, "column missing, defaulting every row to 0", len(in.Rows))
	}

	out := model.NewTable(model.TableReturns, idCol, statusCol, qtyCol)
	bad, blank := 0, 0
	for _, r := range in.Rows {
		st := model.StatusClosed
		if status.Found() {
			st = NormalizeStatus(r.Text(status.Column))
			if st == "" {
				blank++
				continue
			}
		}
		raw, _ := r.Get(qty.Column)
		v, ok := coerceNumber(raw)
		if qty.Found() && !ok && !isBlank(raw) {
			bad++
		}
		out.AppendRow(model.RowData, map[string]any{
			idCol:     normalizeID(r.Text(id.Column)),
			statusCol: st,
			qtyCol:    v,
		})
	}
	if bad > 0 {
		n.warn(InputReturns, model.WarnTypeCoercion, qtyCol, "non-numeric values treated as 0", bad)
	}
	if blank > 0 {
		n.warn(InputReturns, model.WarnDroppedRows, statusCol, "rows with an empty status skipped", blank)
	}
	return &ReturnsInput{Table: out, IDColumn: idCol, StatusColumn: statusCol, QtyColumn: qtyCol}
}

// NormalizeStatus 退货状态转小写并映射同义词；幂等，空白返回空串
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if mapped, ok := statusSynonyms[s]; ok {
		return mapped
	}
	return s
}

func normalizeID(s string) string {
	return strings.TrimSpace(s)
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// coerceNumber 单元格转数值，非数值返回 (0, false)
func coerceNumber(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case string:
		return parser.ParseNumber(x)
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	default:
		return parser.ParseNumber(fmt.Sprint(x))
	}
}
