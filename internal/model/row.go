package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RowKind 行类型：普通数据 / 品牌小计 / 总计
type RowKind int

const (
	RowData RowKind = iota
	RowSubtotal
	RowGrandTotal
)

func (k RowKind) String() string {
	switch k {
	case RowSubtotal:
		return "subtotal"
	case RowGrandTotal:
		return "grand_total"
	default:
		return "data"
	}
}

// MarshalText 序列化为文本（JSON 中输出 data/subtotal/grand_total）
func (k RowKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const (
	// GrandTotalLabel 总计行的保留标签
	GrandTotalLabel = "Grand Total"
	// SubtotalSuffix 品牌小计行标签后缀
	SubtotalSuffix = " (Total)"
)

// SubtotalLabel 生成品牌小计标签，如 "Acme (Total)"
func SubtotalLabel(base string) string {
	return base + SubtotalSuffix
}

// BaseLabel 去掉小计后缀
func BaseLabel(label string) string {
	return strings.TrimSuffix(label, SubtotalSuffix)
}

// Row 一行数据
type Row struct {
	Kind  RowKind
	Cells map[string]any
}

// Get 读取单元格
func (r Row) Get(col string) (any, bool) {
	v, ok := r.Cells[col]
	return v, ok
}

// Set 写入单元格
func (r *Row) Set(col string, v any) {
	if r.Cells == nil {
		r.Cells = make(map[string]any)
	}
	r.Cells[col] = v
}

// Text 以字符串形式读取单元格，缺失/空值返回 ""
func (r Row) Text(col string) string {
	v, ok := r.Cells[col]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Number 以数值形式读取单元格，非数值返回 0
func (r Row) Number(col string) decimal.Decimal {
	v, ok := r.Cells[col]
	if !ok || v == nil {
		return decimal.Zero
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case float64:
		return decimal.NewFromFloat(x)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil || d.Exponent() > 18 || d.Exponent() < -18 {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Values 按列顺序导出单元格
func (r Row) Values(columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = CellValue(r.Cells[c])
	}
	return out
}

// Clone 拷贝行
func (r Row) Clone() Row {
	cells := make(map[string]any, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{Kind: r.Kind, Cells: cells}
}

// CellValue 转换为 JSON / Excel 友好的值：整数 decimal 输出 int64，其余输出 float64
func CellValue(v any) any {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return v
	}
	if d.IsInteger() {
		return d.IntPart()
	}
	return d.InexactFloat64()
}
