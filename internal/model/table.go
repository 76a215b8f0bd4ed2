package model

import (
	"github.com/shopspring/decimal"
)

// Table 内存表：有序列 + 有序行
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"-"`
}

// NewTable 创建空表
func NewTable(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    []Row{},
	}
}

// HasColumn 判断列是否存在（大小写敏感）
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex 返回列下标，不存在返回 -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AppendRow 追加一行
func (t *Table) AppendRow(kind RowKind, cells map[string]any) {
	if cells == nil {
		cells = make(map[string]any)
	}
	t.Rows = append(t.Rows, Row{Kind: kind, Cells: cells})
}

// AddColumn 在末尾追加列并为每一行填充默认值；列已存在时不做任何事
func (t *Table) AddColumn(name string, fill func(r Row) any) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		var v any
		if fill != nil {
			v = fill(t.Rows[i])
		}
		t.Rows[i].Set(name, v)
	}
}

// RenameColumn 重命名列，返回是否发生了重命名
func (t *Table) RenameColumn(from, to string) bool {
	idx := t.ColumnIndex(from)
	if idx < 0 || from == to || t.HasColumn(to) {
		return false
	}
	t.Columns[idx] = to
	for i := range t.Rows {
		if v, ok := t.Rows[i].Cells[from]; ok {
			t.Rows[i].Cells[to] = v
			delete(t.Rows[i].Cells, from)
		}
	}
	return true
}

// MoveColumnsAfter 把 names 依次移动到 anchor 之后。
// anchor 或任一列不存在时不做修改并返回 false。
func (t *Table) MoveColumnsAfter(anchor string, names ...string) bool {
	if !t.HasColumn(anchor) {
		return false
	}
	move := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == anchor || !t.HasColumn(n) {
			return false
		}
		move[n] = struct{}{}
	}

	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := move[c]; ok {
			continue
		}
		out = append(out, c)
		if c == anchor {
			out = append(out, names...)
		}
	}
	t.Columns = out
	return true
}

// DataRows 返回普通数据行（不含小计与总计）
func (t *Table) DataRows() []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Kind == RowData {
			out = append(out, r)
		}
	}
	return out
}

// GrandTotal 返回总计行下标，不存在返回 -1
func (t *Table) GrandTotal() int {
	for i, r := range t.Rows {
		if r.Kind == RowGrandTotal {
			return i
		}
	}
	return -1
}

// SumColumn 对普通数据行的某列求和
func (t *Table) SumColumn(col string) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range t.Rows {
		if r.Kind != RowData {
			continue
		}
		sum = sum.Add(r.Number(col))
	}
	return sum
}

// Records 以列顺序导出所有行，单元格转换为可序列化的值
func (t *Table) Records() [][]any {
	out := make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Values(t.Columns))
	}
	return out
}

// Clone 深拷贝表结构与单元格
func (t *Table) Clone() *Table {
	c := NewTable(t.Name, t.Columns...)
	c.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		c.Rows = append(c.Rows, r.Clone())
	}
	return c
}
