package excel

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"salesrecon/internal/model"
)

// ExportSheet 导出文件唯一的工作表名
const ExportSheet = "Sheet1"

// BuildWorkbook 把结果表写入单工作表工作簿：表头位于 A1，无索引列
func BuildWorkbook(t *model.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetRowStyle(ExportSheet, 1, 1, headerStyle)
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}

	for i, r := range t.Rows {
		values := r.Values(t.Columns)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
		for j, v := range values {
			if v == nil {
				continue
			}
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[j] {
				widths[j] = n
			}
		}
	}

	// 设置列宽
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(ExportSheet, col, col, columnWidth(w))
	}

	return f, nil
}

// WriteTable 把结果表以 xlsx 写入 w
func WriteTable(w io.Writer, t *model.Table) error {
	f, err := BuildWorkbook(t)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveTable 把结果表保存为 xlsx 文件
func SaveTable(path string, t *model.Table) error {
	f, err := BuildWorkbook(t)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func columnWidth(chars int) float64 {
	w := float64(chars) + 2
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}
