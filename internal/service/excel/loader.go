package excel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesrecon/internal/model"
	"salesrecon/internal/parser"
)

var (
	// ErrUnsupportedFormat 不支持的文件格式（如 BIFF 格式的 .xls）
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader 表头行不存在
	ErrNoHeader = errors.New("header row not found")
)

// LoadOptions 读取选项
type LoadOptions struct {
	// HeaderRow 表头所在行（从 0 开始）
	HeaderRow int
	// Sheet 优先读取的工作表，不存在时读取第一个工作表
	Sheet string
	// Encoding CSV 编码：utf-8 / windows-1252 / iso-8859-1
	Encoding string
	// Delimiter CSV 分隔符，0 表示自动识别
	Delimiter rune
}

// LoadFile 从磁盘读取表格
func LoadFile(path string, opts LoadOptions) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return LoadTable(f, filepath.Base(path), opts)
}

// LoadTable 按文件扩展名读取 CSV 或 Excel 表格
func LoadTable(r io.Reader, filename string, opts LoadOptions) (*model.Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		rows, err = readCSV(r, opts)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = readWorkbook(r, opts)
	case ".xls":
		return nil, fmt.Errorf("%s: legacy .xls workbooks are not readable, save as .xlsx: %w", filename, ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	t, err := buildTable(filename, rows, opts.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

func readWorkbook(r io.Reader, opts LoadOptions) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer wb.Close()

	sheet := pickSheet(wb.GetSheetList(), opts.Sheet)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// pickSheet 优先精确匹配，其次忽略大小写，最后回退到第一个工作表
func pickSheet(sheets []string, want string) string {
	if len(sheets) == 0 {
		return ""
	}
	if want != "" {
		for _, s := range sheets {
			if s == want {
				return s
			}
		}
		for _, s := range sheets {
			if strings.EqualFold(s, want) {
				return s
			}
		}
	}
	return sheets[0]
}

// buildTable 以 headerRow 行为表头构造表；空表头命名为 "Unnamed: N"，重名追加 ".1" ".2"，跳过空行
func buildTable(name string, rows [][]string, headerRow int) (*model.Table, error) {
	if headerRow < 0 {
		headerRow = 0
	}
	if len(rows) <= headerRow {
		return nil, fmt.Errorf("%w: need at least %d rows, got %d", ErrNoHeader, headerRow+1, len(rows))
	}

	header := rows[headerRow]
	width := len(header)
	for _, r := range rows[headerRow+1:] {
		if len(r) > width {
			width = len(r)
		}
	}

	columns := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		col := ""
		if i < len(header) {
			col = parser.NormalizeColumnName(header[i])
		}
		if col == "" {
			col = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[col]; dup {
			seen[col] = n + 1
			col = col + "." + strconv.Itoa(n+1)
		} else {
			seen[col] = 0
		}
		columns[i] = col
	}

	t := model.NewTable(name, columns...)
	for _, r := range rows[headerRow+1:] {
		if isEmptyRow(r) {
			continue
		}
		cells := make(map[string]any, width)
		for i, col := range columns {
			if i < len(r) && strings.TrimSpace(r[i]) != "" {
				cells[col] = r[i]
			} else {
				cells[col] = nil
			}
		}
		t.AppendRow(model.RowData, cells)
	}
	return t, nil
}

func isEmptyRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
