package recon

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"salesrecon/internal/model"
)

func newTable(cols []string, rows ...[]any) *model.Table {
	t := model.NewTable("test", cols...)
	for _, r := range rows {
		cells := make(map[string]any, len(cols))
		for i, c := range cols {
			if i < len(r) {
				cells[c] = r[i]
			}
		}
		t.AppendRow(model.RowData, cells)
	}
	return t
}

func assertRecords(t *testing.T, tbl *model.Table, want [][]any) {
	t.Helper()
	if diff := cmp.Diff(want, tbl.Records()); diff != "" {
		t.Fatalf("%s records mismatch (-want +got):\n%s", tbl.Name, diff)
	}
}

func assertColumns(t *testing.T, tbl *model.Table, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, tbl.Columns); diff != "" {
		t.Fatalf("%s columns mismatch (-want +got):\n%s", tbl.Name, diff)
	}
}

func hasWarning(ws []model.Warning, input string, kind model.WarningKind) bool {
	for _, w := range ws {
		if w.Input == input && w.Kind == kind {
			return true
		}
	}
	return false
}
