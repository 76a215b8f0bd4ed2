package recon

import (
	"context"
	"errors"
	"testing"

	"salesrecon/internal/model"
)

func sampleInputs() Inputs {
	return Inputs{
		Sales: newTable([]string{"Product Id", "Final Sale Units", "Brand"},
			[]any{"A", "4", "ignored"},
			[]any{"A", "-2", "ignored"},
			[]any{"B", "3", ""},
			[]any{"C", "5", ""},
			[]any{"Z", "1", ""},
		),
		ProductMaster: newTable([]string{"FNS", "Title", "Category", "Vertical", "Brand Manager", "Brand"},
			[]any{"A", "", "", "", "Alice", "Acme"},
			[]any{"B", "", "", "", "Alice", "Acme"},
			[]any{"C", "", "", "", "Bob", "Beta"},
		),
		Inventory: newTable([]string{"Flipkart's Identifier of the product", "Current stock count for your product"},
			[]any{"A", "10"},
			[]any{"A", "5"},
			[]any{"B", "7"},
			[]any{"Q", "100"},
		),
		Returns: newTable([]string{"FSN", "Completion Status", "Quantity"},
			[]any{"A", "Delivered", "3"},
			[]any{"A", "Open", "2"},
			[]any{" C ", "open", "1"},
			[]any{"Q", "delivered", "9"},
		),
	}
}

func TestRun_Reconciled(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), sampleInputs(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	assertColumns(t, res.Reconciled, "Brand", "Product Id", "Final Sale Units", "Inventory", "closed", "in_transit")
	assertRecords(t, res.Reconciled, [][]any{
		{"Acme", "A", int64(4), int64(15), int64(3), int64(2)},
		{"Acme", "B", int64(3), int64(7), int64(0), int64(0)},
		{"Beta", "C", int64(5), int64(0), int64(0), int64(1)},
		{"Unknown", "Z", int64(1), int64(0), int64(0), int64(0)},
		{"Grand Total", "", int64(13), int64(22), int64(3), int64(3)},
	})

	assertColumns(t, res.Sales, "Product Id", "Brand", "Brand Manager", "Final Sale Units", "Brand1")
	assertRecords(t, res.Inventory, [][]any{
		{"A", int64(15)},
		{"B", int64(7)},
		{"Q", int64(100)},
		{"Grand Total", int64(122)},
	})
	assertRecords(t, res.Returns, [][]any{
		{"A", int64(3), int64(2), int64(5)},
		{"C", int64(0), int64(1), int64(1)},
		{"Q", int64(9), int64(0), int64(9)},
		{"Grand Total", int64(12), int64(3), int64(15)},
	})

	counts := res.RowCounts()
	if counts[model.TableReconciled] != 5 || counts[model.TableSales] != 5 {
		t.Fatalf("unexpected row counts: %v", counts)
	}
}

func TestRun_BrandSubtotalsMatchPlainRows(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), sampleInputs(), Options{BrandSubtotals: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	plain := map[string]int64{}
	for _, r := range res.Reconciled.DataRows() {
		plain[r.Text(model.ColBrand)] += r.Number(model.ColInventory).IntPart()
	}

	subtotals := 0
	for _, r := range res.Reconciled.Rows {
		if r.Kind != model.RowSubtotal {
			continue
		}
		subtotals++
		base := model.BaseLabel(r.Text(model.ColBrand))
		if got := r.Number(model.ColInventory).IntPart(); got != plain[base] {
			t.Fatalf("subtotal %q inventory=%d, want %d", r.Text(model.ColBrand), got, plain[base])
		}
	}
	if subtotals != 3 {
		t.Fatalf("expected 3 brand subtotal rows, got %d", subtotals)
	}

	g := res.Reconciled.Rows[res.Reconciled.GrandTotal()]
	for _, col := range reconciledNumeric {
		if !g.Number(col).Equal(res.Reconciled.SumColumn(col)) {
			t.Fatalf("grand total %s=%s, want %s", col, g.Number(col), res.Reconciled.SumColumn(col))
		}
	}
}

func TestRun_ProductMasterWithoutBrand(t *testing.T) {
	t.Parallel()

	in := sampleInputs()
	in.ProductMaster = newTable([]string{"FSN", "Title"}, []any{"A", "Widget"})

	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, r := range res.SalesPivot.DataRows() {
		if got := r.Text(model.ColBrand); got != model.UnknownBrand {
			t.Fatalf("brand=%q, want Unknown", got)
		}
	}
	if !hasWarning(res.Warnings, InputProductMaster, model.WarnMissingColumn) {
		t.Fatalf("expected missing brand warning, got %+v", res.Warnings)
	}
}

func TestRun_LookupsAreTotal(t *testing.T) {
	t.Parallel()

	in := sampleInputs()
	in.Returns = newTable([]string{"FSN", "Quantity"}, []any{"A", "2"})
	in.Inventory = newTable([]string{"Something"})

	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, r := range res.Reconciled.Rows {
		for _, col := range []string{model.ColInventory, model.ColClosed, model.ColInTransit} {
			if v, ok := r.Get(col); !ok || v == nil {
				t.Fatalf("row %v missing %s", r.Cells, col)
			}
		}
	}
	// 无状态列时全部记为 closed
	if got := res.Reconciled.Rows[0].Number(model.ColClosed).IntPart(); got != 2 {
		t.Fatalf("closed[A]=%d, want 2", got)
	}
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	in := sampleInputs()
	in.Returns = nil

	_, err := Run(context.Background(), in, Options{})
	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Input != InputReturns || !errors.Is(err, ErrMissingInput) {
		t.Fatalf("unexpected error: %+v", pe)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, sampleInputs(), Options{})
	if res != nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got res=%v err=%v", res, err)
	}
}

func TestRun_ReportsStages(t *testing.T) {
	t.Parallel()

	var stages []string
	_, err := Run(context.Background(), sampleInputs(), Options{
		Progress: func(stage string) { stages = append(stages, stage) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{StageNormalize, StageSales, StageInventory, StageReturns, StageReconcile}
	if len(stages) != len(want) {
		t.Fatalf("stages=%v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stages=%v, want %v", stages, want)
		}
	}
}

func TestRun_BrandEndingInTotalSuffixStaysData(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Sales: newTable([]string{"Product Id", "Final Sale Units"},
			[]any{"A", "7"},
			[]any{"B", "3"},
		),
		ProductMaster: newTable([]string{"FSN", "Brand"},
			[]any{"A", "Foo (Total)"},
			[]any{"B", "Bar"},
		),
		Inventory: newTable([]string{"FSN", "Stock"}, []any{"A", "4"}),
		Returns:   newTable([]string{"FSN", "Completion Status", "Quantity"}, []any{"B", "Delivered", "1"}),
	}

	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertRecords(t, res.Reconciled, [][]any{
		{"Bar", "B", int64(3), int64(0), int64(1), int64(0)},
		{"Foo (Total)", "A", int64(7), int64(4), int64(0), int64(0)},
		{"Grand Total", "", int64(10), int64(4), int64(1), int64(0)},
	})
	if k := res.Reconciled.Rows[1].Kind; k != model.RowData {
		t.Fatalf("brand row re-tagged as %v", k)
	}

	res, err = Run(context.Background(), in, Options{BrandSubtotals: true})
	if err != nil {
		t.Fatalf("run with subtotals: %v", err)
	}
	for _, r := range res.Reconciled.Rows {
		if r.Kind == model.RowSubtotal && r.Text(model.ColBrand) == "Foo (Total) (Total)" {
			if got := r.Number(model.ColInventory).IntPart(); got != 4 {
				t.Fatalf("subtotal inventory=%d, want 4", got)
			}
			return
		}
	}
	t.Fatalf("missing subtotal row for brand %q", "Foo (Total)")
}

func TestRun_HugeExponentTreatedAsNonNumeric(t *testing.T) {
	t.Parallel()

	in := sampleInputs()
	in.Returns = newTable([]string{"FSN", "Completion Status", "Quantity"},
		[]any{"A", "Delivered", "1e200000000"},
		[]any{"A", "Delivered", "2"},
	)
	in.Inventory = newTable([]string{"FSN", "Stock"}, []any{"A", "1e-999999999"})

	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	a := res.Reconciled.Rows[0]
	if a.Text(model.ColProductID) != "A" {
		t.Fatalf("unexpected first row %v", a.Cells)
	}
	if got := a.Number(model.ColClosed).IntPart(); got != 2 {
		t.Fatalf("closed[A]=%d, want 2", got)
	}
	if !a.Number(model.ColInventory).IsZero() {
		t.Fatalf("inventory[A]=%s, want 0", a.Number(model.ColInventory))
	}
	if !hasWarning(res.Warnings, InputReturns, model.WarnTypeCoercion) ||
		!hasWarning(res.Warnings, InputInventory, model.WarnTypeCoercion) {
		t.Fatalf("expected coercion warnings, got %+v", res.Warnings)
	}
}

func TestRun_BlankReturnStatusNotCounted(t *testing.T) {
	t.Parallel()

	in := sampleInputs()
	in.Returns = newTable([]string{"FSN", "Completion Status", "Quantity"},
		[]any{"A", nil, "9"},
		[]any{"A", "Delivered", "1"},
	)

	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertColumns(t, res.Returns, "FSN", "closed", "Grand Total")
	assertRecords(t, res.Returns, [][]any{
		{"A", int64(1), int64(1)},
		{"Grand Total", int64(1), int64(1)},
	})
	if got := res.Reconciled.Rows[0].Number(model.ColClosed).IntPart(); got != 1 {
		t.Fatalf("closed[A]=%d, want 1", got)
	}
}

func TestRun_EmptyIdentifierStaysUnknown(t *testing.T) {
	t.Parallel()

	in := sampleInputs()
	in.Sales = newTable([]string{"Product Id", "Final Sale Units"},
		[]any{"A", "1"},
		[]any{"", "2"},
	)
	in.ProductMaster = newTable([]string{"FSN", "Brand"},
		[]any{"", "Ghost"},
		[]any{"A", "Acme"},
	)

	res, err := Run(context.Background(), in, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertRecords(t, res.SalesPivot, [][]any{
		{"Acme", "A", int64(1)},
		{"Unknown", "", int64(2)},
		{"Grand Total", "", int64(3)},
	})
}
