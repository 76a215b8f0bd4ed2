package recon

import (
	"testing"

	"salesrecon/internal/model"
)

func TestNormalizeSales_ClipsNegativeAndCoerces(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	in := newTable([]string{"Product Id", "Final Sale Units"},
		[]any{"A", "-5"},
		[]any{"B", "3"},
		[]any{"C", "abc"},
		[]any{"D", ""},
	)
	out := n.NormalizeSales(in)

	assertRecords(t, out, [][]any{
		{"A", int64(0)},
		{"B", int64(3)},
		{"C", int64(0)},
		{"D", int64(0)},
	})
	if !hasWarning(n.Warnings(), InputSales, model.WarnTypeCoercion) {
		t.Fatalf("expected coercion warning, got %+v", n.Warnings())
	}
	if got := in.Rows[0].Text("Final Sale Units"); got != "-5" {
		t.Fatalf("input table must not be mutated, got %q", got)
	}
}

func TestNormalizeSales_MissingUnitsDefaultsToZero(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	out := n.NormalizeSales(newTable([]string{"Product Id"}, []any{"A"}, []any{"B"}))

	assertColumns(t, out, "Product Id", "Final Sale Units")
	assertRecords(t, out, [][]any{{"A", int64(0)}, {"B", int64(0)}})
	if !hasWarning(n.Warnings(), InputSales, model.WarnMissingColumn) {
		t.Fatalf("expected missing column warning")
	}
}

func TestNormalizeSales_IdentifierAliasAndBrandRename(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	out := n.NormalizeSales(newTable([]string{"fsn", "final sale units", "Brand"},
		[]any{" A ", "2", "Old"},
	))

	assertColumns(t, out, "Product Id", "Final Sale Units", "Brand1")
	assertRecords(t, out, [][]any{{"A", int64(2), "Old"}})
}

func TestNormalizeSales_FallsBackToFirstColumn(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	out := n.NormalizeSales(newTable([]string{"Code", "Final Sale Units"},
		[]any{"X1", "4"},
	))

	assertColumns(t, out, "Product Id", "Code", "Final Sale Units")
	assertRecords(t, out, [][]any{{"X1", "X1", int64(4)}})
	if !hasWarning(n.Warnings(), InputSales, model.WarnPositionalPick) {
		t.Fatalf("expected positional warning")
	}
}

func TestNormalizeProductMaster_PositionalLayout(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	pm := n.NormalizeProductMaster(newTable([]string{"c1", "c2", "c3", "c4", "c5", "c6"},
		[]any{"A", "", "", "", "Alice", "Acme"},
		[]any{"A", "", "", "", "Bob", "Other"},
		[]any{"B", "", "", "", "Carol", "Beta"},
	))

	if !pm.HasBrand || !pm.HasManager {
		t.Fatalf("expected positional brand/manager, got %+v", pm)
	}
	if pm.Len() != 2 {
		t.Fatalf("expected dedupe to 2 ids, got %d", pm.Len())
	}
	brand, manager, ok := pm.Lookup("A")
	if !ok || brand != "Acme" || manager != "Alice" {
		t.Fatalf("first occurrence should win, got %q %q %v", brand, manager, ok)
	}
}

func TestNormalizeProductMaster_MissingBrand(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	pm := n.NormalizeProductMaster(newTable([]string{"FSN", "Title"}, []any{"A", "Widget"}))

	if pm.HasBrand || pm.HasManager {
		t.Fatalf("brand/manager should be absent: %+v", pm)
	}
	if _, _, ok := pm.Lookup("A"); !ok {
		t.Fatalf("identifier should still be indexed")
	}
}

func TestNormalizeInventory_PositionalFallback(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	inv := n.NormalizeInventory(newTable([]string{"Sku Code", "Warehouse", "On Hand"},
		[]any{"A", "W1", "10"},
		[]any{"B", "W1", "x"},
	))

	if inv.IDColumn != "Sku Code" || inv.QtyColumn != "On Hand" {
		t.Fatalf("unexpected columns: %q %q", inv.IDColumn, inv.QtyColumn)
	}
	assertRecords(t, inv.Table, [][]any{{"A", int64(10)}, {"B", int64(0)}})
	if !hasWarning(n.Warnings(), InputInventory, model.WarnTypeCoercion) {
		t.Fatalf("expected coercion warning")
	}
}

func TestNormalizeReturns_MissingStatusAndQuantity(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	ret := n.NormalizeReturns(newTable([]string{"FSN"}, []any{"A"}))

	assertColumns(t, ret.Table, "FSN", "Completion Status", "Quantity")
	assertRecords(t, ret.Table, [][]any{{"A", "closed", int64(0)}})
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Delivered":  "closed",
		" OPEN ":     "in_transit",
		"closed":     "closed",
		"in_transit": "in_transit",
		"Cancelled":  "cancelled",
		"":           "",
		"   ":        "",
	}
	for in, want := range cases {
		got := NormalizeStatus(in)
		if got != want {
			t.Fatalf("NormalizeStatus(%q)=%q, want %q", in, got, want)
		}
		if again := NormalizeStatus(got); again != got {
			t.Fatalf("NormalizeStatus not idempotent for %q: %q -> %q", in, got, again)
		}
	}
}

func TestNormalizeReturns_SkipsBlankStatus(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	ret := n.NormalizeReturns(newTable([]string{"FSN", "Completion Status", "Quantity"},
		[]any{"A", nil, "9"},
		[]any{"A", "  ", "4"},
		[]any{"A", "Delivered", "1"},
	))

	assertRecords(t, ret.Table, [][]any{{"A", "closed", int64(1)}})
	if !hasWarning(n.Warnings(), InputReturns, model.WarnDroppedRows) {
		t.Fatalf("expected dropped rows warning, got %+v", n.Warnings())
	}
}

func TestNormalizeProductMaster_SkipsEmptyIdentifier(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	pm := n.NormalizeProductMaster(newTable([]string{"FSN", "Brand Manager", "Brand"},
		[]any{"  ", "M", "Ghost"},
		[]any{nil, "M", "Ghost"},
		[]any{"A", "M", "Acme"},
	))

	if pm.Len() != 1 {
		t.Fatalf("expected only the non-empty identifier, got %d entries", pm.Len())
	}
	if _, _, ok := pm.Lookup(""); ok {
		t.Fatalf("empty identifier must not resolve to a product-master entry")
	}
}
