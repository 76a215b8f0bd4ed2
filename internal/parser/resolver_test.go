package parser

import "testing"

func TestResolve_ExactBeatsFold(t *testing.T) {
	t.Parallel()

	cols := []string{"fsn", "FSN", "Qty"}
	got, ok := Resolve(cols, []string{"FSN"})
	if !ok || got != "FSN" {
		t.Fatalf("Resolve=%q,%v want FSN,true", got, ok)
	}
}

func TestResolve_CandidateOrderWinsWithinPass(t *testing.T) {
	t.Parallel()

	cols := []string{"Identifier", "FNS"}
	got, ok := Resolve(cols, []string{"FSN", "FNS", "Identifier"})
	if !ok || got != "FNS" {
		t.Fatalf("Resolve=%q,%v want FNS,true", got, ok)
	}
}

func TestResolve_CaseInsensitiveFallback(t *testing.T) {
	t.Parallel()

	cols := []string{"product id", " COMPLETION STATUS "}
	got, ok := Resolve(cols, []string{"Product Id"})
	if !ok || got != "product id" {
		t.Fatalf("Resolve=%q,%v", got, ok)
	}
	got, ok = Resolve(cols, []string{"Completion Status"})
	if !ok || got != " COMPLETION STATUS " {
		t.Fatalf("Resolve=%q,%v", got, ok)
	}
}

func TestResolve_Absent(t *testing.T) {
	t.Parallel()

	if got, ok := Resolve([]string{"a", "b"}, []string{"c"}); ok || got != "" {
		t.Fatalf("expected absent, got %q", got)
	}
	if _, ok := Resolve(nil, []string{"c"}); ok {
		t.Fatalf("expected absent for empty columns")
	}
}

func TestResolver_FuzzyDisabledByDefault(t *testing.T) {
	t.Parallel()

	r := NewResolver(0)
	if res := r.Resolve([]string{"Final Sales Unit"}, []string{"Final Sale Units"}); res.Found() {
		t.Fatalf("fuzzy match should be disabled, got %+v", res)
	}
}

func TestResolver_Fuzzy(t *testing.T) {
	t.Parallel()

	r := NewResolver(2)
	res := r.Resolve([]string{"Brand", "Final  Sale Unit"}, []string{"Final Sale Units"})
	if res.Rule != MatchFuzzy || res.Column != "Final  Sale Unit" {
		t.Fatalf("unexpected fuzzy resolution: %+v", res)
	}
	if res := r.Resolve([]string{"Quantity"}, []string{"Final Sale Units"}); res.Found() {
		t.Fatalf("distant header should not match: %+v", res)
	}
}

func TestResolver_ResolveOrPosition(t *testing.T) {
	t.Parallel()

	r := NewResolver(0)
	cols := []string{"c1", "c2", "c3", "c4", "c5", "c6"}

	if res := r.ResolveOr(cols, []string{"Brand"}, 5); res.Rule != MatchPosition || res.Column != "c6" {
		t.Fatalf("unexpected: %+v", res)
	}
	if res := r.ResolveOr(cols, []string{"Qty"}, -1); res.Column != "c6" {
		t.Fatalf("negative position should count from the end: %+v", res)
	}
	if res := r.ResolveOr(cols[:3], []string{"Brand"}, 5); res.Found() {
		t.Fatalf("out of range position should be absent: %+v", res)
	}
	if res := r.ResolveOr(cols, []string{"C2"}, 0); res.Rule != MatchFold || res.Column != "c2" {
		t.Fatalf("alias should beat position: %+v", res)
	}
}
