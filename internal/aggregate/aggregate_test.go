package aggregate_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/ad1ttya/pollbar/internal/aggregate"
	"github.com/ad1ttya/pollbar/internal/dataset"
	"github.com/ad1ttya/pollbar/internal/recode"
)

const tol = 1e-9

func buildTable(t *testing.T, cols ...*dataset.Column) *dataset.Table {
	t.Helper()
	tab, err := dataset.NewTable(cols...)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tab
}

func shares(e *aggregate.Estimates) map[string]float64 {
	out := make(map[string]float64, len(e.Rows))
	for _, r := range e.Rows {
		k := r.Labels[0]
		for _, l := range r.Labels[1:] {
			k += "|" + l
		}
		out[k] = r.Share
	}
	return out
}

// The approval scenario: weights 2/1/1 split across three derived categories
// give grand-total shares of 0.5/0.25/0.25.
func TestGroupPercentages_GrandTotalScenario(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("q1", []string{"Approve", "Disapprove"}, []string{"Approve", "Approve", "Disapprove"}),
		dataset.NewCategorical("q1a", []string{"Very strongly", "Somewhat strongly"}, []string{"Very strongly", "Somewhat strongly", "Very strongly"}),
		dataset.NewNumeric("weight", []float64{2, 1, 1}),
	)
	tab, cov, err := recode.Derive(tab, recode.TrumpApproval())
	if err != nil || cov.Unset != 0 {
		t.Fatalf("derive: err=%v cov=%+v", err, cov)
	}
	e, err := aggregate.GroupPercentages(tab, []string{recode.ApprovalVar}, "weight", nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	got := shares(e)
	want := map[string]float64{
		"Strongly approve":     0.5,
		"Not strongly approve": 0.25,
		"Strongly disapprove":  0.25,
	}
	if len(got) != len(want) {
		t.Fatalf("shares = %v, want %v", got, want)
	}
	for k, w := range want {
		if math.Abs(got[k]-w) > tol {
			t.Fatalf("share[%s] = %v, want %v", k, got[k], w)
		}
	}
	if err := e.Check(tol); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestGroupPercentages_NormalizeWithinSubgroup(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes", "No"}, []string{"Yes", "No", "Yes", "Yes"}),
		dataset.NewCategorical("region", []string{"South", "West"}, []string{"South", "South", "West", "West"}),
		dataset.NewNumeric("weight", []float64{3, 1, 1, 1}),
	)
	e, err := aggregate.GroupPercentages(tab, []string{"vote", "region"}, "weight", []string{"region"})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	got := shares(e)
	if math.Abs(got["Yes|South"]-0.75) > tol || math.Abs(got["No|South"]-0.25) > tol {
		t.Fatalf("south shares = %v", got)
	}
	if math.Abs(got["Yes|West"]-1.0) > tol {
		t.Fatalf("west shares = %v", got)
	}
	if err := e.Check(tol); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestGroupPercentages_UnsetKeptInDenominator(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes", "No"}, []string{"Yes", "", "No", ""}),
		dataset.NewNumeric("weight", []float64{1, 1, 1, 1}),
	)
	e, err := aggregate.GroupPercentages(tab, []string{"vote"}, "weight", nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	got := shares(e)
	if math.Abs(got[aggregate.UnsetLabel]-0.5) > tol {
		t.Fatalf("unset share = %v, want 0.5", got[aggregate.UnsetLabel])
	}
	if err := e.Check(tol); err != nil {
		t.Fatalf("check: %v", err)
	}
	levels := e.Levels("vote")
	if levels[len(levels)-1] != aggregate.UnsetLabel {
		t.Fatalf("unset bucket should trail level order, got %v", levels)
	}
}

func TestGroupPercentages_ZeroWeightGroupIsZeroShare(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes", "No"}, []string{"Yes", "No"}),
		dataset.NewCategorical("region", []string{"South", "West"}, []string{"South", "West"}),
		dataset.NewNumeric("weight", []float64{1, 0}),
	)
	e, err := aggregate.GroupPercentages(tab, []string{"vote", "region"}, "weight", []string{"region"})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	got := shares(e)
	s, ok := got["No|West"]
	if !ok {
		t.Fatal("zero-weight partition missing from output")
	}
	if s != 0 || math.IsNaN(s) {
		t.Fatalf("zero-weight share = %v, want exactly 0", s)
	}
	if err := e.Check(tol); err != nil {
		t.Fatalf("check must skip zero-weight groups: %v", err)
	}
}

func TestGroupPercentages_RowOrderFollowsLevels(t *testing.T) {
	// Data arrives in reverse of the declared level order.
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes", "Lean yes", "No"}, []string{"No", "Lean yes", "Yes"}),
		dataset.NewNumeric("weight", []float64{1, 1, 1}),
	)
	e, err := aggregate.GroupPercentages(tab, []string{"vote"}, "weight", nil)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	var order []string
	for _, r := range e.Rows {
		order = append(order, r.Labels[0])
	}
	if !reflect.DeepEqual(order, []string{"Yes", "Lean yes", "No"}) {
		t.Fatalf("row order = %v", order)
	}
}

// Re-aggregating an estimate's shares as weights over the same keys must be a
// no-op: each normalization group already sums to 1.
func TestGroupPercentages_Idempotent(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes", "No"}, []string{"Yes", "No", "Yes", "No"}),
		dataset.NewCategorical("region", []string{"South", "West"}, []string{"South", "South", "West", "West"}),
		dataset.NewNumeric("weight", []float64{2.5, 1.5, 4, 2}),
	)
	first, err := aggregate.GroupPercentages(tab, []string{"vote", "region"}, "weight", []string{"region"})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	votes := make([]string, len(first.Rows))
	regions := make([]string, len(first.Rows))
	ws := make([]float64, len(first.Rows))
	for i, r := range first.Rows {
		votes[i] = r.Labels[0]
		regions[i] = r.Labels[1]
		ws[i] = r.Share
	}
	again := buildTable(t,
		dataset.NewCategorical("vote", first.Levels("vote"), votes),
		dataset.NewCategorical("region", first.Levels("region"), regions),
		dataset.NewNumeric("weight", ws),
	)
	second, err := aggregate.GroupPercentages(again, []string{"vote", "region"}, "weight", []string{"region"})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	a, b := shares(first), shares(second)
	if len(a) != len(b) {
		t.Fatalf("row sets differ: %v vs %v", a, b)
	}
	for k := range a {
		if math.Abs(a[k]-b[k]) > tol {
			t.Fatalf("share[%s] changed: %v -> %v", k, a[k], b[k])
		}
	}
}

func TestFacets(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes", "No"}, []string{"Yes", "No", "Yes"}),
		dataset.NewCategorical("region", []string{"South", "West"}, []string{"South", "South", "West"}),
		dataset.NewNumeric("weight", []float64{1, 1, 1}),
	)
	e, err := aggregate.GroupPercentages(tab, []string{"vote", "region"}, "weight", []string{"region"})
	if err != nil {
		t.Fatal(err)
	}
	facets, err := e.Facets("region")
	if err != nil {
		t.Fatal(err)
	}
	if len(facets) != 2 || facets[0].Label != "South" || facets[1].Label != "West" {
		t.Fatalf("facets = %+v", facets)
	}
	if len(facets[0].Rows) != 2 || len(facets[1].Rows) != 1 {
		t.Fatalf("facet rows = %d/%d", len(facets[0].Rows), len(facets[1].Rows))
	}
	if _, err := e.Facets("vote"); err != nil {
		t.Fatalf("primary key should also facet: %v", err)
	}
	if _, err := e.Facets("nope"); err == nil {
		t.Fatal("expected error for unknown facet key")
	}
}

func TestGroupPercentages_Validation(t *testing.T) {
	tab := buildTable(t,
		dataset.NewCategorical("vote", []string{"Yes"}, []string{"Yes"}),
		dataset.NewNumeric("weight", []float64{1}),
	)
	cases := []struct {
		name   string
		keys   []string
		weight string
		within []string
	}{
		{"no keys", nil, "weight", nil},
		{"too many keys", []string{"a", "b", "c"}, "weight", nil},
		{"unknown key", []string{"nope"}, "weight", nil},
		{"numeric key", []string{"weight"}, "weight", nil},
		{"duplicate key", []string{"vote", "vote"}, "weight", nil},
		{"unknown weight", []string{"vote"}, "nope", nil},
		{"categorical weight", []string{"vote"}, "vote", nil},
		{"within not a key", []string{"vote"}, "weight", []string{"region"}},
	}
	for _, tc := range cases {
		if _, err := aggregate.GroupPercentages(tab, tc.keys, tc.weight, tc.within); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
