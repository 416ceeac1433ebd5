package dataset

import (
	"reflect"
	"testing"
)

func TestNewTable_Validation(t *testing.T) {
	a := NewCategorical("a", []string{"x", "y"}, []string{"x", "y", "x"})
	short := NewNumeric("w", []float64{1, 2})
	if _, err := NewTable(a, short); err == nil {
		t.Fatal("expected row count mismatch error")
	}
	dup := NewNumeric("a", []float64{1, 2, 3})
	if _, err := NewTable(a, dup); err == nil {
		t.Fatal("expected duplicate column error")
	}
	if _, err := NewTable(); err == nil {
		t.Fatal("expected empty table error")
	}
}

func TestCategorical_UnknownLabelIsUnset(t *testing.T) {
	c := NewCategorical("q", []string{"x"}, []string{"x", "z", ""})
	if got := c.Unset(); got != 2 {
		t.Fatalf("unset = %d, want 2", got)
	}
	if _, ok := c.Label(1); ok {
		t.Fatal("label outside level set should be unset")
	}
}

func TestWithAndReplaceColumn(t *testing.T) {
	a := NewCategorical("a", []string{"x"}, []string{"x", "x"})
	w := NewNumeric("w", []float64{1, 2})
	tab, err := NewTable(a, w)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tab.WithColumn(NewNumeric("w", []float64{3, 4})); err == nil {
		t.Fatal("expected error adding existing column")
	}
	tab2, err := tab.WithColumn(NewCategorical("b", []string{"u"}, []string{"u", "u"}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tab2.Columns(), []string{"a", "w", "b"}) {
		t.Fatalf("columns = %v", tab2.Columns())
	}
	// Original table untouched.
	if len(tab.Columns()) != 2 {
		t.Fatalf("source table mutated: %v", tab.Columns())
	}
	tab3, err := tab2.ReplaceColumn("a", NewCategorical("a", []string{"y"}, []string{"y", "y"}))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tab3.Columns(), []string{"a", "w", "b"}) {
		t.Fatalf("replace moved column: %v", tab3.Columns())
	}
	c, _ := tab3.Column("a")
	if got, _ := c.Label(0); got != "y" {
		t.Fatalf("replaced label = %q, want y", got)
	}
}

func TestRowAccess(t *testing.T) {
	tab, err := NewTable(
		NewCategorical("q1", []string{"Approve", "Disapprove"}, []string{"Approve", ""}),
		NewNumeric("w", []float64{1, 1}),
	)
	if err != nil {
		t.Fatal(err)
	}
	r := tab.Row(0)
	if !r.Is("q1", "Approve") || r.Is("q1", "Disapprove") {
		t.Fatal("Row.Is mismatch")
	}
	if r.Is("w", "1") {
		t.Fatal("numeric column should not match labels")
	}
	if _, ok := tab.Row(1).Label("q1"); ok {
		t.Fatal("unset row should report no label")
	}
}
