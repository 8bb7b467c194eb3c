package records

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestString_NormalizesIdentifiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{"123", "123", true},
		{json.Number("123"), "123", true},
		{json.Number("123.0"), "123", true},
		{json.Number("12.5"), "12.5", true},
		{123.0, "123", true},
		{123, "123", true},
		{int64(456), "456", true},
		{nil, "", false},
	}
	for _, c := range cases {
		got, ok := String(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("String(%#v) = (%q,%v), want (%q,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFloat(t *testing.T) {
	t.Parallel()

	if f, err := Float(json.Number("30")); err != nil || f != 30 {
		t.Fatalf("Float(json 30) = %v, %v", f, err)
	}
	if f, err := Float(" 2.5 "); err != nil || f != 2.5 {
		t.Fatalf("Float(\" 2.5 \") = %v, %v", f, err)
	}
	if _, err := Float("abc"); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
	if _, err := Float(nil); err == nil {
		t.Fatalf("expected error for nil")
	}
}

func TestNewTable_ColumnUnionFirstSeen(t *testing.T) {
	t.Parallel()

	tbl := NewTable([]string{"b", "a"}, []Record{
		{"a": 1, "c": 2},
		{"d": 3, "b": 4},
	})
	want := []string{"b", "a", "c", "d"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, want)
	}
	if tbl.Len() != 2 {
		t.Fatalf("len = %d, want 2", tbl.Len())
	}
}

func TestConcat_SkipsNilAndUnionsSchema(t *testing.T) {
	t.Parallel()

	a := NewTable([]string{"x"}, []Record{{"x": 1}})
	b := NewTable([]string{"y"}, []Record{{"y": 2}})
	got := Concat(a, nil, b)
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
	if !reflect.DeepEqual(got.Columns, []string{"x", "y"}) {
		t.Fatalf("columns = %v", got.Columns)
	}
	if got := Concat(); got.Len() != 0 || len(got.Columns) != 0 {
		t.Fatalf("empty concat = %#v", got)
	}
}

func TestMissingAndIsNull(t *testing.T) {
	t.Parallel()

	tbl := NewTable([]string{"chain"}, nil)
	if m := tbl.Missing([]string{"chain", "npi"}); !reflect.DeepEqual(m, []string{"npi"}) {
		t.Fatalf("Missing = %v", m)
	}
	r := Record{"a": nil, "b": "x"}
	if !r.IsNull("a") || !r.IsNull("zzz") || r.IsNull("b") {
		t.Fatalf("IsNull mismatch for %#v", r)
	}
	var nilTable *Table
	if nilTable.Len() != 0 || nilTable.Has("a") {
		t.Fatalf("nil table should be empty")
	}
}
