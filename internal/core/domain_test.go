package core

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"Debit", Debit, true},
		{"Credit", Credit, true},
		{" Credit ", Credit, true},
		{"debit", "", false},
		{"DR", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDirection(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDirection) {
			t.Fatalf("%q expected ErrInvalidDirection, got %v", tc.in, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:      time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Details:   "Walmart",
		Amount:    decimal.NewFromInt(50),
		Direction: Debit,
		Category:  Uncategorized,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Details: "a", Amount: decimal.NewFromInt(1), Direction: Debit},
		{Date: good.Date, Details: " ", Amount: decimal.NewFromInt(1), Direction: Debit},
		{Date: good.Date, Details: "a", Amount: decimal.NewFromInt(-1), Direction: Debit},
		{Date: good.Date, Details: "a", Amount: decimal.NewFromInt(1), Direction: "Sideways"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRuleSetNormalize(t *testing.T) {
	rs := RuleSet{{Name: "Groceries", Keywords: []string{"walmart"}}}
	got := rs.Normalize()
	if len(got) != 2 || got[0].Name != Uncategorized || got[1].Name != "Groceries" {
		t.Fatalf("unexpected normalized set: %+v", got)
	}

	rs = RuleSet{{Name: "Groceries"}, {Name: Uncategorized, Keywords: []string{"x"}}}
	got = rs.Normalize()
	if got.Index(Uncategorized) != 1 || len(got[1].Keywords) != 0 {
		t.Fatalf("fallback keywords should be dropped in place: %+v", got)
	}
	if got[0].Keywords == nil {
		t.Fatalf("nil keyword list should become empty")
	}
	if len(rs[1].Keywords) != 1 {
		t.Fatalf("Normalize must not modify its receiver")
	}
}

func TestRuleSetNormalize_Names(t *testing.T) {
	rs := RuleSet{
		{Name: "", Keywords: []string{"x"}},
		{Name: "  Food ", Keywords: []string{" Bakery ", ""}},
		{Name: "   "},
		{Name: "Rent", Keywords: []string{"Rent Co"}},
		{Name: "Food", Keywords: []string{"bakery", "Deli"}},
	}
	got := rs.Normalize()

	want := RuleSet{
		{Name: Uncategorized, Keywords: []string{}},
		{Name: "Food", Keywords: []string{"Bakery", "Deli"}},
		{Name: "Rent", Keywords: []string{"Rent Co"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestRuleSetOwner(t *testing.T) {
	rs := RuleSet{
		{Name: Uncategorized, Keywords: []string{}},
		{Name: "Groceries", Keywords: []string{"Walmart"}},
		{Name: "Shopping", Keywords: []string{"Amazon"}},
	}
	if owner, ok := rs.Owner("  walmart ", "Shopping"); !ok || owner != "Groceries" {
		t.Fatalf("expected Groceries, got %q %v", owner, ok)
	}
	if _, ok := rs.Owner("walmart", "Groceries"); ok {
		t.Fatalf("skipped category must not be reported")
	}
}

func TestErrorHelpers(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), &ParseError{Line: 3, Column: "Amount", Value: "x", Err: ErrInvalidAmount})
	if !IsParseError(wrapped) {
		t.Fatalf("expected parse error to be detected through wrapping")
	}
	if !errors.Is(wrapped, ErrInvalidAmount) {
		t.Fatalf("ParseError should unwrap to its cause")
	}
	if !IsSchemaError(&SchemaError{Missing: []string{"Amount"}}) {
		t.Fatalf("expected schema error")
	}
	if !IsUnknownCategory(&UnknownCategoryError{Category: "x"}) {
		t.Fatalf("expected unknown category error")
	}
	if !IsPersistenceError(&PersistenceError{Op: "write", Path: "p", Err: errors.New("disk full")}) {
		t.Fatalf("expected persistence error")
	}
	if !IsDuplicateKeyword(&DuplicateKeywordError{Keyword: "k"}) {
		t.Fatalf("expected duplicate keyword error")
	}
	if IsSchemaError(errors.New("plain")) {
		t.Fatalf("plain error is not a schema error")
	}
}
