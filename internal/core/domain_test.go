package core

import (
	"strings"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
	}{
		{"income", KindIncome},
		{"expense", KindExpense},
		{"", KindExpense},       // legacy records carry no kind
		{"garbage", KindExpense},
	}
	for _, tc := range cases {
		if got := ParseKind(tc.in); got != tc.want {
			t.Fatalf("ParseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	now := time.Now()
	good := Transaction{
		Amount:     Money{Cents: 1500},
		OccurredAt: now,
		Category:   "food",
		Kind:       KindExpense,
		Note:       "lunch",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Cents: 0}, OccurredAt: now, Category: "food", Kind: KindExpense},
		{Amount: Money{Cents: 1}, OccurredAt: time.Time{}, Category: "food", Kind: KindExpense},
		{Amount: Money{Cents: 1}, OccurredAt: now, Category: "", Kind: KindExpense},
		{Amount: Money{Cents: 1}, OccurredAt: now, Category: "food", Kind: "transfer"},
		{Amount: Money{Cents: 1}, OccurredAt: now, Category: "food", Kind: KindExpense, Note: strings.Repeat("x", NoteMaxLen+1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestWithTransactionCopiesList(t *testing.T) {
	p := Period{
		Ceiling:      Money{Cents: 100000},
		Transactions: []Transaction{{Amount: Money{Cents: 100}, Kind: KindExpense, Category: "food"}},
	}
	before := p.Transactions[0]

	next := p.WithTransaction(Transaction{Amount: Money{Cents: 200}, Kind: KindExpense, Category: "transport"})

	if len(p.Transactions) != 1 {
		t.Fatalf("original period mutated: %d transactions", len(p.Transactions))
	}
	if len(next.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(next.Transactions))
	}
	if next.Transactions[0] != before {
		t.Fatalf("prior record changed by append")
	}
}

func TestWithoutTransaction(t *testing.T) {
	p := Period{Transactions: []Transaction{
		{Amount: Money{Cents: 1}, Category: "a", Kind: KindExpense},
		{Amount: Money{Cents: 2}, Category: "b", Kind: KindExpense},
		{Amount: Money{Cents: 3}, Category: "c", Kind: KindExpense},
	}}

	next := p.WithoutTransaction(1)
	if len(next.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(next.Transactions))
	}
	if next.Transactions[0].Category != "a" || next.Transactions[1].Category != "c" {
		t.Fatalf("wrong record removed: %+v", next.Transactions)
	}
	if len(p.Transactions) != 3 {
		t.Fatalf("original period mutated")
	}

	// Out-of-range indexes leave the period untouched.
	if got := p.WithoutTransaction(-1); len(got.Transactions) != 3 {
		t.Fatalf("negative index should be a no-op")
	}
	if got := p.WithoutTransaction(3); len(got.Transactions) != 3 {
		t.Fatalf("past-end index should be a no-op")
	}
}

func TestSameMonth(t *testing.T) {
	a := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)
	c := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	if !SameMonth(a, b) {
		t.Fatalf("same month expected")
	}
	if SameMonth(a, c) {
		t.Fatalf("adjacent months must differ")
	}
	if SameMonth(a, d) {
		t.Fatalf("same month of different years must differ")
	}
}
