package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// NoteMaxLen caps the free-text note attached to a transaction.
const NoteMaxLen = 50

type (
	// Kind distinguishes income from expense records.
	Kind string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense entry. Records are
	// immutable once created; removal drops the whole record.
	Transaction struct {
		Amount     Money
		OccurredAt time.Time
		Category   string
		Kind       Kind
		Note       string
		// RunningBalance is the denormalized balance after this
		// transaction, stored for display. Derivable, not authoritative.
		RunningBalance *Money
	}

	// Period is the aggregate root for one calendar month: a ceiling
	// plus its transactions in insertion order. The ID is assigned by
	// the persistence gateway at creation.
	Period struct {
		ID           int64
		OwnerID      string
		Ceiling      Money
		CreatedAt    time.Time
		Transactions []Transaction
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrNoteTooLong   = errors.New("note too long")
	ErrZeroTimestamp = errors.New("timestamp cannot be zero")
)

// ParseKind maps a stored kind label to the enum. Legacy records carry
// no kind at all; an empty label ingests as expense.
func ParseKind(s string) Kind {
	if strings.TrimSpace(s) == string(KindIncome) {
		return KindIncome
	}
	return KindExpense
}

func (k Kind) IsValid() bool {
	switch k {
	case KindExpense, KindIncome:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return ErrZeroTimestamp
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if utf8.RuneCountInString(t.Note) > NoteMaxLen {
		return ErrNoteTooLong
	}
	return nil
}

// WithTransaction returns a copy of the period with t appended. The
// receiver's transaction list is never mutated, so derivations over the
// old value stay valid.
func (p Period) WithTransaction(t Transaction) Period {
	txs := make([]Transaction, 0, len(p.Transactions)+1)
	txs = append(txs, p.Transactions...)
	txs = append(txs, t)
	p.Transactions = txs
	return p
}

// WithoutTransaction returns a copy of the period with the record at
// index removed. Out-of-range indexes return the period unchanged.
func (p Period) WithoutTransaction(index int) Period {
	if index < 0 || index >= len(p.Transactions) {
		return p
	}
	txs := make([]Transaction, 0, len(p.Transactions)-1)
	txs = append(txs, p.Transactions[:index]...)
	txs = append(txs, p.Transactions[index+1:]...)
	p.Transactions = txs
	return p
}

// SameMonth reports whether two timestamps fall in the same calendar
// month. Used to decide whether the latest period is still current.
func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
