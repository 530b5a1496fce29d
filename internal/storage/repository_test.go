package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kakeibo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestFetchLatestPeriodNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.FetchLatestPeriod(context.Background(), "alice")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAndFetchLatestPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000}); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 200000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	latest, err := repo.FetchLatestPeriod(ctx, "alice")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("latest.ID = %d, want %d", latest.ID, second.ID)
	}
	if latest.Ceiling.Cents != 200000 {
		t.Fatalf("ceiling = %d, want 200000", latest.Ceiling.Cents)
	}
	if len(latest.Transactions) != 0 {
		t.Fatalf("new period must have no transactions")
	}
}

func TestReplaceTransactionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 5000000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	running := core.Money{Cents: 4850000}
	txs := []core.Transaction{
		{
			Amount:         core.Money{Cents: 150000},
			OccurredAt:     time.Date(2025, 8, 10, 9, 30, 0, 0, time.UTC),
			Category:       "food",
			Kind:           core.KindExpense,
			Note:           "groceries",
			RunningBalance: &running,
		},
		{
			Amount:     core.Money{Cents: 200000},
			OccurredAt: time.Date(2025, 8, 12, 18, 0, 0, 0, time.UTC),
			Category:   "salary",
			Kind:       core.KindIncome,
		},
	}

	got, err := repo.ReplaceTransactions(ctx, p.ID, "alice", txs)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got.Transactions))
	}

	first := got.Transactions[0]
	if first.Category != "food" || first.Kind != core.KindExpense || first.Note != "groceries" {
		t.Fatalf("first transaction mismatch: %+v", first)
	}
	if first.RunningBalance == nil || first.RunningBalance.Cents != 4850000 {
		t.Fatalf("running balance did not survive the round trip: %+v", first.RunningBalance)
	}
	if !first.OccurredAt.Equal(txs[0].OccurredAt) {
		t.Fatalf("occurred_at = %v, want %v", first.OccurredAt, txs[0].OccurredAt)
	}
	if got.Transactions[1].Kind != core.KindIncome {
		t.Fatalf("second transaction kind = %q, want income", got.Transactions[1].Kind)
	}
	if got.Transactions[1].RunningBalance != nil {
		t.Fatalf("unset running balance must stay nil")
	}

	// A second replace with a shorter list wins outright.
	got, err = repo.ReplaceTransactions(ctx, p.ID, "alice", txs[:1])
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if len(got.Transactions) != 1 {
		t.Fatalf("expected 1 transaction after replace, got %d", len(got.Transactions))
	}
}

func TestReplaceTransactionsOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.ReplaceTransactions(ctx, p.ID, "mallory", nil); !errors.Is(err, gateway.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := repo.ReplaceTransactions(ctx, p.ID+999, "alice", nil); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceTransactionsRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := []core.Transaction{{Amount: core.Money{Cents: -5}, OccurredAt: time.Now(), Category: "x", Kind: core.KindExpense}}
	if _, err := repo.ReplaceTransactions(ctx, p.ID, "alice", bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListPeriodsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreatePeriod(ctx, "bob", core.Money{Cents: 200}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 300}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.ListPeriods(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(got))
	}
	if got[0].Ceiling.Cents != 300 || got[1].Ceiling.Cents != 100 {
		t.Fatalf("wrong order: %+v", got)
	}
}

func TestExportTracking(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	old, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only a superseded period is pending: the single live period is not.
	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("live period must not be pending, got %+v", pending)
	}

	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 200000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err = repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].PeriodID != old.ID || pending[0].OwnerID != "alice" {
		t.Fatalf("pending = %+v, want the superseded period", pending)
	}

	// An error flag keeps it pending for the retry scan.
	if err := repo.MarkExportError(ctx, old.ID); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	pending, _ = repo.ListPendingExport(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("errored period must stay pending")
	}

	if err := repo.MarkExported(ctx, old.ID); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	pending, _ = repo.ListPendingExport(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("exported period must not be pending, got %+v", pending)
	}
}

func TestGetPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetPeriod(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != "alice" {
		t.Fatalf("owner = %q, want alice", got.OwnerID)
	}

	if _, err := repo.GetPeriod(ctx, p.ID+1); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
