package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
	"kakeibo/internal/storage"
)

type fakeWriter struct {
	rows []core.MonthSummary
	err  error
}

func (f *fakeWriter) AppendMonthSummary(_ context.Context, _ string, s core.MonthSummary) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, s)
	return nil
}

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "kakeibo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHandleArchiveMessage(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t)
	writer := &fakeWriter{}
	w := NewArchiveWorker(repo, writer, 10)

	p, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 5000000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 6000000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	msg := amqp.NewPeriodArchivedMessage(p.ID, "alice")
	if err := w.HandleArchiveMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(writer.rows) != 1 {
		t.Fatalf("expected 1 exported row, got %d", len(writer.rows))
	}
	if writer.rows[0].PeriodID != p.ID || writer.rows[0].Ceiling.Cents != 5000000 {
		t.Fatalf("exported summary mismatch: %+v", writer.rows[0])
	}

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("exported period must leave the pending set, got %+v", pending)
	}
}

func TestHandleArchiveMessageUnknownPeriod(t *testing.T) {
	repo := newTestStorage(t)
	w := NewArchiveWorker(repo, &fakeWriter{}, 10)

	msg := amqp.NewPeriodArchivedMessage(999, "alice")
	err := w.HandleArchiveMessage(context.Background(), msg)
	if err == nil {
		t.Fatalf("expected error for missing period")
	}
	// The consumer drops, rather than redelivers, on this error; losing
	// the sentinel through wrapping would loop the message forever.
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("error must carry ErrNotFound, got %v", err)
	}
}

func TestProcessPendingCatchUp(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t)
	writer := &fakeWriter{}
	w := NewArchiveWorker(repo, writer, 10)

	old, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 200000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(writer.rows) != 1 || writer.rows[0].PeriodID != old.ID {
		t.Fatalf("expected the superseded period exported, got %+v", writer.rows)
	}

	// Nothing left on a second scan.
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(writer.rows) != 1 {
		t.Fatalf("second scan must not re-export, got %d rows", len(writer.rows))
	}
}

func TestExportFailureKeepsPeriodPending(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t)
	writer := &fakeWriter{err: errors.New("sheets unavailable")}
	w := NewArchiveWorker(repo, writer, 10)

	old, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreatePeriod(ctx, "alice", core.Money{Cents: 200000}); err != nil {
		t.Fatalf("create: %v", err)
	}

	msg := amqp.NewPeriodArchivedMessage(old.ID, "alice")
	if err := w.HandleArchiveMessage(ctx, msg); err == nil {
		t.Fatalf("expected failure to propagate for redelivery")
	}

	pending, err := repo.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].PeriodID != old.ID {
		t.Fatalf("failed export must stay pending, got %+v", pending)
	}

	// The sheet recovers; the catch-up scan drains the backlog.
	writer.err = nil
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(writer.rows) != 1 {
		t.Fatalf("expected recovery export, got %d rows", len(writer.rows))
	}
}
