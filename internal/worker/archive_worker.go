package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/export"
	"kakeibo/internal/storage"
)

// ArchiveWorker exports superseded budget periods to the archive sheet.
// It is driven two ways: archive messages from the queue, and a
// periodic catch-up scan for periods whose message was lost.
type ArchiveWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.Writer
	batchSize int
}

func NewArchiveWorker(storage *storage.SQLiteRepository, writer export.Writer, batchSize int) *ArchiveWorker {
	return &ArchiveWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleArchiveMessage processes a single archive message from AMQP.
// Returning an error nacks the delivery so the broker redelivers it.
func (w *ArchiveWorker) HandleArchiveMessage(ctx context.Context, msg *amqp.PeriodArchivedMessage) error {
	slog.InfoContext(ctx, "Processing archive message",
		"period_id", msg.PeriodID,
		"owner", msg.OwnerID)

	return w.exportPeriod(ctx, msg.PeriodID)
}

// ProcessPending exports superseded periods the queue never delivered,
// up to the configured batch size. Failed exports are flagged and
// retried on the next scan.
func (w *ArchiveWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		if err := w.exportPeriod(ctx, p.PeriodID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending period",
				"period_id", p.PeriodID,
				"owner", p.OwnerID,
				"error", err)
		}
	}
	return nil
}

func (w *ArchiveWorker) exportPeriod(ctx context.Context, periodID int64) error {
	period, err := w.storage.GetPeriod(ctx, periodID)
	if err != nil {
		return fmt.Errorf("get period from storage: %w", err)
	}

	summary := core.SummarizeHistory([]core.Period{*period})[0]

	if err := w.writer.AppendMonthSummary(ctx, period.OwnerID, summary); err != nil {
		if markErr := w.storage.MarkExportError(ctx, periodID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to flag export error",
				"period_id", periodID, "error", markErr)
		}
		return fmt.Errorf("append month summary: %w", err)
	}

	if err := w.storage.MarkExported(ctx, periodID); err != nil {
		return fmt.Errorf("mark period exported: %w", err)
	}
	return nil
}
