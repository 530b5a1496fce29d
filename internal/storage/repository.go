package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/gateway"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchLatestPeriod implements gateway.PeriodFetcher.
func (r *SQLiteRepository) FetchLatestPeriod(ctx context.Context, ownerID string) (*core.Period, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, ceiling_cents, created_at
		FROM periods
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, ownerID)

	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, fmt.Errorf("fetch latest period: %w", err)
	}

	if p.Transactions, err = r.loadTransactions(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePeriod implements gateway.PeriodCreator.
func (r *SQLiteRepository) CreatePeriod(ctx context.Context, ownerID string, ceiling core.Money) (*core.Period, error) {
	if err := ceiling.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO periods (owner_id, ceiling_cents, created_at)
		VALUES (?, ?, ?)`, ownerID, ceiling.Cents, now)
	if err != nil {
		return nil, fmt.Errorf("insert period: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("period insert id: %w", err)
	}

	slog.InfoContext(ctx, "Period created",
		"period_id", id,
		"owner", ownerID,
		"ceiling_cents", ceiling.Cents)

	return &core.Period{
		ID:        id,
		OwnerID:   ownerID,
		Ceiling:   ceiling,
		CreatedAt: now,
	}, nil
}

// ReplaceTransactions implements gateway.TransactionReplacer. The whole
// collection is swapped in one transaction: verify ownership, delete the
// old rows, insert the new ones in order.
func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, periodID int64, ownerID string, txs []core.Transaction) (*core.Period, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var storedOwner string
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM periods WHERE id = ?`, periodID).Scan(&storedOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, gateway.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verify period owner: %w", err)
	}
	if storedOwner != ownerID {
		return nil, gateway.ErrUnauthorized
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE period_id = ?`, periodID); err != nil {
		return nil, fmt.Errorf("clear transactions: %w", err)
	}

	for i, t := range txs {
		var running sql.NullInt64
		if t.RunningBalance != nil {
			running = sql.NullInt64{Int64: t.RunningBalance.Cents, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (period_id, position, amount_cents, kind, category, note, occurred_at, running_balance_cents)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			periodID, i, t.Amount.Cents, string(t.Kind), t.Category, t.Note, t.OccurredAt.UTC(), running)
		if err != nil {
			return nil, fmt.Errorf("insert transaction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return r.getPeriod(ctx, periodID)
}

// ListPeriods implements gateway.PeriodLister.
func (r *SQLiteRepository) ListPeriods(ctx context.Context, ownerID string) ([]core.Period, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, ceiling_cents, created_at
		FROM periods
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	periods := make([]core.Period, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}

	for i := range periods {
		if periods[i].Transactions, err = r.loadTransactions(ctx, periods[i].ID); err != nil {
			return nil, err
		}
	}
	return periods, nil
}

// GetPeriod loads a single period by ID, regardless of owner. Used by
// the archive worker, which receives period IDs over the queue.
func (r *SQLiteRepository) GetPeriod(ctx context.Context, periodID int64) (*core.Period, error) {
	return r.getPeriod(ctx, periodID)
}

func (r *SQLiteRepository) getPeriod(ctx context.Context, periodID int64) (*core.Period, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, ceiling_cents, created_at
		FROM periods
		WHERE id = ?`, periodID)

	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, fmt.Errorf("get period: %w", err)
	}

	if p.Transactions, err = r.loadTransactions(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context, periodID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT amount_cents, kind, category, note, occurred_at, running_balance_cents
		FROM transactions
		WHERE period_id = ?
		ORDER BY position`, periodID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t       core.Transaction
			kind    string
			running sql.NullInt64
		)
		if err := rows.Scan(&t.Amount.Cents, &kind, &t.Category, &t.Note, &t.OccurredAt, &running); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.ParseKind(kind)
		if running.Valid {
			t.RunningBalance = &core.Money{Cents: running.Int64}
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// PendingExport is the minimal row the archive worker needs to pick up
// a superseded period that has not reached the spreadsheet yet.
type PendingExport struct {
	PeriodID  int64
	OwnerID   string
	CreatedAt time.Time
}

// ListPendingExport returns superseded periods not yet exported. A
// period is superseded once the same owner has a newer one; the live
// period is never exported.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.owner_id, p.created_at
		FROM periods p
		WHERE p.exported = 0
		  AND EXISTS (
			SELECT 1 FROM periods newer
			WHERE newer.owner_id = p.owner_id
			  AND (newer.created_at > p.created_at
			       OR (newer.created_at = p.created_at AND newer.id > p.id))
		  )
		ORDER BY p.created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	pending := make([]PendingExport, 0)
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.PeriodID, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending export: %w", err)
	}
	return pending, nil
}

// MarkExported records that a period's summary reached the spreadsheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, periodID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE periods SET exported = 1, export_error = 0 WHERE id = ?`, periodID); err != nil {
		return fmt.Errorf("mark period exported: %w", err)
	}
	slog.InfoContext(ctx, "Period marked as exported", "period_id", periodID)
	return nil
}

// MarkExportError flags a failed export attempt. The period stays
// pending so the periodic scan retries it.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, periodID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE periods SET export_error = 1 WHERE id = ?`, periodID); err != nil {
		return fmt.Errorf("mark period export error: %w", err)
	}
	slog.WarnContext(ctx, "Period marked with export error", "period_id", periodID)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*core.Period, error) {
	var p core.Period
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Ceiling.Cents, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
