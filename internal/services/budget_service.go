package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kakeibo/internal/backend"
	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
)

var (
	// ErrNoActivePeriod means the owner has no budget for the current
	// month, so transactions cannot be recorded yet.
	ErrNoActivePeriod = errors.New("no active budget period")

	// ErrTransactionNotFound means the removal index points past the
	// end of the current period's transaction list.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ArchivePublisher notifies downstream consumers that a period has been
// superseded. The AMQP client satisfies it; a nil publisher disables
// notifications.
type ArchivePublisher interface {
	PublishPeriodArchived(ctx context.Context, periodID int64, ownerID string) error
}

// Dashboard is everything the main view needs: the setup state, the
// current period when one exists, and its derived aggregates.
type Dashboard struct {
	State      core.SetupState
	Period     *core.Period
	Balance    core.Balance
	Categories []core.CategoryShare
}

// HistoryEntry is one archived month with its previewed transactions.
type HistoryEntry struct {
	Summary      core.MonthSummary
	Transactions []core.Transaction
	Truncated    bool
}

// BudgetService orchestrates period and transaction operations across
// the persistence backend and the archive queue.
type BudgetService struct {
	backend   backend.Backend
	publisher ArchivePublisher
	now       func() time.Time
}

func NewBudgetService(b backend.Backend, publisher ArchivePublisher) *BudgetService {
	return &BudgetService{
		backend:   b,
		publisher: publisher,
		now:       time.Now,
	}
}

// NewBudgetServiceWithClock pins the service clock for tests.
func NewBudgetServiceWithClock(b backend.Backend, publisher ArchivePublisher, now func() time.Time) *BudgetService {
	return &BudgetService{
		backend:   b,
		publisher: publisher,
		now:       now,
	}
}

// Dashboard assembles the current view for an owner. A missing or
// stale period is not an error: the state tells the caller to start
// budget setup instead.
func (s *BudgetService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	latest, err := s.currentPeriod(ctx, ownerID)
	if err != nil && !errors.Is(err, ErrNoActivePeriod) {
		return nil, err
	}

	d := &Dashboard{
		State:  core.NewBudgetSetup(latest, s.now()).State(),
		Period: latest,
	}
	if latest != nil {
		d.Balance = core.DeriveBalance(*latest)
		d.Categories = core.CategoryBreakdown(latest.Transactions)
	}
	return d, nil
}

// SetBudget starts a fresh period with the given ceiling. The previous
// period, if any, is archived: it stays in storage for history and an
// archive notification is published for the export worker.
func (s *BudgetService) SetBudget(ctx context.Context, ownerID string, ceiling core.Money) (*core.Period, error) {
	if err := ceiling.Validate(); err != nil {
		return nil, err
	}

	previous, err := s.backend.FetchLatestPeriod(ctx, ownerID)
	if err != nil && !errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("fetch previous period: %w", err)
	}

	period, err := s.backend.CreatePeriod(ctx, ownerID, ceiling)
	if err != nil {
		return nil, fmt.Errorf("create period: %w", err)
	}

	slog.InfoContext(ctx, "Budget period started",
		"owner", ownerID,
		"period_id", period.ID,
		"ceiling_cents", ceiling.Cents)

	if previous != nil {
		// The new period is already stored; a failed notification is
		// recovered by the worker's periodic catch-up scan.
		if err := s.publishArchived(ctx, previous.ID, ownerID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish archive message",
				"period_id", previous.ID, "error", err)
		}
	}

	return period, nil
}

// RecordTransaction appends a record to the owner's current period and
// snapshots the running balance after it.
func (s *BudgetService) RecordTransaction(ctx context.Context, ownerID string, t core.Transaction) (*core.Period, error) {
	if t.OccurredAt.IsZero() {
		t.OccurredAt = s.now()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	period, err := s.currentPeriod(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	updated := period.WithTransaction(t)
	balance := core.DeriveBalance(updated)
	updated.Transactions[len(updated.Transactions)-1].RunningBalance = &balance.Remaining

	stored, err := s.backend.ReplaceTransactions(ctx, period.ID, ownerID, updated.Transactions)
	if err != nil {
		return nil, fmt.Errorf("store transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"owner", ownerID,
		"period_id", period.ID,
		"kind", string(t.Kind),
		"category", t.Category,
		"amount_cents", t.Amount.Cents,
		"remaining_cents", balance.Remaining.Cents)

	return stored, nil
}

// RemoveTransaction drops the record at index from the current period.
// The whole remaining list is written back, so the last writer wins.
func (s *BudgetService) RemoveTransaction(ctx context.Context, ownerID string, index int) (*core.Period, error) {
	period, err := s.currentPeriod(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(period.Transactions) {
		return nil, ErrTransactionNotFound
	}

	updated := period.WithoutTransaction(index)
	stored, err := s.backend.ReplaceTransactions(ctx, period.ID, ownerID, updated.Transactions)
	if err != nil {
		return nil, fmt.Errorf("store transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transaction removed",
		"owner", ownerID,
		"period_id", period.ID,
		"index", index)

	return stored, nil
}

// History returns the owner's archived months, newest first. The most
// recent period is the live one and is excluded; it belongs on the
// dashboard, not in history.
func (s *BudgetService) History(ctx context.Context, ownerID string, expanded bool) ([]HistoryEntry, error) {
	periods, err := s.backend.ListPeriods(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	if len(periods) <= 1 {
		return []HistoryEntry{}, nil
	}

	archived := periods[1:]
	summaries := core.SummarizeHistory(archived)

	entries := make([]HistoryEntry, len(archived))
	for i, p := range archived {
		preview := core.PreviewTransactions(p.Transactions, expanded)
		entries[i] = HistoryEntry{
			Summary:      summaries[i],
			Transactions: preview,
			Truncated:    len(preview) < len(p.Transactions),
		}
	}
	return entries, nil
}

// BeginSetup starts the budget entry flow from a dashboard view,
// deriving the initial state with the service clock.
func (s *BudgetService) BeginSetup(d *Dashboard) *core.BudgetSetup {
	return core.NewBudgetSetup(d.Period, s.now())
}

// Categories returns the owner's category set, seeding the defaults on
// first access.
func (s *BudgetService) Categories(ctx context.Context, ownerID string) ([]core.Category, error) {
	categories, err := s.backend.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// AddCategory creates a custom category for the owner. Icon and color
// fall back to the stock values when omitted.
func (s *BudgetService) AddCategory(ctx context.Context, ownerID, name, icon, color string) (*core.Category, error) {
	c := core.Category{
		Name:      strings.TrimSpace(name),
		Icon:      strings.TrimSpace(icon),
		Color:     strings.TrimSpace(color),
		CreatedAt: s.now(),
	}
	if c.Icon == "" {
		c.Icon = core.DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.backend.AddCategory(ctx, ownerID, c)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Category added",
		"owner", ownerID,
		"category", stored.Name)
	return stored, nil
}

// RemoveCategory deletes one of the owner's custom categories. The
// seeded defaults cannot be removed.
func (s *BudgetService) RemoveCategory(ctx context.Context, ownerID, name string) error {
	if err := s.backend.RemoveCategory(ctx, ownerID, strings.TrimSpace(name)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category removed",
		"owner", ownerID,
		"category", name)
	return nil
}

// currentPeriod fetches the latest period and checks it is still this
// month's. Anything else maps to ErrNoActivePeriod.
func (s *BudgetService) currentPeriod(ctx context.Context, ownerID string) (*core.Period, error) {
	period, err := s.backend.FetchLatestPeriod(ctx, ownerID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, ErrNoActivePeriod
	}
	if err != nil {
		return nil, fmt.Errorf("fetch latest period: %w", err)
	}
	if !core.SameMonth(period.CreatedAt, s.now()) {
		return nil, ErrNoActivePeriod
	}
	return period, nil
}

func (s *BudgetService) publishArchived(ctx context.Context, periodID int64, ownerID string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Archive publisher not available, skipping notification")
		return nil
	}
	return s.publisher.PublishPeriodArchived(ctx, periodID, ownerID)
}
