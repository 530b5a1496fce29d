package gateway

import (
	"context"
	"errors"

	"kakeibo/internal/core"
)

var (
	// ErrNotFound signals that an owner has no stored period yet. It is
	// an expected state, not a failure: the caller reacts by prompting
	// for a budget.
	ErrNotFound = errors.New("period not found")

	// ErrUnauthorized signals an owner mismatch on mutation. Every
	// read and write is scoped to the owner identity.
	ErrUnauthorized = errors.New("period owned by another user")

	// ErrCategoryExists signals a duplicate category name for an owner.
	ErrCategoryExists = errors.New("category already exists")

	// ErrCategoryNotFound signals a removal targeting a name the owner
	// does not have.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDefaultCategory signals an attempt to remove one of the seeded
	// default categories.
	ErrDefaultCategory = errors.New("default categories cannot be removed")
)

// Ports for outbound persistence adapters.
type (
	PeriodFetcher interface {
		// FetchLatestPeriod returns the owner's most recently created
		// period, or ErrNotFound when none exists.
		FetchLatestPeriod(ctx context.Context, ownerID string) (*core.Period, error)
	}

	PeriodCreator interface {
		// CreatePeriod stores a new period with an empty transaction
		// list and returns it with its assigned ID. The previous
		// period, if any, is implicitly superseded.
		CreatePeriod(ctx context.Context, ownerID string, ceiling core.Money) (*core.Period, error)
	}

	TransactionReplacer interface {
		// ReplaceTransactions swaps the period's whole transaction
		// collection (last write wins) and returns the stored result.
		// Fails with ErrUnauthorized when ownerID does not match.
		ReplaceTransactions(ctx context.Context, periodID int64, ownerID string, txs []core.Transaction) (*core.Period, error)
	}

	PeriodLister interface {
		// ListPeriods returns all of the owner's periods, newest first.
		ListPeriods(ctx context.Context, ownerID string) ([]core.Period, error)
	}

	CategoryStore interface {
		// ListCategories returns the owner's category set: the defaults
		// in their seed order, then custom entries newest first. The
		// default set is seeded on the owner's first access.
		ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)

		// AddCategory stores a custom category. Fails with
		// ErrCategoryExists when the owner already has the name.
		AddCategory(ctx context.Context, ownerID string, c core.Category) (*core.Category, error)

		// RemoveCategory deletes a custom category by name. Defaults
		// cannot be removed (ErrDefaultCategory); unknown names fail
		// with ErrCategoryNotFound.
		RemoveCategory(ctx context.Context, ownerID string, name string) error
	}
)
