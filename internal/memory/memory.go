package memory

import (
	"context"
	"sync"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
)

// Store is an in-memory persistence gateway used for tests and as the
// default development backend. All operations copy on the way in and
// out so callers never share slices with the store.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	periods []core.Period // insertion order; newest has the highest ID
	// categories holds each owner's set: defaults first in seed order,
	// custom entries appended after.
	categories map[string][]core.Category
	now        func() time.Time
}

func New() *Store {
	return &Store{categories: make(map[string][]core.Category), now: time.Now}
}

// NewWithClock pins the store's clock, letting tests control which
// calendar month a created period lands in.
func NewWithClock(now func() time.Time) *Store {
	return &Store{categories: make(map[string][]core.Category), now: now}
}

// FetchLatestPeriod implements gateway.PeriodFetcher.
func (s *Store) FetchLatestPeriod(_ context.Context, ownerID string) (*core.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.periods) - 1; i >= 0; i-- {
		if s.periods[i].OwnerID == ownerID {
			p := clonePeriod(s.periods[i])
			return &p, nil
		}
	}
	return nil, gateway.ErrNotFound
}

// CreatePeriod implements gateway.PeriodCreator.
func (s *Store) CreatePeriod(_ context.Context, ownerID string, ceiling core.Money) (*core.Period, error) {
	if err := ceiling.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p := core.Period{
		ID:        s.nextID,
		OwnerID:   ownerID,
		Ceiling:   ceiling,
		CreatedAt: s.now(),
	}
	s.periods = append(s.periods, p)
	out := clonePeriod(p)
	return &out, nil
}

// ReplaceTransactions implements gateway.TransactionReplacer.
func (s *Store) ReplaceTransactions(_ context.Context, periodID int64, ownerID string, txs []core.Transaction) (*core.Period, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.periods {
		if s.periods[i].ID != periodID {
			continue
		}
		if s.periods[i].OwnerID != ownerID {
			return nil, gateway.ErrUnauthorized
		}
		s.periods[i].Transactions = cloneTransactions(txs)
		p := clonePeriod(s.periods[i])
		return &p, nil
	}
	return nil, gateway.ErrNotFound
}

// ListPeriods implements gateway.PeriodLister.
func (s *Store) ListPeriods(_ context.Context, ownerID string) ([]core.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Period, 0)
	for i := len(s.periods) - 1; i >= 0; i-- {
		if s.periods[i].OwnerID == ownerID {
			out = append(out, clonePeriod(s.periods[i]))
		}
	}
	return out, nil
}

// ListCategories implements gateway.CategoryStore. The first access
// seeds the owner's default set.
func (s *Store) ListCategories(_ context.Context, ownerID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureDefaults(ownerID)
	set := s.categories[ownerID]

	// Defaults in seed order, then custom entries newest first.
	out := make([]core.Category, 0, len(set))
	for _, c := range set {
		if c.Default {
			out = append(out, c)
		}
	}
	for i := len(set) - 1; i >= 0; i-- {
		if !set[i].Default {
			out = append(out, set[i])
		}
	}
	return out, nil
}

// AddCategory implements gateway.CategoryStore.
func (s *Store) AddCategory(_ context.Context, ownerID string, c core.Category) (*core.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureDefaults(ownerID)
	for _, existing := range s.categories[ownerID] {
		if existing.Name == c.Name {
			return nil, gateway.ErrCategoryExists
		}
	}

	c.Default = false
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.categories[ownerID] = append(s.categories[ownerID], c)
	return &c, nil
}

// RemoveCategory implements gateway.CategoryStore.
func (s *Store) RemoveCategory(_ context.Context, ownerID string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureDefaults(ownerID)
	set := s.categories[ownerID]
	for i, c := range set {
		if c.Name != name {
			continue
		}
		if c.Default {
			return gateway.ErrDefaultCategory
		}
		s.categories[ownerID] = append(set[:i:i], set[i+1:]...)
		return nil
	}
	return gateway.ErrCategoryNotFound
}

func (s *Store) ensureDefaults(ownerID string) {
	if _, ok := s.categories[ownerID]; ok {
		return
	}
	defaults := core.DefaultCategories()
	seeded := make([]core.Category, len(defaults))
	copy(seeded, defaults)
	for i := range seeded {
		seeded[i].CreatedAt = s.now()
	}
	s.categories[ownerID] = seeded
}

func clonePeriod(p core.Period) core.Period {
	p.Transactions = cloneTransactions(p.Transactions)
	return p
}

func cloneTransactions(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return nil
	}
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	for i := range out {
		if out[i].RunningBalance != nil {
			rb := *out[i].RunningBalance
			out[i].RunningBalance = &rb
		}
	}
	return out
}
