package core

import (
	"testing"
	"time"
)

func TestNewBudgetSetupStates(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

	if got := NewBudgetSetup(nil, now).State(); got != StateNoBudgetForMonth {
		t.Fatalf("no period: state = %q, want %q", got, StateNoBudgetForMonth)
	}

	stale := &Period{CreatedAt: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)}
	if got := NewBudgetSetup(stale, now).State(); got != StateNoBudgetForMonth {
		t.Fatalf("stale period: state = %q, want %q", got, StateNoBudgetForMonth)
	}

	current := &Period{CreatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}
	if got := NewBudgetSetup(current, now).State(); got != StateBudgetActive {
		t.Fatalf("current period: state = %q, want %q", got, StateBudgetActive)
	}
}

func TestBudgetSetupFlow(t *testing.T) {
	now := time.Now()
	s := NewBudgetSetup(nil, now)

	if err := s.Propose("50000"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if s.State() != StateConfirmPending {
		t.Fatalf("state = %q, want %q", s.State(), StateConfirmPending)
	}
	if s.Pending().Cents != 5000000 {
		t.Fatalf("pending = %d, want 5000000", s.Pending().Cents)
	}

	ceiling, err := s.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if ceiling.Cents != 5000000 {
		t.Fatalf("ceiling = %d, want 5000000", ceiling.Cents)
	}
	if s.State() != StateBudgetActive {
		t.Fatalf("state = %q, want %q", s.State(), StateBudgetActive)
	}
}

func TestBudgetSetupGuardRejectsBadInput(t *testing.T) {
	s := NewBudgetSetup(nil, time.Now())
	for _, in := range []string{"", "abc", "0", "-100"} {
		if err := s.Propose(in); err == nil {
			t.Fatalf("propose(%q) expected error", in)
		}
		if s.State() != StateNoBudgetForMonth {
			t.Fatalf("rejected input must not change state, got %q", s.State())
		}
	}
}

func TestBudgetSetupBack(t *testing.T) {
	// Resetting the ceiling mid-month starts from the active state and
	// backing out must return there, not to the prompt.
	current := &Period{CreatedAt: time.Now()}
	s := NewBudgetSetup(current, time.Now())

	if err := s.Propose("120"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	s.Back()
	if s.State() != StateBudgetActive {
		t.Fatalf("state = %q, want %q", s.State(), StateBudgetActive)
	}
	if s.Pending().Cents != 0 {
		t.Fatalf("pending must reset on back")
	}

	if _, err := s.Confirm(); err == nil {
		t.Fatalf("confirm after back must fail")
	}
}
