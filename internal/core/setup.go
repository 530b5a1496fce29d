package core

import (
	"errors"
	"time"
)

// Budget setup walks a fixed three-state flow: the month has no budget
// yet, an entered amount awaits confirmation, or a budget is active.
const (
	StateNoBudgetForMonth SetupState = "no_budget_for_month"
	StateConfirmPending   SetupState = "confirm_pending"
	StateBudgetActive     SetupState = "budget_active"
)

type SetupState string

var ErrNotConfirmable = errors.New("no ceiling awaiting confirmation")

// BudgetSetup tracks the enter-amount-then-confirm flow for setting a
// month's ceiling. It is pure state; committing the confirmed ceiling
// to the gateway is the caller's job.
type BudgetSetup struct {
	state   SetupState
	origin  SetupState
	pending Money
}

// NewBudgetSetup derives the starting state from the latest stored
// period: active when one exists for the current calendar month,
// otherwise the mandatory set-a-budget prompt.
func NewBudgetSetup(latest *Period, now time.Time) *BudgetSetup {
	s := &BudgetSetup{state: StateNoBudgetForMonth}
	if latest != nil && SameMonth(latest.CreatedAt, now) {
		s.state = StateBudgetActive
	}
	return s
}

func (s *BudgetSetup) State() SetupState { return s.state }

// Pending returns the ceiling awaiting confirmation. Zero outside of
// StateConfirmPending.
func (s *BudgetSetup) Pending() Money {
	if s.state != StateConfirmPending {
		return Money{}
	}
	return s.pending
}

// Propose parses the entered ceiling and moves to the confirmation step.
// Non-numeric or non-positive input is rejected and the state does not
// change; the caller surfaces nothing beyond a disabled commit control.
func (s *BudgetSetup) Propose(input string) error {
	cents, err := ParseDecimalToCents(input)
	if err != nil {
		return err
	}
	if s.state != StateConfirmPending {
		s.origin = s.state
	}
	s.pending = Money{Cents: cents}
	s.state = StateConfirmPending
	return nil
}

// Back abandons the pending ceiling and returns to the input step.
func (s *BudgetSetup) Back() {
	if s.state != StateConfirmPending {
		return
	}
	s.state = s.origin
	s.pending = Money{}
}

// Confirm commits the pending ceiling and activates the budget,
// returning the ceiling the caller must persist as a new period.
func (s *BudgetSetup) Confirm() (Money, error) {
	if s.state != StateConfirmPending {
		return Money{}, ErrNotConfirmable
	}
	ceiling := s.pending
	s.state = StateBudgetActive
	s.pending = Money{}
	return ceiling, nil
}
