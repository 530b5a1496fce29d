package core

// Balance is the derived state of a period: net spend against the
// ceiling. All fields are computed, never stored.
type Balance struct {
	Spent       Money
	Remaining   Money
	UsedPercent float64
}

// DeriveBalance computes the current balance for a period.
//
// Spent nets income against expense: expense totals count toward the
// ceiling, income totals count away from it, so extra income mid-month
// raises the remaining amount. A zero ceiling yields 0% used rather
// than dividing by zero.
func DeriveBalance(p Period) Balance {
	var spent int64
	for _, t := range p.Transactions {
		switch t.Kind {
		case KindIncome:
			spent -= t.Amount.Cents
		default:
			// Legacy records without a kind are expenses.
			spent += t.Amount.Cents
		}
	}

	b := Balance{
		Spent:     Money{Cents: spent},
		Remaining: Money{Cents: p.Ceiling.Cents - spent},
	}
	if p.Ceiling.Cents > 0 {
		b.UsedPercent = float64(spent) / float64(p.Ceiling.Cents) * 100
	}
	return b
}
