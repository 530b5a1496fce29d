package core

// CategoryShare is one category's slice of the period's expenses.
type CategoryShare struct {
	Category   string
	Amount     Money
	Percentage float64
}

// CategoryBreakdown groups expense transactions by category and computes
// each group's share of total expense. Income records are excluded
// entirely. Groups appear in first-appearance order of their category,
// not sorted by magnitude. Percentages are 0 when there is no expense;
// otherwise they sum to 100 within floating-point tolerance.
func CategoryBreakdown(txs []Transaction) []CategoryShare {
	var total int64
	order := make([]string, 0)
	sums := make(map[string]int64)
	for _, t := range txs {
		if t.Kind == KindIncome {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
		total += t.Amount.Cents
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		s := CategoryShare{
			Category: cat,
			Amount:   Money{Cents: sums[cat]},
		}
		if total > 0 {
			s.Percentage = float64(sums[cat]) / float64(total) * 100
		}
		shares = append(shares, s)
	}
	return shares
}
