package core

import "time"

// HistoryPreviewCount is how many transactions a collapsed history
// entry shows before the caller has to expand it.
const HistoryPreviewCount = 3

// MonthSummary is the roll-up of one superseded period for display.
type MonthSummary struct {
	PeriodID         int64
	Year             int
	Month            time.Month
	Ceiling          Money
	TotalSpent       Money
	Remaining        Money
	TransactionCount int
}

// SummarizeHistory rolls up historical periods into per-month summaries,
// preserving the input order (callers pass gateway results newest-first,
// with the current period already dropped). The month label comes from
// each period's creation timestamp, so skipped months label correctly.
// TotalSpent uses the same net-of-income rule as DeriveBalance.
func SummarizeHistory(periods []Period) []MonthSummary {
	summaries := make([]MonthSummary, 0, len(periods))
	for _, p := range periods {
		b := DeriveBalance(p)
		year, month, _ := p.CreatedAt.Date()
		summaries = append(summaries, MonthSummary{
			PeriodID:         p.ID,
			Year:             year,
			Month:            month,
			Ceiling:          p.Ceiling,
			TotalSpent:       b.Spent,
			Remaining:        b.Remaining,
			TransactionCount: len(p.Transactions),
		})
	}
	return summaries
}

// PreviewTransactions applies the show-more truncation policy: the full
// list when expanded, otherwise the first HistoryPreviewCount records.
func PreviewTransactions(txs []Transaction, expanded bool) []Transaction {
	if expanded || len(txs) <= HistoryPreviewCount {
		return txs
	}
	return txs[:HistoryPreviewCount]
}
