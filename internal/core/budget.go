package core

import "math"

// BudgetStatus is the derived spend-versus-budget summary for a project.
// It is computed fresh on every read and never persisted, so it cannot go
// stale relative to the expense set.
type BudgetStatus struct {
	TotalSpent   Money
	Remaining    Money
	Percentage   int
	IsOverBudget bool
}

// CategorySummary is one aggregation row of SummarizeByCategory.
type CategorySummary struct {
	Category Category
	Total    Money
	Count    int64
}

// ComputeBudgetStatus derives the budget status from a project's budget
// and the sum of its expense amounts.
//
// Percentage is capped at 100 and rounds half-up. A zero budget yields
// percentage 0 and IsOverBudget false regardless of spend. Remaining
// never goes negative.
func ComputeBudgetStatus(budget, totalSpent Money) BudgetStatus {
	st := BudgetStatus{TotalSpent: totalSpent}
	if budget.Cents > 0 {
		pct := float64(totalSpent.Cents) / float64(budget.Cents) * 100
		if pct > 100 {
			pct = 100
		}
		st.Percentage = int(math.Round(pct))
		st.IsOverBudget = totalSpent.Cents > budget.Cents
	}
	if rem := budget.Cents - totalSpent.Cents; rem > 0 {
		st.Remaining = Money{Cents: rem}
	}
	return st
}
