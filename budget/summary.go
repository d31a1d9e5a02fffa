package budget

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/generic"
)

// =============================================================================
// BUDGET PROGRESS - How much of a budget has been spent
// =============================================================================

// Progress is the spending state of a budget.
type Progress struct {
	Budget    Budget
	Spent     generic.Amount // positive sum of expenses
	Remaining generic.Amount // may be negative when overspent
	Percent   decimal.Decimal
}

// Overspent reports whether spending exceeded the limit.
func (p Progress) Overspent() bool { return p.Remaining.IsNegative() }

// BudgetProgress sums the expenses of the budget's categories inside its
// period. Income and other categories are ignored.
func BudgetProgress(b Budget, txs []Transaction) Progress {
	spent := b.Amount.Zero()
	for _, tx := range txs {
		if !tx.IsExpense() || !b.Covers(tx.CategoryID) || !b.Period.Contains(tx.ProcessedAt) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}

	percent := decimal.Zero
	if b.Amount.Value.IsPositive() {
		percent = spent.Value.Div(b.Amount.Value).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return Progress{
		Budget:    b,
		Spent:     spent,
		Remaining: b.Amount.Sub(spent),
		Percent:   percent,
	}
}

// =============================================================================
// CATEGORY SPENDING - Dashboard totals per category
// =============================================================================

// CategoryTotal sums a category's transactions in a period.
type CategoryTotal struct {
	CategoryID string
	Income     decimal.Decimal
	Expenses   decimal.Decimal // positive
	Count      int
}

// CategorySpending groups the transactions inside period by category,
// largest expenses first.
func CategorySpending(txs []Transaction, period generic.Period) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	for _, tx := range txs {
		if !period.Contains(tx.ProcessedAt) {
			continue
		}
		ct, ok := totals[tx.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: tx.CategoryID}
			totals[tx.CategoryID] = ct
		}
		if tx.IsExpense() {
			ct.Expenses = ct.Expenses.Add(tx.Amount.Value.Abs())
		} else {
			ct.Income = ct.Income.Add(tx.Amount.Value)
		}
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Expenses.Equal(out[j].Expenses) {
			return out[i].Expenses.GreaterThan(out[j].Expenses)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}
