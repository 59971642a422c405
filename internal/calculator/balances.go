package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Debt is an amount one account still owes another on a single bill.
type Debt struct {
	DebtorID   string
	CreditorID string // the bill's responsible account
	Amount     decimal.Decimal
}

// OwedTo is the aggregated amount owed to one creditor across bills.
type OwedTo struct {
	CreditorID string
	Amount     decimal.Decimal
}

// AggregateOwed sums debts per creditor.
//
// Self-debts (debtor == creditor) and creditors whose total is zero are
// dropped. The result is sorted by creditor ID so repeated calls over the
// same input are identical.
func AggregateOwed(debts []Debt) []OwedTo {
	totals := make(map[string]decimal.Decimal)
	for _, d := range debts {
		if d.DebtorID == d.CreditorID {
			continue
		}
		totals[d.CreditorID] = totals[d.CreditorID].Add(d.Amount)
	}

	result := make([]OwedTo, 0, len(totals))
	for creditor, amount := range totals {
		if amount.IsZero() {
			continue
		}
		result = append(result, OwedTo{CreditorID: creditor, Amount: amount})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreditorID < result[j].CreditorID
	})
	return result
}
