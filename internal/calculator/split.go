package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

var hundred = decimal.NewFromInt(100)

// MemberOwed computes the amount each membership owes on bill, keyed by
// account ID.
//
// Split by balance: balance × percentage / 100.
// Split by item: the member's fraction of the subtotal (sum of their item
// shares, at PercentScale) applied to the balance.
// Declined members owe zero. Every amount is rounded half-up to MoneyScale.
func MemberOwed(bill *models.Bill, memberships []models.BillMembership) (map[string]decimal.Decimal, error) {
	breakdown, err := Compute(bill)
	if err != nil {
		return nil, err
	}

	var itemSubtotals map[string]decimal.Decimal
	if bill.SplitMethod == models.SplitByItem {
		itemSubtotals = memberItemSubtotals(bill.Items)
	}

	owed := make(map[string]decimal.Decimal, len(memberships))
	for _, m := range memberships {
		if !m.Obligated() {
			owed[m.AccountID] = decimal.Zero
			continue
		}

		switch bill.SplitMethod {
		case models.SplitByBalance:
			owed[m.AccountID] = breakdown.Balance.Mul(m.Percentage.Shift(-2)).Round(MoneyScale)
		case models.SplitByItem:
			if breakdown.Subtotal.IsZero() {
				owed[m.AccountID] = decimal.Zero
				continue
			}
			fraction := itemSubtotals[m.AccountID].DivRound(breakdown.Subtotal, PercentScale)
			owed[m.AccountID] = breakdown.Balance.Mul(fraction).Round(MoneyScale)
		default:
			return nil, fmt.Errorf("unknown split method %q", bill.SplitMethod)
		}
	}

	return owed, nil
}

// memberItemSubtotals sums, per account, the share of each item's cost
// assigned to that account.
func memberItemSubtotals(items []models.Item) map[string]decimal.Decimal {
	subtotals := make(map[string]decimal.Decimal)
	for _, item := range items {
		for _, share := range item.Shares {
			portion := item.Cost.Mul(share.Percentage.Shift(-2))
			subtotals[share.AccountID] = subtotals[share.AccountID].Add(portion)
		}
	}
	return subtotals
}

// ValidateCoverage checks that the obligated members of bill carry its whole
// balance. Split by balance, their percentages must sum to 100. Split by
// item, every item with a cost must be fully shared among them, and a bill
// with no item cost must have nothing else to pay.
func ValidateCoverage(bill *models.Bill, memberships []models.BillMembership) error {
	obligated := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		if m.Obligated() {
			obligated[m.AccountID] = true
		}
	}

	switch bill.SplitMethod {
	case models.SplitByBalance:
		sum := decimal.Zero
		for _, m := range memberships {
			if obligated[m.AccountID] {
				sum = sum.Add(m.Percentage)
			}
		}
		if !sum.Equal(hundred) {
			return fmt.Errorf("%w: members cover %s%% of bill %s", apperr.ErrInvalidSharePercentages, sum, bill.ID)
		}
	case models.SplitByItem:
		if Subtotal(bill.Items).IsZero() {
			breakdown, err := Compute(bill)
			if err != nil {
				return err
			}
			if !breakdown.Balance.IsZero() {
				return fmt.Errorf("%w: bill %s has no item cost to split %s over", apperr.ErrInvalidSharePercentages, bill.ID, breakdown.Balance)
			}
			return nil
		}
		for _, item := range bill.Items {
			if item.Cost.IsZero() {
				continue
			}
			sum := decimal.Zero
			for _, share := range item.Shares {
				if obligated[share.AccountID] {
					sum = sum.Add(share.Percentage)
				}
			}
			if !sum.Equal(hundred) {
				return fmt.Errorf("%w: members cover %s%% of item %s", apperr.ErrInvalidSharePercentages, sum, item.ID)
			}
		}
	default:
		return fmt.Errorf("unknown split method %q", bill.SplitMethod)
	}
	return nil
}

// ValidatePercentages checks that every percentage is within [0, 100] and
// that together they sum to exactly 100.
func ValidatePercentages(percentages []decimal.Decimal) error {
	if len(percentages) == 0 {
		return fmt.Errorf("%w: no shares given", apperr.ErrInvalidSharePercentages)
	}

	sum := decimal.Zero
	for _, p := range percentages {
		if p.IsNegative() || p.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s is out of range", apperr.ErrInvalidSharePercentages, p)
		}
		sum = sum.Add(p)
	}
	if !sum.Equal(hundred) {
		return fmt.Errorf("%w: shares sum to %s", apperr.ErrInvalidSharePercentages, sum)
	}
	return nil
}
