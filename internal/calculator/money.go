// Package calculator implements the fixed-point money rules of a bill:
// subtotal, compounding taxes, tip policy, balance and per-member shares.
//
// All functions are pure. Amounts use decimal.Decimal; nothing here ever
// goes through binary floating point.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

const (
	// MoneyScale is the number of fractional digits of a final amount.
	MoneyScale int32 = 2
	// PercentScale is the number of fractional digits of internal ratios.
	PercentScale int32 = 7
)

var one = decimal.NewFromInt(1)

// Subtotal is the sum of all item costs. Costs are already at money scale,
// so the result is not rounded.
func Subtotal(items []models.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Cost)
	}
	return total
}

// Taxes returns the amount added by applying taxes in order. Each tax
// multiplies the running total by (1 + rate/100), so later taxes compound on
// earlier ones. Rounding happens once, half-up, on the final difference.
func Taxes(subtotal decimal.Decimal, taxes []models.Tax) decimal.Decimal {
	running := subtotal
	for _, tax := range taxes {
		running = running.Mul(one.Add(tax.Percentage.Shift(-2)))
	}
	return running.Sub(subtotal).Round(MoneyScale)
}

// isSet reports whether a tip field is present and non-zero.
func isSet(d decimal.NullDecimal) bool {
	return d.Valid && !d.Decimal.IsZero()
}

// ValidateTip checks that exactly one tip method is chosen.
//
// Both methods set to non-zero values, both given as zero, or both absent
// is a MultipleTipMethod error. An explicit zero with the other method
// absent is a chosen method whose value happens to be zero.
func ValidateTip(tipAmount, tipPercent decimal.NullDecimal) error {
	if isSet(tipAmount) && isSet(tipPercent) {
		return fmt.Errorf("%w: both tip amount and tip percent are set", apperr.ErrMultipleTipMethod)
	}
	if tipAmount.Valid && tipPercent.Valid && !isSet(tipAmount) && !isSet(tipPercent) {
		return fmt.Errorf("%w: tip amount and tip percent are both zero", apperr.ErrMultipleTipMethod)
	}
	if !tipAmount.Valid && !tipPercent.Valid {
		return fmt.Errorf("%w: neither tip amount nor tip percent is set", apperr.ErrMultipleTipMethod)
	}
	return nil
}

// Tip returns the tip for a bill whose post-tax total is total.
// A flat amount is returned as is (at money scale); a percentage is applied
// to total and rounded half-up.
func Tip(tipAmount, tipPercent decimal.NullDecimal, total decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateTip(tipAmount, tipPercent); err != nil {
		return decimal.Zero, err
	}
	if isSet(tipPercent) {
		return total.Mul(tipPercent.Decimal.Shift(-2)).Round(MoneyScale), nil
	}
	if tipAmount.Valid {
		return tipAmount.Decimal.Round(MoneyScale), nil
	}
	return decimal.Zero, nil
}

// Breakdown is the full money computation of a bill.
type Breakdown struct {
	Subtotal decimal.Decimal
	Taxes    decimal.Decimal
	Tip      decimal.Decimal
	Balance  decimal.Decimal
}

// Compute runs subtotal, taxes and tip for bill. The balance uses banker's
// rounding at this final step only.
func Compute(bill *models.Bill) (Breakdown, error) {
	subtotal := Subtotal(bill.Items)
	taxes := Taxes(subtotal, bill.Taxes)
	total := subtotal.Add(taxes)

	tip, err := Tip(bill.TipAmount, bill.TipPercent, total)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Subtotal: subtotal,
		Taxes:    taxes,
		Tip:      tip,
		Balance:  total.Add(tip).RoundBank(MoneyScale),
	}, nil
}

// Balance is the amount the whole bill costs: subtotal plus taxes plus tip.
func Balance(bill *models.Bill) (decimal.Decimal, error) {
	b, err := Compute(bill)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Balance, nil
}

// AmountRemaining is what is left to pay on totalOwed after amountPaid.
// The result may be negative; callers decide whether that is an error.
func AmountRemaining(totalOwed, amountPaid decimal.Decimal) decimal.Decimal {
	return totalOwed.Sub(amountPaid)
}
