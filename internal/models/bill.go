package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
)

// Bill represents a shared expense to be settled among its members.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	Name     string
	Category string
	Company  string

	// CreatorID is the account that created the bill.
	CreatorID string

	// ResponsibleID is the account financially accountable for the bill.
	// Members owe their share to this account.
	ResponsibleID string

	Status      BillStatus
	SplitMethod SplitMethod

	// TipAmount and TipPercent are mutually exclusive; see calculator.Tip.
	TipAmount  decimal.NullDecimal
	TipPercent decimal.NullDecimal

	// Taxes apply in order, each compounding on the previous total.
	Taxes []Tax

	// Items are the cost lines of the bill, in insertion order.
	Items []Item

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Tax is a named percentage applied on top of the running bill total.
type Tax struct {
	Name       string
	Percentage decimal.Decimal
}

// Item represents a single cost line on a bill.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// BillID is the owning bill.
	BillID string

	Name string

	// Cost is the non-negative price of the item at money scale.
	Cost decimal.Decimal

	// Shares assign percentages of this item to accounts.
	// When set, they sum to 100.
	Shares []ItemShare
}

// ItemShare is the percentage (0-100) of one item assigned to one account.
type ItemShare struct {
	ItemID     string
	AccountID  string
	Percentage decimal.Decimal
}

// VerifyOpen is the guard used before invitations, answers and edits.
func (b *Bill) VerifyOpen() error {
	switch b.Status {
	case BillOpen:
		return nil
	case BillResolved:
		return fmt.Errorf("%w: bill %s", apperr.ErrBillAlreadyResolved, b.ID)
	default:
		return fmt.Errorf("%w: bill %s is %s", apperr.ErrWrongBillStatus, b.ID, b.Status)
	}
}

// Advance moves the bill forward to next. Moving to the current status is a no-op.
func (b *Bill) Advance(next BillStatus) error {
	if b.Status == next {
		return nil
	}
	if !b.Status.CanAdvanceTo(next) {
		return fmt.Errorf("%w: cannot move bill %s from %s to %s",
			apperr.ErrWrongBillStatus, b.ID, b.Status, next)
	}
	b.Status = next
	return nil
}

// FindItem returns the item with the given ID, or nil.
func (b *Bill) FindItem(itemID string) *Item {
	for i := range b.Items {
		if b.Items[i].ID == itemID {
			return &b.Items[i]
		}
	}
	return nil
}
