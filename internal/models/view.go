package models

import "github.com/shopspring/decimal"

// BillSplit is the read model returned by every bill operation.
// It is what the presentation layer serializes.
type BillSplit struct {
	BillID   string
	Name     string
	Category string
	Company  string

	Status      BillStatus
	SplitMethod SplitMethod

	CreatorEmail     string
	ResponsibleEmail string

	TipAmount  decimal.NullDecimal
	TipPercent decimal.NullDecimal
	Taxes      []Tax
	Items      []Item

	// Subtotal, TaxTotal, Tip and Balance are computed at money scale.
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Tip      decimal.Decimal
	Balance  decimal.Decimal

	Members []MemberSplit

	CreatedAt int64
	UpdatedAt int64
}

// MemberSplit is one member's computed position on a bill.
type MemberSplit struct {
	AccountID string
	Email     string

	Percentage       decimal.Decimal
	InvitationStatus InvitationStatus
	PaymentStatus    PaymentStatus

	AmountOwed      decimal.Decimal
	AmountPaid      decimal.Decimal
	AmountRemaining decimal.Decimal
}

// Member returns the split for the given account, or nil.
func (s *BillSplit) Member(accountID string) *MemberSplit {
	for i := range s.Members {
		if s.Members[i].AccountID == accountID {
			return &s.Members[i]
		}
	}
	return nil
}
