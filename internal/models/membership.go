package models

import "github.com/shopspring/decimal"

// BillMembership joins an account to a bill. It is the only record the
// invitation and payment workflows mutate.
type BillMembership struct {
	BillID    string
	AccountID string

	// Percentage is this account's share of the whole bill.
	// Only meaningful when the bill is split by balance.
	Percentage decimal.Decimal

	InvitationStatus InvitationStatus
	PaymentStatus    PaymentStatus

	// AmountPaid accumulates payments. It never decreases.
	AmountPaid decimal.Decimal
}

// NewMembership builds a membership with nothing paid yet.
func NewMembership(billID, accountID string, percentage decimal.Decimal, status InvitationStatus) *BillMembership {
	return &BillMembership{
		BillID:           billID,
		AccountID:        accountID,
		Percentage:       percentage,
		InvitationStatus: status,
		PaymentStatus:    PaymentInProgress,
		AmountPaid:       decimal.Zero,
	}
}

// Obligated reports whether the member still carries a share of the bill.
// Declined members keep their row but owe nothing.
func (m *BillMembership) Obligated() bool {
	return m.InvitationStatus != InvitationDeclined
}
