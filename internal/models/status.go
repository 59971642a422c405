package models

import (
	"fmt"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
)

// BillStatus is the lifecycle state of a bill.
type BillStatus string

const (
	// BillOpen accepts invitations, answers and edits.
	BillOpen BillStatus = "OPEN"
	// BillInProgress has at least one recorded payment and is not settled.
	BillInProgress BillStatus = "IN_PROGRESS"
	// BillResolved is terminal: every non-declined member has paid their share.
	BillResolved BillStatus = "RESOLVED"
)

func (s BillStatus) rank() int {
	switch s {
	case BillOpen:
		return 0
	case BillInProgress:
		return 1
	case BillResolved:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether the lifecycle allows moving from s to next.
// Only forward moves are allowed; OPEN may jump to RESOLVED when a single
// payment settles the whole bill.
func (s BillStatus) CanAdvanceTo(next BillStatus) bool {
	from, to := s.rank(), next.rank()
	return from >= 0 && to >= 0 && to > from
}

// Valid reports whether s is a known status.
func (s BillStatus) Valid() bool { return s.rank() >= 0 }

// InvitationStatus is a member's answer to a bill invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
)

// Answer returns the status that results from answering a pending invitation.
// ACCEPTED and DECLINED are terminal.
func (s InvitationStatus) Answer(accept bool) (InvitationStatus, error) {
	if s != InvitationPending {
		return s, fmt.Errorf("%w: invitation is %s", apperr.ErrWrongInvitationStatus, s)
	}
	if accept {
		return InvitationAccepted, nil
	}
	return InvitationDeclined, nil
}

// PaymentStatus tracks whether a membership's share is settled.
type PaymentStatus string

const (
	PaymentInProgress PaymentStatus = "IN_PROGRESS"
	PaymentPaid       PaymentStatus = "PAID"
)

// SplitMethod selects how a bill's balance is divided among members.
type SplitMethod string

const (
	// SplitByItem derives each share from the member's item shares.
	SplitByItem SplitMethod = "ITEM"
	// SplitByBalance uses each membership's flat percentage of the balance.
	SplitByBalance SplitMethod = "BALANCE"
)

// Valid reports whether m is a known split method.
func (m SplitMethod) Valid() bool {
	return m == SplitByItem || m == SplitByBalance
}
