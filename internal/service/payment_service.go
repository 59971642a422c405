package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/calculator"
	"github.com/dannylekim/billsnap-sub000/internal/metrics"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/storage"
)

// PaymentService records payments and reports what accounts owe.
type PaymentService struct {
	deps
}

// NewPaymentService creates a new PaymentService with the given storage backend.
// rec may be nil.
func NewPaymentService(store storage.Store, rec metrics.Recorder) *PaymentService {
	return &PaymentService{deps: newDeps(store, rec)}
}

// PayBill records a payment of amount by email on billID and returns what
// remains to be paid on that member's share.
//
// Payments are only accepted while the members who have not declined carry
// the whole balance, so the bill cannot resolve with money owed by nobody.
// A payment larger than the remaining share is rejected whole. The first
// accepted payment moves the bill to IN_PROGRESS; the bill becomes RESOLVED
// once every member that has not declined has nothing left to pay.
func (s *PaymentService) PayBill(ctx context.Context, email, billID string, amount decimal.Decimal) (decimal.Decimal, error) {
	slog.Info("PayBill request received", "bill_id", billID, "email", email, "amount", amount.String())

	if !isPositive(amount) {
		return decimal.Zero, s.fail("PayBill", fmt.Errorf("%w: %s", apperr.ErrInvalidPaymentAmount, amount), "bill_id", billID)
	}

	var (
		remaining decimal.Decimal
		from, to  models.BillStatus
	)
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		account, err := tx.GetAccountByEmail(ctx, email)
		if err != nil {
			return err
		}
		bill, err := tx.GetBill(ctx, billID)
		if err != nil {
			return err
		}

		m, err := tx.GetMembership(ctx, bill.ID, account.ID)
		if err != nil {
			return err
		}
		if m == nil || !m.Obligated() {
			return fmt.Errorf("%w: %s on bill %s", apperr.ErrAccountNotAssociatedToBill, account.Email, bill.ID)
		}
		if bill.Status == models.BillResolved {
			return fmt.Errorf("%w: bill %s", apperr.ErrBillAlreadyResolved, bill.ID)
		}
		if m.PaymentStatus == models.PaymentPaid {
			return fmt.Errorf("%w: %s on bill %s", apperr.ErrBillAlreadyPaidFor, account.Email, bill.ID)
		}

		memberships, err := tx.ListMemberships(ctx, bill.ID)
		if err != nil {
			return err
		}
		if err := calculator.ValidateCoverage(bill, memberships); err != nil {
			return err
		}
		owed, err := calculator.MemberOwed(bill, memberships)
		if err != nil {
			return err
		}

		paid := m.AmountPaid.Add(amount)
		remaining = calculator.AmountRemaining(owed[account.ID], paid)
		if remaining.IsNegative() {
			return fmt.Errorf("%w: paying %s leaves %s", apperr.ErrCannotPayMoreThanOwed, amount, remaining)
		}

		m.AmountPaid = paid
		if remaining.IsZero() {
			m.PaymentStatus = models.PaymentPaid
		} else {
			m.PaymentStatus = models.PaymentInProgress
		}
		if err := tx.UpdateMembership(ctx, m); err != nil {
			return err
		}

		for i := range memberships {
			if memberships[i].AccountID == account.ID {
				memberships[i] = *m
			}
		}
		from = bill.Status
		next := models.BillInProgress
		if settled(memberships, owed) {
			next = models.BillResolved
		}
		if err := bill.Advance(next); err != nil {
			return err
		}
		to = bill.Status
		if to != from {
			return tx.SetBillStatus(ctx, bill.ID, to)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, s.fail("PayBill", err, "bill_id", billID, "email", email)
	}

	s.metrics.PaymentRecorded(amount.InexactFloat64())
	s.metrics.BillTransitioned(from, to)
	slog.Info("Payment recorded",
		"bill_id", billID,
		"remaining", remaining.String(),
		"bill_status", to,
	)
	return remaining, nil
}

// settled reports whether no obligated member has anything left to pay.
func settled(memberships []models.BillMembership, owed map[string]decimal.Decimal) bool {
	for _, m := range memberships {
		if !m.Obligated() {
			continue
		}
		if calculator.AmountRemaining(owed[m.AccountID], m.AmountPaid).IsPositive() {
			return false
		}
	}
	return true
}

// AmountOwed is what an account owes to one responsible party across bills.
type AmountOwed struct {
	Email  string
	Amount decimal.Decimal
}

// AmountsOwed sums what email still owes on OPEN bills it has joined,
// grouped by the email of each bill's responsible account. Bills the
// account is responsible for are skipped. Results are sorted by email.
func (s *PaymentService) AmountsOwed(ctx context.Context, email string) ([]AmountOwed, error) {
	var result []AmountOwed
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		account, err := tx.GetAccountByEmail(ctx, email)
		if err != nil {
			return err
		}
		billIDs, err := tx.ListBillIDsForAccount(ctx, account.ID, models.BillOpen)
		if err != nil {
			return err
		}

		var debts []calculator.Debt
		for _, id := range billIDs {
			bill, err := tx.GetBill(ctx, id)
			if err != nil {
				return err
			}
			if bill.ResponsibleID == account.ID {
				continue
			}
			memberships, err := tx.ListMemberships(ctx, bill.ID)
			if err != nil {
				return err
			}
			var mine *models.BillMembership
			for i := range memberships {
				if memberships[i].AccountID == account.ID {
					mine = &memberships[i]
				}
			}
			if mine == nil || mine.InvitationStatus != models.InvitationAccepted {
				continue
			}

			owed, err := calculator.MemberOwed(bill, memberships)
			if err != nil {
				return err
			}
			debts = append(debts, calculator.Debt{
				DebtorID:   account.ID,
				CreditorID: bill.ResponsibleID,
				Amount:     calculator.AmountRemaining(owed[account.ID], mine.AmountPaid),
			})
		}

		totals := calculator.AggregateOwed(debts)
		creditorIDs := make([]string, 0, len(totals))
		for _, t := range totals {
			creditorIDs = append(creditorIDs, t.CreditorID)
		}
		creditors, err := tx.GetAccountsByIDs(ctx, creditorIDs)
		if err != nil {
			return err
		}

		result = make([]AmountOwed, 0, len(totals))
		for _, t := range totals {
			result = append(result, AmountOwed{Email: emailOf(creditors, t.CreditorID), Amount: t.Amount})
		}
		sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
		return nil
	})
	if err != nil {
		return nil, s.fail("AmountsOwed", err, "email", email)
	}
	return result, nil
}
