// Package service implements the bill, invitation and payment workflows on
// top of a storage.Store. Every mutating operation runs in one Store.InTx
// unit of work.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/calculator"
	"github.com/dannylekim/billsnap-sub000/internal/metrics"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/storage"
)

// deps is shared by all services.
type deps struct {
	store   storage.Store
	metrics metrics.Recorder
}

func newDeps(store storage.Store, rec metrics.Recorder) deps {
	if rec == nil {
		rec = (*metrics.Metrics)(nil)
	}
	return deps{store: store, metrics: rec}
}

// fail records a failed operation and returns err unchanged.
// Business-rule failures are logged at WARN, everything else at ERROR.
func (d deps) fail(op string, err error, attrs ...any) error {
	d.metrics.OperationFailed(op, err)
	attrs = append(attrs, "code", apperr.Code(err), "error", err)
	if apperr.KindOf(err) == apperr.KindInternal {
		slog.Error(op+" failed", attrs...)
	} else {
		slog.Warn(op+" rejected", attrs...)
	}
	return err
}

// buildSplit assembles the read model of bill from its memberships.
func buildSplit(ctx context.Context, tx storage.Tx, bill *models.Bill) (*models.BillSplit, error) {
	memberships, err := tx.ListMemberships(ctx, bill.ID)
	if err != nil {
		return nil, err
	}

	ids := []string{bill.CreatorID, bill.ResponsibleID}
	for _, m := range memberships {
		ids = append(ids, m.AccountID)
	}
	accounts, err := tx.GetAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	breakdown, err := calculator.Compute(bill)
	if err != nil {
		return nil, err
	}
	owed, err := calculator.MemberOwed(bill, memberships)
	if err != nil {
		return nil, err
	}

	split := &models.BillSplit{
		BillID:           bill.ID,
		Name:             bill.Name,
		Category:         bill.Category,
		Company:          bill.Company,
		Status:           bill.Status,
		SplitMethod:      bill.SplitMethod,
		CreatorEmail:     emailOf(accounts, bill.CreatorID),
		ResponsibleEmail: emailOf(accounts, bill.ResponsibleID),
		TipAmount:        bill.TipAmount,
		TipPercent:       bill.TipPercent,
		Taxes:            bill.Taxes,
		Items:            bill.Items,
		Subtotal:         breakdown.Subtotal,
		TaxTotal:         breakdown.Taxes,
		Tip:              breakdown.Tip,
		Balance:          breakdown.Balance,
		Members:          make([]models.MemberSplit, 0, len(memberships)),
		CreatedAt:        bill.CreatedAt,
		UpdatedAt:        bill.UpdatedAt,
	}

	for _, m := range memberships {
		split.Members = append(split.Members, models.MemberSplit{
			AccountID:        m.AccountID,
			Email:            emailOf(accounts, m.AccountID),
			Percentage:       m.Percentage,
			InvitationStatus: m.InvitationStatus,
			PaymentStatus:    m.PaymentStatus,
			AmountOwed:       owed[m.AccountID],
			AmountPaid:       m.AmountPaid,
			AmountRemaining:  calculator.AmountRemaining(owed[m.AccountID], m.AmountPaid),
		})
	}

	return split, nil
}

func emailOf(accounts map[string]*models.Account, id string) string {
	if a, ok := accounts[id]; ok {
		return a.Email
	}
	return ""
}

// findBillItem returns the item of bill with the given ID, telling apart an
// unknown item from one that belongs to another bill.
func findBillItem(ctx context.Context, tx storage.Tx, bill *models.Bill, itemID string) (*models.Item, error) {
	if item := bill.FindItem(itemID); item != nil {
		return item, nil
	}
	item, err := tx.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: item %s belongs to bill %s", apperr.ErrItemNotInBill, itemID, item.BillID)
}

// requireResponsible loads the caller and the bill and checks that the
// caller is the bill's responsible account.
func requireResponsible(ctx context.Context, tx storage.Tx, billID, email string) (*models.Account, *models.Bill, error) {
	caller, err := tx.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	bill, err := tx.GetBill(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	if bill.ResponsibleID != caller.ID {
		return nil, nil, fmt.Errorf("%w: %s is not responsible for bill %s",
			apperr.ErrAccessForbidden, caller.Email, bill.ID)
	}
	return caller, bill, nil
}

func isPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
