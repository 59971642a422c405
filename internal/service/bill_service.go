package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/calculator"
	"github.com/dannylekim/billsnap-sub000/internal/metrics"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/storage"
)

// BillData is the caller-supplied content of a bill.
type BillData struct {
	Name     string
	Category string
	Company  string

	// ResponsibleEmail names the account members owe. Empty means the
	// creator on create and "unchanged" on edit.
	ResponsibleEmail string

	SplitMethod models.SplitMethod
	TipAmount   decimal.NullDecimal
	TipPercent  decimal.NullDecimal
	Taxes       []models.Tax
	Items       []ItemData
}

// ItemData is an item to add (empty ID) or update (existing ID).
type ItemData struct {
	ID   string
	Name string
	Cost decimal.Decimal
}

// ShareData assigns a percentage to the account with the given email.
type ShareData struct {
	Email      string
	Percentage decimal.Decimal
}

// validate rejects malformed input before any state is read.
func (d *BillData) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrInvalidBillData)
	}
	if !d.SplitMethod.Valid() {
		return fmt.Errorf("%w: unknown split method %q", apperr.ErrInvalidBillData, d.SplitMethod)
	}
	for _, item := range d.Items {
		if item.Cost.IsNegative() {
			return fmt.Errorf("%w: item %q has a negative cost", apperr.ErrInvalidBillData, item.Name)
		}
	}
	for _, tax := range d.Taxes {
		if tax.Percentage.IsNegative() {
			return fmt.Errorf("%w: tax %q is negative", apperr.ErrInvalidBillData, tax.Name)
		}
	}
	if (d.TipAmount.Valid && d.TipAmount.Decimal.IsNegative()) ||
		(d.TipPercent.Valid && d.TipPercent.Decimal.IsNegative()) {
		return fmt.Errorf("%w: tip is negative", apperr.ErrInvalidBillData)
	}
	return calculator.ValidateTip(d.TipAmount, d.TipPercent)
}

// BillService creates, edits and reads bills and manages their members.
type BillService struct {
	deps
}

// NewBillService creates a new BillService with the given storage backend.
// rec may be nil.
func NewBillService(store storage.Store, rec metrics.Recorder) *BillService {
	return &BillService{deps: newDeps(store, rec)}
}

// CreateBillToAccount creates an OPEN bill. The creator joins at 100% and is
// already accepted; every invited account gets a PENDING membership and a
// notification.
func (s *BillService) CreateBillToAccount(ctx context.Context, data BillData, creatorEmail string, invitedEmails []string) (*models.BillSplit, error) {
	slog.Info("CreateBillToAccount request received",
		"name", data.Name,
		"creator", creatorEmail,
		"items_count", len(data.Items),
		"invited_count", len(invitedEmails),
	)

	if err := data.validate(); err != nil {
		return nil, s.fail("CreateBillToAccount", err)
	}

	var split *models.BillSplit
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		creator, err := tx.GetAccountByEmail(ctx, creatorEmail)
		if err != nil {
			return err
		}
		responsible := creator
		if data.ResponsibleEmail != "" {
			if responsible, err = tx.GetAccountByEmail(ctx, data.ResponsibleEmail); err != nil {
				return err
			}
		}

		bill := &models.Bill{
			Name:          data.Name,
			Category:      data.Category,
			Company:       data.Company,
			CreatorID:     creator.ID,
			ResponsibleID: responsible.ID,
			Status:        models.BillOpen,
			SplitMethod:   data.SplitMethod,
			TipAmount:     data.TipAmount,
			TipPercent:    data.TipPercent,
			Taxes:         data.Taxes,
			Items:         make([]models.Item, 0, len(data.Items)),
		}
		for _, item := range data.Items {
			bill.Items = append(bill.Items, models.Item{Name: item.Name, Cost: item.Cost})
		}
		if err := tx.CreateBill(ctx, bill); err != nil {
			return err
		}

		owner := models.NewMembership(bill.ID, creator.ID, decimal.NewFromInt(100), models.InvitationAccepted)
		if err := tx.CreateMembership(ctx, owner); err != nil {
			return err
		}

		for _, email := range dedupeEmails(invitedEmails, creator.Email) {
			account, err := tx.GetAccountByEmail(ctx, email)
			if err != nil {
				return err
			}
			if err := invite(ctx, tx, bill, account); err != nil {
				return err
			}
		}

		split, err = buildSplit(ctx, tx, bill)
		return err
	})
	if err != nil {
		return nil, s.fail("CreateBillToAccount", err, "creator", creatorEmail)
	}

	s.metrics.BillCreated(split.SplitMethod)
	slog.Info("Bill created", "bill_id", split.BillID, "members", len(split.Members))
	return split, nil
}

// EditBill replaces the bill's descriptive fields, tip and taxes, and adds
// or updates items. Only the responsible account may edit, and only while
// the bill is OPEN.
func (s *BillService) EditBill(ctx context.Context, billID, email string, data BillData) (*models.BillSplit, error) {
	slog.Info("EditBill request received", "bill_id", billID, "email", email)

	if err := data.validate(); err != nil {
		return nil, s.fail("EditBill", err, "bill_id", billID)
	}

	var split *models.BillSplit
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		_, bill, err := requireResponsible(ctx, tx, billID, email)
		if err != nil {
			return err
		}
		if err := bill.VerifyOpen(); err != nil {
			return err
		}

		if data.ResponsibleEmail != "" {
			next, err := tx.GetAccountByEmail(ctx, data.ResponsibleEmail)
			if err != nil {
				return err
			}
			if next.ID != bill.ResponsibleID {
				m, err := tx.GetMembership(ctx, bill.ID, next.ID)
				if err != nil {
					return err
				}
				if m == nil || m.InvitationStatus != models.InvitationAccepted {
					return fmt.Errorf("%w: new responsible %s has not joined bill %s",
						apperr.ErrAccountNotAssociatedToBill, next.Email, bill.ID)
				}
				bill.ResponsibleID = next.ID
			}
		}

		bill.Name = data.Name
		bill.Category = data.Category
		bill.Company = data.Company
		bill.SplitMethod = data.SplitMethod
		bill.TipAmount = data.TipAmount
		bill.TipPercent = data.TipPercent
		bill.Taxes = data.Taxes

		for _, in := range data.Items {
			if in.ID == "" {
				item := &models.Item{BillID: bill.ID, Name: in.Name, Cost: in.Cost}
				if err := tx.CreateItem(ctx, item); err != nil {
					return err
				}
				continue
			}
			item, err := findBillItem(ctx, tx, bill, in.ID)
			if err != nil {
				return err
			}
			item.Name = in.Name
			item.Cost = in.Cost
			if err := tx.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		if err := tx.UpdateBill(ctx, bill); err != nil {
			return err
		}

		updated, err := tx.GetBill(ctx, bill.ID)
		if err != nil {
			return err
		}
		split, err = buildSplit(ctx, tx, updated)
		return err
	})
	if err != nil {
		return nil, s.fail("EditBill", err, "bill_id", billID)
	}

	slog.Info("Bill updated", "bill_id", billID, "items_count", len(split.Items))
	return split, nil
}

// GetBillSplit returns the bill-split view. Only members and the
// responsible account may read it.
func (s *BillService) GetBillSplit(ctx context.Context, billID, email string) (*models.BillSplit, error) {
	var split *models.BillSplit
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		caller, err := tx.GetAccountByEmail(ctx, email)
		if err != nil {
			return err
		}
		bill, err := tx.GetBill(ctx, billID)
		if err != nil {
			return err
		}

		split, err = buildSplit(ctx, tx, bill)
		if err != nil {
			return err
		}
		if bill.ResponsibleID != caller.ID && split.Member(caller.ID) == nil {
			return fmt.Errorf("%w: %s is not a member of bill %s", apperr.ErrAccessForbidden, caller.Email, bill.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("GetBillSplit", err, "bill_id", billID)
	}
	return split, nil
}

// InviteAccounts invites accounts to an OPEN bill. An account whose
// invitation is still pending is notified again; one that already answered
// cannot be re-invited.
func (s *BillService) InviteAccounts(ctx context.Context, responsibleEmail, billID string, emails []string) (*models.BillSplit, error) {
	slog.Info("InviteAccounts request received", "bill_id", billID, "invited_count", len(emails))

	var split *models.BillSplit
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		caller, bill, err := requireResponsible(ctx, tx, billID, responsibleEmail)
		if err != nil {
			return err
		}
		if err := bill.VerifyOpen(); err != nil {
			return err
		}

		for _, email := range dedupeEmails(emails, caller.Email) {
			account, err := tx.GetAccountByEmail(ctx, email)
			if err != nil {
				return err
			}
			if err := invite(ctx, tx, bill, account); err != nil {
				return err
			}
		}

		split, err = buildSplit(ctx, tx, bill)
		return err
	})
	if err != nil {
		return nil, s.fail("InviteAccounts", err, "bill_id", billID)
	}

	slog.Info("Accounts invited", "bill_id", billID, "members", len(split.Members))
	return split, nil
}

// AssignItemShares replaces the shares of one item. Shares must go to
// members that have not declined and must sum to 100.
func (s *BillService) AssignItemShares(ctx context.Context, billID, email, itemID string, shares []ShareData) (*models.BillSplit, error) {
	slog.Info("AssignItemShares request received", "bill_id", billID, "item_id", itemID, "shares_count", len(shares))

	var split *models.BillSplit
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		_, bill, err := requireResponsible(ctx, tx, billID, email)
		if err != nil {
			return err
		}
		if err := bill.VerifyOpen(); err != nil {
			return err
		}
		item, err := findBillItem(ctx, tx, bill, itemID)
		if err != nil {
			return err
		}

		resolved, err := resolveShares(ctx, tx, bill.ID, shares)
		if err != nil {
			return err
		}
		itemShares := make([]models.ItemShare, 0, len(resolved))
		for _, r := range resolved {
			itemShares = append(itemShares, models.ItemShare{
				ItemID:     item.ID,
				AccountID:  r.membership.AccountID,
				Percentage: r.percentage,
			})
		}
		if err := tx.ReplaceItemShares(ctx, item.ID, itemShares); err != nil {
			return err
		}

		updated, err := tx.GetBill(ctx, bill.ID)
		if err != nil {
			return err
		}
		split, err = buildSplit(ctx, tx, updated)
		return err
	})
	if err != nil {
		return nil, s.fail("AssignItemShares", err, "bill_id", billID, "item_id", itemID)
	}
	return split, nil
}

// AssignBillPercentages sets each member's share of the whole bill.
// Members not listed get 0%.
func (s *BillService) AssignBillPercentages(ctx context.Context, billID, email string, shares []ShareData) (*models.BillSplit, error) {
	slog.Info("AssignBillPercentages request received", "bill_id", billID, "shares_count", len(shares))

	var split *models.BillSplit
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		_, bill, err := requireResponsible(ctx, tx, billID, email)
		if err != nil {
			return err
		}
		if err := bill.VerifyOpen(); err != nil {
			return err
		}

		resolved, err := resolveShares(ctx, tx, bill.ID, shares)
		if err != nil {
			return err
		}
		assigned := make(map[string]decimal.Decimal, len(resolved))
		for _, r := range resolved {
			assigned[r.membership.AccountID] = r.percentage
		}

		memberships, err := tx.ListMemberships(ctx, bill.ID)
		if err != nil {
			return err
		}
		for i := range memberships {
			m := &memberships[i]
			m.Percentage = assigned[m.AccountID]
			if err := tx.UpdateMembership(ctx, m); err != nil {
				return err
			}
		}

		split, err = buildSplit(ctx, tx, bill)
		return err
	})
	if err != nil {
		return nil, s.fail("AssignBillPercentages", err, "bill_id", billID)
	}
	return split, nil
}

// invite creates (or reuses a pending) membership for account on bill and
// records a notification.
func invite(ctx context.Context, tx storage.Tx, bill *models.Bill, account *models.Account) error {
	m, err := tx.GetMembership(ctx, bill.ID, account.ID)
	if err != nil {
		return err
	}
	switch {
	case m == nil:
		m = models.NewMembership(bill.ID, account.ID, decimal.Zero, models.InvitationPending)
		if err := tx.CreateMembership(ctx, m); err != nil {
			return err
		}
	case m.InvitationStatus != models.InvitationPending:
		return fmt.Errorf("%w: %s already answered the invitation to bill %s",
			apperr.ErrWrongInvitationStatus, account.Email, bill.ID)
	}

	return tx.CreateNotification(ctx, &models.Notification{BillID: bill.ID, AccountID: account.ID})
}

type resolvedShare struct {
	membership *models.BillMembership
	percentage decimal.Decimal
}

// resolveShares maps share emails to obligated memberships of the bill and
// validates the percentages.
func resolveShares(ctx context.Context, tx storage.Tx, billID string, shares []ShareData) ([]resolvedShare, error) {
	percentages := make([]decimal.Decimal, 0, len(shares))
	seen := make(map[string]bool, len(shares))
	resolved := make([]resolvedShare, 0, len(shares))

	for _, share := range shares {
		account, err := tx.GetAccountByEmail(ctx, share.Email)
		if err != nil {
			return nil, err
		}
		if seen[account.ID] {
			return nil, fmt.Errorf("%w: %s listed twice", apperr.ErrInvalidSharePercentages, account.Email)
		}
		seen[account.ID] = true

		m, err := tx.GetMembership(ctx, billID, account.ID)
		if err != nil {
			return nil, err
		}
		if m == nil || !m.Obligated() {
			return nil, fmt.Errorf("%w: %s on bill %s", apperr.ErrAccountNotAssociatedToBill, account.Email, billID)
		}

		percentages = append(percentages, share.Percentage)
		resolved = append(resolved, resolvedShare{membership: m, percentage: share.Percentage})
	}

	if err := calculator.ValidatePercentages(percentages); err != nil {
		return nil, err
	}
	return resolved, nil
}

// dedupeEmails normalizes emails, drops duplicates and drops skip.
func dedupeEmails(emails []string, skip string) []string {
	seen := map[string]bool{models.NormalizeEmail(skip): true}
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = models.NormalizeEmail(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
