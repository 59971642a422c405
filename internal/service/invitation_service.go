package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/metrics"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/storage"
)

// InvitationService lets invited accounts answer their invitations.
type InvitationService struct {
	deps
}

// NewInvitationService creates a new InvitationService with the given storage backend.
// rec may be nil.
func NewInvitationService(store storage.Store, rec metrics.Recorder) *InvitationService {
	return &InvitationService{deps: newDeps(store, rec)}
}

// AnswerInvitation accepts or declines the invitation behind notificationID.
//
// The checks run in a fixed order: the notification must exist, belong to
// email, point at an OPEN bill, and the membership must still be PENDING.
// Only the invitation status changes.
func (s *InvitationService) AnswerInvitation(ctx context.Context, notificationID string, accept bool, email string) (*models.BillSplit, error) {
	slog.Info("AnswerInvitation request received",
		"notification_id", notificationID,
		"accept", accept,
		"email", email,
	)

	var (
		split  *models.BillSplit
		answer models.InvitationStatus
	)
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		n, err := tx.GetNotification(ctx, notificationID)
		if err != nil {
			return err
		}

		invited, err := tx.GetAccount(ctx, n.AccountID)
		if err != nil {
			return err
		}
		if invited.Email != models.NormalizeEmail(email) {
			return fmt.Errorf("%w: notification %s is not addressed to %s",
				apperr.ErrAccessForbidden, notificationID, email)
		}

		bill, err := tx.GetBill(ctx, n.BillID)
		if err != nil {
			return err
		}
		if bill.Status != models.BillOpen {
			return fmt.Errorf("%w: bill %s is %s", apperr.ErrWrongBillStatus, bill.ID, bill.Status)
		}

		m, err := tx.GetMembership(ctx, bill.ID, invited.ID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: %s on bill %s", apperr.ErrAccountNotAssociatedToBill, invited.Email, bill.ID)
		}
		if answer, err = m.InvitationStatus.Answer(accept); err != nil {
			return err
		}
		m.InvitationStatus = answer
		if err := tx.UpdateMembership(ctx, m); err != nil {
			return err
		}

		split, err = buildSplit(ctx, tx, bill)
		return err
	})
	if err != nil {
		return nil, s.fail("AnswerInvitation", err, "notification_id", notificationID)
	}

	s.metrics.InvitationAnswered(answer)
	slog.Info("Invitation answered", "bill_id", split.BillID, "status", answer)
	return split, nil
}

// PendingInvitation is a notification whose invitation is still unanswered.
type PendingInvitation struct {
	NotificationID string
	BillID         string
	BillName       string
	InvitedBy      string // email of the bill's responsible account
	CreatedAt      int64
}

// ListNotifications returns the invitations email can still answer,
// newest first. Repeated notifications for the same bill are collapsed to
// the newest one.
func (s *InvitationService) ListNotifications(ctx context.Context, email string) ([]PendingInvitation, error) {
	var pending []PendingInvitation
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		account, err := tx.GetAccountByEmail(ctx, email)
		if err != nil {
			return err
		}
		notifications, err := tx.ListNotificationsForAccount(ctx, account.ID)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, n := range notifications {
			if seen[n.BillID] {
				continue
			}
			seen[n.BillID] = true

			bill, err := tx.GetBill(ctx, n.BillID)
			if err != nil {
				return err
			}
			if bill.Status != models.BillOpen {
				continue
			}
			m, err := tx.GetMembership(ctx, bill.ID, account.ID)
			if err != nil {
				return err
			}
			if m == nil || m.InvitationStatus != models.InvitationPending {
				continue
			}
			responsible, err := tx.GetAccount(ctx, bill.ResponsibleID)
			if err != nil {
				return err
			}

			pending = append(pending, PendingInvitation{
				NotificationID: n.ID,
				BillID:         bill.ID,
				BillName:       bill.Name,
				InvitedBy:      responsible.Email,
				CreatedAt:      n.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("ListNotifications", err, "email", email)
	}
	return pending, nil
}
