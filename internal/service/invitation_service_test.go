package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

func pendingNotification(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	pending, err := env.invitations.ListNotifications(context.Background(), email)
	if err != nil {
		t.Fatalf("ListNotifications(%s) failed: %v", email, err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invitation for %s, got %d", email, len(pending))
	}
	return pending[0].NotificationID
}

func TestAnswerInvitation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	split, err := env.bills.CreateBillToAccount(ctx, balanceBill(), alice, []string{bob, carol})
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}
	bobNotification := pendingNotification(t, env, bob)
	carolNotification := pendingNotification(t, env, carol)

	rejects := []struct {
		name           string
		notificationID string
		email          string
		wantErr        error
	}{
		{"unknown notification", "missing", bob, apperr.ErrNotificationNotFound},
		{"someone else's notification", bobNotification, carol, apperr.ErrAccessForbidden},
		{"unknown account", bobNotification, "nobody@example.com", apperr.ErrAccessForbidden},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.invitations.AnswerInvitation(ctx, tt.notificationID, true, tt.email)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AnswerInvitation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("accept changes only the invitation status", func(t *testing.T) {
		got, err := env.invitations.AnswerInvitation(ctx, bobNotification, true, "BOB@example.com")
		if err != nil {
			t.Fatalf("AnswerInvitation failed: %v", err)
		}
		before := memberByEmail(t, split, bob)
		after := memberByEmail(t, got, bob)
		if after.InvitationStatus != models.InvitationAccepted {
			t.Errorf("expected ACCEPTED, got %s", after.InvitationStatus)
		}
		if !after.Percentage.Equal(before.Percentage) || !after.AmountPaid.Equal(before.AmountPaid) ||
			after.PaymentStatus != before.PaymentStatus {
			t.Errorf("membership fields changed: before %+v, after %+v", before, after)
		}
		if got.Status != models.BillOpen {
			t.Errorf("answering must not move the bill, got %s", got.Status)
		}

		pending, err := env.invitations.ListNotifications(ctx, bob)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("answered invitation still listed: %+v", pending)
		}
	})

	t.Run("answered invitations are terminal", func(t *testing.T) {
		for _, accept := range []bool{true, false} {
			_, err := env.invitations.AnswerInvitation(ctx, bobNotification, accept, bob)
			if !errors.Is(err, apperr.ErrWrongInvitationStatus) {
				t.Errorf("AnswerInvitation(accept=%v) error = %v, want ErrWrongInvitationStatus", accept, err)
			}
		}
	})

	// Move the bill out of OPEN with a payment from the creator.
	if _, err := env.payments.PayBill(ctx, alice, split.BillID, dec("10")); err != nil {
		t.Fatalf("PayBill failed: %v", err)
	}

	t.Run("declining on a bill that is not open", func(t *testing.T) {
		_, err := env.invitations.AnswerInvitation(ctx, carolNotification, false, carol)
		if !errors.Is(err, apperr.ErrWrongBillStatus) {
			t.Fatalf("expected ErrWrongBillStatus, got %v", err)
		}
	})

	t.Run("bill status is checked before invitation status", func(t *testing.T) {
		_, err := env.invitations.AnswerInvitation(ctx, bobNotification, false, bob)
		if !errors.Is(err, apperr.ErrWrongBillStatus) {
			t.Fatalf("expected ErrWrongBillStatus, got %v", err)
		}
	})

	t.Run("ownership is checked before bill status", func(t *testing.T) {
		_, err := env.invitations.AnswerInvitation(ctx, carolNotification, true, bob)
		if !errors.Is(err, apperr.ErrAccessForbidden) {
			t.Fatalf("expected ErrAccessForbidden, got %v", err)
		}
	})

	split, err = env.bills.GetBillSplit(ctx, split.BillID, alice)
	if err != nil {
		t.Fatalf("GetBillSplit failed: %v", err)
	}
	if m := memberByEmail(t, split, carol); m.InvitationStatus != models.InvitationPending {
		t.Errorf("rejected answer changed carol to %s", m.InvitationStatus)
	}
}

func TestDeclinedMemberOwesNothing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	split := env.sharedBill(t)
	if _, err := env.bills.InviteAccounts(ctx, alice, split.BillID, []string{carol}); err != nil {
		t.Fatalf("InviteAccounts failed: %v", err)
	}
	env.answerAll(t, false, carol)

	split, err := env.bills.GetBillSplit(ctx, split.BillID, alice)
	if err != nil {
		t.Fatalf("GetBillSplit failed: %v", err)
	}
	if len(split.Members) != 3 {
		t.Fatalf("declined membership should be kept, got %d members", len(split.Members))
	}
	m := memberByEmail(t, split, carol)
	if m.InvitationStatus != models.InvitationDeclined || !m.AmountOwed.IsZero() {
		t.Errorf("expected declined carol to owe nothing, got %+v", m)
	}

	if _, err := env.payments.PayBill(ctx, carol, split.BillID, dec("1")); !errors.Is(err, apperr.ErrAccountNotAssociatedToBill) {
		t.Errorf("expected ErrAccountNotAssociatedToBill for declined payer, got %v", err)
	}
}
