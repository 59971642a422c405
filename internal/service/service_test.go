package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/metrics"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/storage/sqlite"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
	carol = "carol@example.com"
	dave  = "dave@example.com"
)

type testEnv struct {
	store       *sqlite.SQLiteStore
	bills       *BillService
	invitations *InvitationService
	payments    *PaymentService
}

// setupTestEnv creates services over a temporary SQLite database with four
// registered accounts.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, email := range []string{alice, bob, carol, dave} {
		if err := store.CreateAccount(context.Background(), &models.Account{Email: email}); err != nil {
			t.Fatalf("failed to create account %s: %v", email, err)
		}
	}

	rec := metrics.New(prometheus.NewRegistry())
	return &testEnv{
		store:       store,
		bills:       NewBillService(store, rec),
		invitations: NewInvitationService(store, rec),
		payments:    NewPaymentService(store, nil),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

// balanceBill is a 100.00 bill with no taxes and no tip, split by balance.
func balanceBill() BillData {
	return BillData{
		Name:        "Groceries",
		SplitMethod: models.SplitByBalance,
		TipAmount:   nullDec("0"),
		Items:       []ItemData{{Name: "Basket", Cost: dec("100.00")}},
	}
}

// answerAll answers every pending invitation of each email.
func (e *testEnv) answerAll(t *testing.T, accept bool, emails ...string) {
	t.Helper()
	ctx := context.Background()
	for _, email := range emails {
		pending, err := e.invitations.ListNotifications(ctx, email)
		if err != nil {
			t.Fatalf("ListNotifications(%s) failed: %v", email, err)
		}
		for _, p := range pending {
			if _, err := e.invitations.AnswerInvitation(ctx, p.NotificationID, accept, email); err != nil {
				t.Fatalf("AnswerInvitation(%s) failed: %v", email, err)
			}
		}
	}
}

// sharedBill creates a balance-split bill owned by alice with bob at 40%.
// Bob has accepted.
func (e *testEnv) sharedBill(t *testing.T) *models.BillSplit {
	t.Helper()
	ctx := context.Background()

	split, err := e.bills.CreateBillToAccount(ctx, balanceBill(), alice, []string{bob})
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}
	e.answerAll(t, true, bob)

	split, err = e.bills.AssignBillPercentages(ctx, split.BillID, alice, []ShareData{
		{Email: alice, Percentage: dec("60")},
		{Email: bob, Percentage: dec("40")},
	})
	if err != nil {
		t.Fatalf("AssignBillPercentages failed: %v", err)
	}
	return split
}

func memberByEmail(t *testing.T, split *models.BillSplit, email string) *models.MemberSplit {
	t.Helper()
	for i := range split.Members {
		if split.Members[i].Email == email {
			return &split.Members[i]
		}
	}
	t.Fatalf("member %s not found on bill %s", email, split.BillID)
	return nil
}
