package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

func TestCreateBillToAccount_CreatorOnly(t *testing.T) {
	env := setupTestEnv(t)

	data := BillData{
		Name:        "Lunch",
		Category:    "Food",
		Company:     "Deli",
		SplitMethod: models.SplitByBalance,
		TipAmount:   nullDec("0"),
		Taxes: []models.Tax{
			{Name: "GST", Percentage: dec("10")},
			{Name: "Luxury", Percentage: dec("25.6")},
		},
		Items: []ItemData{{Name: "Sandwich", Cost: dec("10.00")}},
	}

	split, err := env.bills.CreateBillToAccount(context.Background(), data, alice, nil)
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}

	if split.Status != models.BillOpen {
		t.Errorf("expected status OPEN, got %s", split.Status)
	}
	if split.CreatorEmail != alice || split.ResponsibleEmail != alice {
		t.Errorf("creator/responsible = %s/%s, want %s", split.CreatorEmail, split.ResponsibleEmail, alice)
	}
	if len(split.Members) != 1 {
		t.Fatalf("expected 1 membership, got %d", len(split.Members))
	}

	m := split.Members[0]
	if !m.Percentage.Equal(dec("100")) {
		t.Errorf("expected creator share 100, got %s", m.Percentage)
	}
	if m.InvitationStatus != models.InvitationAccepted {
		t.Errorf("expected creator to be ACCEPTED, got %s", m.InvitationStatus)
	}
	if !split.TaxTotal.Equal(dec("3.82")) {
		t.Errorf("expected taxes 3.82, got %s", split.TaxTotal)
	}
	if !split.Balance.Equal(dec("13.82")) || !m.AmountOwed.Equal(dec("13.82")) {
		t.Errorf("expected balance and owed 13.82, got %s and %s", split.Balance, m.AmountOwed)
	}
	if !m.AmountRemaining.Equal(m.AmountOwed) {
		t.Errorf("nothing paid yet, remaining %s != owed %s", m.AmountRemaining, m.AmountOwed)
	}
}

func TestCreateBillToAccount_Invitations(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	split, err := env.bills.CreateBillToAccount(ctx, balanceBill(), alice, []string{bob, " CAROL@example.com", bob, alice})
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}

	if len(split.Members) != 3 {
		t.Fatalf("expected creator plus 2 invitees, got %d members", len(split.Members))
	}
	for _, email := range []string{bob, carol} {
		m := memberByEmail(t, split, email)
		if m.InvitationStatus != models.InvitationPending {
			t.Errorf("%s: expected PENDING, got %s", email, m.InvitationStatus)
		}
		if !m.Percentage.IsZero() || !m.AmountOwed.IsZero() {
			t.Errorf("%s: expected no share before assignment, got %s%% owing %s", email, m.Percentage, m.AmountOwed)
		}

		pending, err := env.invitations.ListNotifications(ctx, email)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(pending) != 1 || pending[0].BillID != split.BillID || pending[0].InvitedBy != alice {
			t.Errorf("%s: unexpected notifications %+v", email, pending)
		}
	}
}

func TestCreateBillToAccount_Rejects(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*BillData)
		creator string
		invited []string
		wantErr error
	}{
		{
			name:    "both tip methods",
			mutate:  func(d *BillData) { d.TipPercent = nullDec("15"); d.TipAmount = nullDec("5") },
			creator: alice,
			wantErr: apperr.ErrMultipleTipMethod,
		},
		{
			name:    "no tip method",
			mutate:  func(d *BillData) { d.TipAmount = decimal.NullDecimal{} },
			creator: alice,
			wantErr: apperr.ErrMultipleTipMethod,
		},
		{
			name:    "negative cost",
			mutate:  func(d *BillData) { d.Items[0].Cost = dec("-1") },
			creator: alice,
			wantErr: apperr.ErrInvalidBillData,
		},
		{
			name:    "unknown split method",
			mutate:  func(d *BillData) { d.SplitMethod = "EVENLY" },
			creator: alice,
			wantErr: apperr.ErrInvalidBillData,
		},
		{
			name:    "unknown creator",
			mutate:  func(*BillData) {},
			creator: "nobody@example.com",
			wantErr: apperr.ErrAccountDoesNotExist,
		},
		{
			name:    "unknown invitee",
			mutate:  func(*BillData) {},
			creator: alice,
			invited: []string{bob, "nobody@example.com"},
			wantErr: apperr.ErrAccountDoesNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := balanceBill()
			tt.mutate(&data)
			_, err := env.bills.CreateBillToAccount(ctx, data, tt.creator, tt.invited)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateBillToAccount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// The failed creation with an unknown invitee must not leave bob invited.
	pending, err := env.invitations.ListNotifications(ctx, bob)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected rollback to leave no invitations, got %+v", pending)
	}
}

func TestInviteAccounts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	split, err := env.bills.CreateBillToAccount(ctx, balanceBill(), alice, nil)
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}
	billID := split.BillID

	t.Run("only the responsible account may invite", func(t *testing.T) {
		_, err := env.bills.InviteAccounts(ctx, bob, billID, []string{carol})
		if !errors.Is(err, apperr.ErrAccessForbidden) {
			t.Fatalf("expected ErrAccessForbidden, got %v", err)
		}
	})

	t.Run("re-inviting a pending account reuses the membership", func(t *testing.T) {
		if _, err := env.bills.InviteAccounts(ctx, alice, billID, []string{bob}); err != nil {
			t.Fatalf("first InviteAccounts failed: %v", err)
		}
		split, err := env.bills.InviteAccounts(ctx, alice, billID, []string{bob})
		if err != nil {
			t.Fatalf("second InviteAccounts failed: %v", err)
		}
		if len(split.Members) != 2 {
			t.Errorf("expected 2 members, got %d", len(split.Members))
		}
		pending, err := env.invitations.ListNotifications(ctx, bob)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(pending) != 1 {
			t.Errorf("expected one pending invitation, got %d", len(pending))
		}
	})

	t.Run("answered invitations cannot be re-sent", func(t *testing.T) {
		env.answerAll(t, false, bob)
		_, err := env.bills.InviteAccounts(ctx, alice, billID, []string{bob})
		if !errors.Is(err, apperr.ErrWrongInvitationStatus) {
			t.Fatalf("expected ErrWrongInvitationStatus, got %v", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := env.bills.InviteAccounts(ctx, alice, billID, []string{"nobody@example.com"})
		if !errors.Is(err, apperr.ErrAccountDoesNotExist) {
			t.Fatalf("expected ErrAccountDoesNotExist, got %v", err)
		}
	})

	t.Run("bill must be open", func(t *testing.T) {
		if _, err := env.payments.PayBill(ctx, alice, billID, dec("1")); err != nil {
			t.Fatalf("PayBill failed: %v", err)
		}
		_, err := env.bills.InviteAccounts(ctx, alice, billID, []string{carol})
		if !errors.Is(err, apperr.ErrWrongBillStatus) {
			t.Fatalf("expected ErrWrongBillStatus, got %v", err)
		}
	})
}

func TestEditBill(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	split := env.sharedBill(t)
	billID := split.BillID
	itemID := split.Items[0].ID

	other, err := env.bills.CreateBillToAccount(ctx, balanceBill(), carol, nil)
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}
	foreignItemID := other.Items[0].ID

	edit := func(items ...ItemData) BillData {
		data := balanceBill()
		data.Name = "Groceries and wine"
		data.Items = items
		return data
	}

	t.Run("only the responsible account may edit", func(t *testing.T) {
		_, err := env.bills.EditBill(ctx, billID, bob, edit())
		if !errors.Is(err, apperr.ErrAccessForbidden) {
			t.Fatalf("expected ErrAccessForbidden, got %v", err)
		}
	})

	t.Run("item of another bill", func(t *testing.T) {
		_, err := env.bills.EditBill(ctx, billID, alice, edit(ItemData{ID: foreignItemID, Name: "Stolen", Cost: dec("1")}))
		if !errors.Is(err, apperr.ErrItemNotInBill) {
			t.Fatalf("expected ErrItemNotInBill, got %v", err)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := env.bills.EditBill(ctx, billID, alice, edit(ItemData{ID: "missing", Name: "Ghost", Cost: dec("1")}))
		if !errors.Is(err, apperr.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("updates and adds items", func(t *testing.T) {
		split, err := env.bills.EditBill(ctx, billID, alice, edit(
			ItemData{ID: itemID, Name: "Basket", Cost: dec("80.00")},
			ItemData{Name: "Wine", Cost: dec("70.00")},
		))
		if err != nil {
			t.Fatalf("EditBill failed: %v", err)
		}
		if split.Name != "Groceries and wine" {
			t.Errorf("name not updated: %s", split.Name)
		}
		if len(split.Items) != 2 || split.Items[0].ID != itemID || split.Items[1].Name != "Wine" {
			t.Fatalf("unexpected items: %+v", split.Items)
		}
		if !split.Balance.Equal(dec("150.00")) {
			t.Errorf("expected balance 150.00, got %s", split.Balance)
		}
		if owed := memberByEmail(t, split, bob).AmountOwed; !owed.Equal(dec("60.00")) {
			t.Errorf("expected bob to owe 60.00 (40%%), got %s", owed)
		}
	})

	t.Run("responsible must be an accepted member", func(t *testing.T) {
		data := edit()
		data.ResponsibleEmail = dave
		_, err := env.bills.EditBill(ctx, billID, alice, data)
		if !errors.Is(err, apperr.ErrAccountNotAssociatedToBill) {
			t.Fatalf("expected ErrAccountNotAssociatedToBill, got %v", err)
		}
	})

	t.Run("bill must be open", func(t *testing.T) {
		if _, err := env.payments.PayBill(ctx, bob, billID, dec("1")); err != nil {
			t.Fatalf("PayBill failed: %v", err)
		}
		_, err := env.bills.EditBill(ctx, billID, alice, edit())
		if !errors.Is(err, apperr.ErrWrongBillStatus) {
			t.Fatalf("expected ErrWrongBillStatus, got %v", err)
		}
	})
}

func TestGetBillSplit(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	split := env.sharedBill(t)

	tests := []struct {
		name    string
		billID  string
		email   string
		wantErr error
	}{
		{"responsible", split.BillID, alice, nil},
		{"member", split.BillID, bob, nil},
		{"stranger", split.BillID, dave, apperr.ErrAccessForbidden},
		{"unknown bill", "missing", alice, apperr.ErrBillNotFound},
		{"unknown account", split.BillID, "nobody@example.com", apperr.ErrAccountDoesNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.bills.GetBillSplit(ctx, tt.billID, tt.email)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetBillSplit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetBillSplit() unexpected error: %v", err)
			}
			if got.BillID != split.BillID || len(got.Members) != 2 {
				t.Errorf("unexpected split: %+v", got)
			}
		})
	}
}

func TestAssignItemShares(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	data := BillData{
		Name:        "Dinner",
		SplitMethod: models.SplitByItem,
		TipPercent:  nullDec("10"),
		Items: []ItemData{
			{Name: "Steak", Cost: dec("60.00")},
			{Name: "Wine", Cost: dec("40.00")},
		},
	}
	split, err := env.bills.CreateBillToAccount(ctx, data, alice, []string{bob, carol})
	if err != nil {
		t.Fatalf("CreateBillToAccount failed: %v", err)
	}
	env.answerAll(t, true, bob)
	env.answerAll(t, false, carol)

	billID := split.BillID
	steak, wine := split.Items[0].ID, split.Items[1].ID

	if _, err := env.bills.AssignItemShares(ctx, billID, alice, steak, []ShareData{
		{Email: alice, Percentage: dec("100")},
	}); err != nil {
		t.Fatalf("AssignItemShares(steak) failed: %v", err)
	}
	split, err = env.bills.AssignItemShares(ctx, billID, alice, wine, []ShareData{
		{Email: alice, Percentage: dec("50")},
		{Email: bob, Percentage: dec("50")},
	})
	if err != nil {
		t.Fatalf("AssignItemShares(wine) failed: %v", err)
	}

	if !split.Balance.Equal(dec("110.00")) {
		t.Fatalf("expected balance 110.00, got %s", split.Balance)
	}
	if owed := memberByEmail(t, split, alice).AmountOwed; !owed.Equal(dec("88.00")) {
		t.Errorf("expected alice to owe 88.00, got %s", owed)
	}
	if owed := memberByEmail(t, split, bob).AmountOwed; !owed.Equal(dec("22.00")) {
		t.Errorf("expected bob to owe 22.00, got %s", owed)
	}
	if owed := memberByEmail(t, split, carol).AmountOwed; !owed.IsZero() {
		t.Errorf("declined carol should owe nothing, got %s", owed)
	}

	rejects := []struct {
		name    string
		email   string
		itemID  string
		shares  []ShareData
		wantErr error
	}{
		{"sum below 100", alice, wine, []ShareData{{Email: alice, Percentage: dec("40")}, {Email: bob, Percentage: dec("50")}}, apperr.ErrInvalidSharePercentages},
		{"over 100", alice, wine, []ShareData{{Email: alice, Percentage: dec("150")}, {Email: bob, Percentage: dec("-50")}}, apperr.ErrInvalidSharePercentages},
		{"listed twice", alice, wine, []ShareData{{Email: bob, Percentage: dec("50")}, {Email: bob, Percentage: dec("50")}}, apperr.ErrInvalidSharePercentages},
		{"declined member", alice, wine, []ShareData{{Email: carol, Percentage: dec("100")}}, apperr.ErrAccountNotAssociatedToBill},
		{"stranger", alice, wine, []ShareData{{Email: dave, Percentage: dec("100")}}, apperr.ErrAccountNotAssociatedToBill},
		{"unknown item", alice, "missing", []ShareData{{Email: alice, Percentage: dec("100")}}, apperr.ErrItemNotFound},
		{"not responsible", bob, wine, []ShareData{{Email: bob, Percentage: dec("100")}}, apperr.ErrAccessForbidden},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bills.AssignItemShares(ctx, billID, tt.email, tt.itemID, tt.shares)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AssignItemShares() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected assignments leave the previous shares in place.
	split, err = env.bills.GetBillSplit(ctx, billID, alice)
	if err != nil {
		t.Fatalf("GetBillSplit failed: %v", err)
	}
	if owed := memberByEmail(t, split, bob).AmountOwed; !owed.Equal(dec("22.00")) {
		t.Errorf("expected bob to still owe 22.00, got %s", owed)
	}
}

func TestAssignBillPercentages(t *testing.T) {
	env := setupTestEnv(t)
	split := env.sharedBill(t)

	if owed := memberByEmail(t, split, alice).AmountOwed; !owed.Equal(dec("60.00")) {
		t.Errorf("expected alice to owe 60.00, got %s", owed)
	}
	if owed := memberByEmail(t, split, bob).AmountOwed; !owed.Equal(dec("40.00")) {
		t.Errorf("expected bob to owe 40.00, got %s", owed)
	}

	// Members left out get 0%.
	split, err := env.bills.AssignBillPercentages(context.Background(), split.BillID, alice, []ShareData{
		{Email: bob, Percentage: dec("100")},
	})
	if err != nil {
		t.Fatalf("AssignBillPercentages failed: %v", err)
	}
	if m := memberByEmail(t, split, alice); !m.Percentage.IsZero() || !m.AmountOwed.IsZero() {
		t.Errorf("expected alice at 0%%, got %s%% owing %s", m.Percentage, m.AmountOwed)
	}
	if owed := memberByEmail(t, split, bob).AmountOwed; !owed.Equal(dec("100.00")) {
		t.Errorf("expected bob to owe 100.00, got %s", owed)
	}
}
