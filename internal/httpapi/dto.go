package httpapi

import (
	"github.com/shopspring/decimal"

	"github.com/dannylekim/billsnap-sub000/internal/calculator"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/service"
)

// RegisterRequest is the body of POST /accounts.
type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// AccountResponse describes a registered account.
type AccountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TaxDTO is a named percentage.
type TaxDTO struct {
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ItemDTO is an item in requests; ID is empty for new items.
type ItemDTO struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

// BillRequest is the body of POST /bills and PUT /bills/{billID}.
type BillRequest struct {
	Name             string              `json:"name"`
	Category         string              `json:"category"`
	Company          string              `json:"company"`
	ResponsibleEmail string              `json:"responsible_email,omitempty"`
	SplitMethod      models.SplitMethod  `json:"split_method"`
	TipAmount        decimal.NullDecimal `json:"tip_amount"`
	TipPercent       decimal.NullDecimal `json:"tip_percent"`
	Taxes            []TaxDTO            `json:"taxes"`
	Items            []ItemDTO           `json:"items"`

	// InvitedEmails is only read on create.
	InvitedEmails []string `json:"invited_emails,omitempty"`
}

func (r *BillRequest) toData() service.BillData {
	data := service.BillData{
		Name:             r.Name,
		Category:         r.Category,
		Company:          r.Company,
		ResponsibleEmail: r.ResponsibleEmail,
		SplitMethod:      r.SplitMethod,
		TipAmount:        r.TipAmount,
		TipPercent:       r.TipPercent,
		Taxes:            make([]models.Tax, 0, len(r.Taxes)),
		Items:            make([]service.ItemData, 0, len(r.Items)),
	}
	for _, t := range r.Taxes {
		data.Taxes = append(data.Taxes, models.Tax{Name: t.Name, Percentage: t.Percentage})
	}
	for _, i := range r.Items {
		data.Items = append(data.Items, service.ItemData{ID: i.ID, Name: i.Name, Cost: i.Cost})
	}
	return data
}

// InviteRequest is the body of POST /bills/{billID}/invitations.
type InviteRequest struct {
	Emails []string `json:"emails"`
}

// ShareDTO assigns a percentage to an account.
type ShareDTO struct {
	Email      string          `json:"email"`
	Percentage decimal.Decimal `json:"percentage"`
}

// SharesRequest is the body of the share assignment endpoints.
type SharesRequest struct {
	Shares []ShareDTO `json:"shares"`
}

func (r *SharesRequest) toData() []service.ShareData {
	shares := make([]service.ShareData, 0, len(r.Shares))
	for _, s := range r.Shares {
		shares = append(shares, service.ShareData{Email: s.Email, Percentage: s.Percentage})
	}
	return shares
}

// AnswerRequest is the body of POST /invitations/{notificationID}.
type AnswerRequest struct {
	Accept bool `json:"accept"`
}

// PaymentRequest is the body of POST /bills/{billID}/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PaymentResponse reports what is left to pay after a payment.
type PaymentResponse struct {
	Remaining string `json:"remaining"`
}

// ItemShareResponse is one account's share of an item.
type ItemShareResponse struct {
	AccountID  string `json:"account_id"`
	Percentage string `json:"percentage"`
}

// ItemResponse is an item with its shares.
type ItemResponse struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Cost   string              `json:"cost"`
	Shares []ItemShareResponse `json:"shares"`
}

// MemberResponse is one member's position on a bill.
type MemberResponse struct {
	AccountID        string `json:"account_id"`
	Email            string `json:"email"`
	Percentage       string `json:"percentage"`
	InvitationStatus string `json:"invitation_status"`
	PaymentStatus    string `json:"payment_status"`
	AmountOwed       string `json:"amount_owed"`
	AmountPaid       string `json:"amount_paid"`
	AmountRemaining  string `json:"amount_remaining"`
}

// BillResponse is the serialized bill-split view.
type BillResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Company          string           `json:"company"`
	Status           string           `json:"status"`
	SplitMethod      string           `json:"split_method"`
	CreatorEmail     string           `json:"creator_email"`
	ResponsibleEmail string           `json:"responsible_email"`
	TipAmount        *string          `json:"tip_amount"`
	TipPercent       *string          `json:"tip_percent"`
	Taxes            []TaxDTO         `json:"taxes"`
	Items            []ItemResponse   `json:"items"`
	Subtotal         string           `json:"subtotal"`
	TaxTotal         string           `json:"tax_total"`
	Tip              string           `json:"tip"`
	Balance          string           `json:"balance"`
	Members          []MemberResponse `json:"members"`
	CreatedAt        int64            `json:"created_at"`
	UpdatedAt        int64            `json:"updated_at"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(calculator.MoneyScale)
}

func optional(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func toBillResponse(s *models.BillSplit) *BillResponse {
	resp := &BillResponse{
		ID:               s.BillID,
		Name:             s.Name,
		Category:         s.Category,
		Company:          s.Company,
		Status:           string(s.Status),
		SplitMethod:      string(s.SplitMethod),
		CreatorEmail:     s.CreatorEmail,
		ResponsibleEmail: s.ResponsibleEmail,
		TipAmount:        optional(s.TipAmount),
		TipPercent:       optional(s.TipPercent),
		Taxes:            make([]TaxDTO, 0, len(s.Taxes)),
		Items:            make([]ItemResponse, 0, len(s.Items)),
		Subtotal:         money(s.Subtotal),
		TaxTotal:         money(s.TaxTotal),
		Tip:              money(s.Tip),
		Balance:          money(s.Balance),
		Members:          make([]MemberResponse, 0, len(s.Members)),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	for _, t := range s.Taxes {
		resp.Taxes = append(resp.Taxes, TaxDTO{Name: t.Name, Percentage: t.Percentage})
	}
	for _, item := range s.Items {
		ir := ItemResponse{
			ID:     item.ID,
			Name:   item.Name,
			Cost:   money(item.Cost),
			Shares: make([]ItemShareResponse, 0, len(item.Shares)),
		}
		for _, share := range item.Shares {
			ir.Shares = append(ir.Shares, ItemShareResponse{AccountID: share.AccountID, Percentage: share.Percentage.String()})
		}
		resp.Items = append(resp.Items, ir)
	}
	for _, m := range s.Members {
		resp.Members = append(resp.Members, MemberResponse{
			AccountID:        m.AccountID,
			Email:            m.Email,
			Percentage:       m.Percentage.String(),
			InvitationStatus: string(m.InvitationStatus),
			PaymentStatus:    string(m.PaymentStatus),
			AmountOwed:       money(m.AmountOwed),
			AmountPaid:       money(m.AmountPaid),
			AmountRemaining:  money(m.AmountRemaining),
		})
	}
	return resp
}

// InvitationResponse is a pending invitation.
type InvitationResponse struct {
	NotificationID string `json:"notification_id"`
	BillID         string `json:"bill_id"`
	BillName       string `json:"bill_name"`
	InvitedBy      string `json:"invited_by"`
	CreatedAt      int64  `json:"created_at"`
}

// OwedResponse is what the caller owes one responsible account.
type OwedResponse struct {
	Email  string `json:"email"`
	Amount string `json:"amount"`
}
