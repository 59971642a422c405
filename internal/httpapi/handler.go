// Package httpapi is a thin JSON adapter over the bill, invitation and
// payment services. Callers authenticate with HTTP Basic credentials.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dannylekim/billsnap-sub000/internal/auth"
	"github.com/dannylekim/billsnap-sub000/internal/middleware"
	"github.com/dannylekim/billsnap-sub000/internal/service"
)

// Handler handles HTTP requests for bill operations.
type Handler struct {
	bills       *service.BillService
	invitations *service.InvitationService
	payments    *service.PaymentService
	auth        auth.Authenticator
}

// NewHandler creates a new Handler.
func NewHandler(bills *service.BillService, invitations *service.InvitationService, payments *service.PaymentService, authenticator auth.Authenticator) *Handler {
	return &Handler{
		bills:       bills,
		invitations: invitations,
		payments:    payments,
		auth:        authenticator,
	}
}

// Routes returns the router for the API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/accounts", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, unauthorized))

		r.Post("/bills", h.CreateBill)
		r.Get("/bills/{billID}", h.GetBill)
		r.Put("/bills/{billID}", h.EditBill)
		r.Post("/bills/{billID}/invitations", h.InviteAccounts)
		r.Put("/bills/{billID}/percentages", h.AssignBillPercentages)
		r.Put("/bills/{billID}/items/{itemID}/shares", h.AssignItemShares)
		r.Post("/bills/{billID}/payments", h.PayBill)

		r.Get("/invitations", h.ListInvitations)
		r.Post("/invitations/{notificationID}", h.AnswerInvitation)

		r.Get("/owed", h.AmountsOwed)
	})

	return r
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid request body")
		return false
	}
	return true
}

// Register handles POST /accounts
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		badRequest(w, "email is required")
		return
	}

	account, err := h.auth.Register(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{ID: account.ID, Email: account.Email})
}

// CreateBill handles POST /bills
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if !decode(w, r, &req) {
		return
	}

	split, err := h.bills.CreateBillToAccount(r.Context(), req.toData(), middleware.GetEmail(r.Context()), req.InvitedEmails)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillResponse(split))
}

// GetBill handles GET /bills/{billID}
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	split, err := h.bills.GetBillSplit(r.Context(), chi.URLParam(r, "billID"), middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(split))
}

// EditBill handles PUT /bills/{billID}
func (h *Handler) EditBill(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.InvitedEmails) > 0 {
		badRequest(w, "invited_emails is only accepted on create")
		return
	}

	split, err := h.bills.EditBill(r.Context(), chi.URLParam(r, "billID"), middleware.GetEmail(r.Context()), req.toData())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(split))
}

// InviteAccounts handles POST /bills/{billID}/invitations
func (h *Handler) InviteAccounts(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !decode(w, r, &req) {
		return
	}

	split, err := h.bills.InviteAccounts(r.Context(), middleware.GetEmail(r.Context()), chi.URLParam(r, "billID"), req.Emails)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(split))
}

// AssignBillPercentages handles PUT /bills/{billID}/percentages
func (h *Handler) AssignBillPercentages(w http.ResponseWriter, r *http.Request) {
	var req SharesRequest
	if !decode(w, r, &req) {
		return
	}

	split, err := h.bills.AssignBillPercentages(r.Context(), chi.URLParam(r, "billID"), middleware.GetEmail(r.Context()), req.toData())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(split))
}

// AssignItemShares handles PUT /bills/{billID}/items/{itemID}/shares
func (h *Handler) AssignItemShares(w http.ResponseWriter, r *http.Request) {
	var req SharesRequest
	if !decode(w, r, &req) {
		return
	}

	split, err := h.bills.AssignItemShares(r.Context(),
		chi.URLParam(r, "billID"),
		middleware.GetEmail(r.Context()),
		chi.URLParam(r, "itemID"),
		req.toData(),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(split))
}

// PayBill handles POST /bills/{billID}/payments
func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decode(w, r, &req) {
		return
	}

	remaining, err := h.payments.PayBill(r.Context(), middleware.GetEmail(r.Context()), chi.URLParam(r, "billID"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PaymentResponse{Remaining: money(remaining)})
}

// ListInvitations handles GET /invitations
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	pending, err := h.invitations.ListNotifications(r.Context(), middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]InvitationResponse, 0, len(pending))
	for _, p := range pending {
		resp = append(resp, InvitationResponse{
			NotificationID: p.NotificationID,
			BillID:         p.BillID,
			BillName:       p.BillName,
			InvitedBy:      p.InvitedBy,
			CreatedAt:      p.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// AnswerInvitation handles POST /invitations/{notificationID}
func (h *Handler) AnswerInvitation(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decode(w, r, &req) {
		return
	}

	split, err := h.invitations.AnswerInvitation(r.Context(), chi.URLParam(r, "notificationID"), req.Accept, middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(split))
}

// AmountsOwed handles GET /owed
func (h *Handler) AmountsOwed(w http.ResponseWriter, r *http.Request) {
	owed, err := h.payments.AmountsOwed(r.Context(), middleware.GetEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]OwedResponse, 0, len(owed))
	for _, o := range owed {
		resp = append(resp, OwedResponse{Email: o.Email, Amount: money(o.Amount)})
	}

	writeJSON(w, http.StatusOK, resp)
}
