// Package apperr defines the error taxonomy shared by the settlement engine.
//
// Every business failure is one of the sentinel values below. Callers add
// context with fmt.Errorf("%w: ...") and match with errors.Is; the
// presentation layer uses KindOf and Code to pick a response.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the presentation layer.
type Kind int

const (
	// KindInternal is anything that is not an *Error (storage failures etc).
	KindInternal Kind = iota
	KindValidation
	KindDomain
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the status code a REST adapter would return.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindDomain:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a business-rule failure with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Domain errors.
var (
	ErrMultipleTipMethod          = newError(KindDomain, "MULTIPLE_TIP_METHOD", "exactly one of tip amount or tip percent must be set")
	ErrCannotPayMoreThanOwed      = newError(KindDomain, "CANNOT_PAY_MORE_THAN_OWED", "payment exceeds the amount owed")
	ErrWrongBillStatus            = newError(KindDomain, "WRONG_BILL_STATUS", "operation not allowed in the current bill status")
	ErrWrongInvitationStatus      = newError(KindDomain, "WRONG_INVITATION_STATUS", "invitation has already been answered")
	ErrBillAlreadyResolved        = newError(KindDomain, "BILL_ALREADY_RESOLVED", "bill is already resolved")
	ErrBillAlreadyPaidFor         = newError(KindDomain, "BILL_ALREADY_PAID_FOR", "share of the bill is already paid")
	ErrAccountNotAssociatedToBill = newError(KindDomain, "ACCOUNT_NOT_ASSOCIATED_TO_BILL", "account is not associated to the bill")
	ErrItemNotInBill              = newError(KindDomain, "ITEM_NOT_IN_BILL", "item does not belong to the bill")
)

// Not-found errors.
var (
	ErrAccountDoesNotExist  = newError(KindNotFound, "ACCOUNT_DOES_NOT_EXIST", "account does not exist")
	ErrNotificationNotFound = newError(KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")
	ErrItemNotFound         = newError(KindNotFound, "ITEM_NOT_FOUND", "item not found")
	ErrBillNotFound         = newError(KindNotFound, "BILL_NOT_FOUND", "bill not found")
)

// ErrAccessForbidden is returned when the caller does not own the resource.
var ErrAccessForbidden = newError(KindForbidden, "ACCESS_FORBIDDEN", "access forbidden")

// Validation errors.
var (
	ErrInvalidSharePercentages = newError(KindValidation, "INVALID_SHARE_PERCENTAGES", "share percentages must be between 0 and 100 and sum to 100")
	ErrInvalidPaymentAmount    = newError(KindValidation, "INVALID_PAYMENT_AMOUNT", "payment amount must be positive")
	ErrEmailAlreadyExists      = newError(KindValidation, "EMAIL_ALREADY_EXISTS", "email already registered")
	ErrWeakPassword            = newError(KindValidation, "WEAK_PASSWORD", "password must be at least 8 characters")
	ErrInvalidBillData         = newError(KindValidation, "INVALID_BILL_DATA", "bill data is malformed")
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Code returns the stable code of err, or "INTERNAL" for untyped errors.
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL"
}
