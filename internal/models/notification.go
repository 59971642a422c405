package models

// Notification records that an account was invited to a bill.
// It is immutable once created and is used to look up the
// (bill, account) pair an invitation answer refers to.
type Notification struct {
	// ID is the unique identifier for the notification (UUID format).
	ID string

	BillID    string
	AccountID string

	// CreatedAt is the Unix timestamp of the invitation.
	CreatedAt int64
}
