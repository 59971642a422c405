package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
)

// CreateMembership persists a new bill membership.
func (q *queries) CreateMembership(ctx context.Context, m *models.BillMembership) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO bill_memberships (bill_id, account_id, percentage, invitation_status, payment_status, amount_paid)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.BillID, m.AccountID, m.Percentage,
		string(m.InvitationStatus), string(m.PaymentStatus), m.AmountPaid,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// GetMembership retrieves the membership of an account on a bill.
// Returns (nil, nil) if the account is not a member.
func (q *queries) GetMembership(ctx context.Context, billID, accountID string) (*models.BillMembership, error) {
	m := &models.BillMembership{}
	err := q.db.QueryRowContext(ctx,
		`SELECT bill_id, account_id, percentage, invitation_status, payment_status, amount_paid
		 FROM bill_memberships WHERE bill_id = ? AND account_id = ?`,
		billID, accountID,
	).Scan(&m.BillID, &m.AccountID, &m.Percentage, &m.InvitationStatus, &m.PaymentStatus, &m.AmountPaid)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// UpdateMembership writes the mutable fields of a membership.
func (q *queries) UpdateMembership(ctx context.Context, m *models.BillMembership) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE bill_memberships
		 SET percentage = ?, invitation_status = ?, payment_status = ?, amount_paid = ?
		 WHERE bill_id = ? AND account_id = ?`,
		m.Percentage, string(m.InvitationStatus), string(m.PaymentStatus), m.AmountPaid,
		m.BillID, m.AccountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: account %s on bill %s",
			apperr.ErrAccountNotAssociatedToBill, m.AccountID, m.BillID)
	}
	return nil
}

// ListMemberships retrieves all memberships of a bill, declined ones included.
func (q *queries) ListMemberships(ctx context.Context, billID string) ([]models.BillMembership, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT bill_id, account_id, percentage, invitation_status, payment_status, amount_paid
		 FROM bill_memberships WHERE bill_id = ? ORDER BY rowid`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.BillMembership
	for rows.Next() {
		var m models.BillMembership
		if err := rows.Scan(&m.BillID, &m.AccountID, &m.Percentage,
			&m.InvitationStatus, &m.PaymentStatus, &m.AmountPaid); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

// CreateNotification persists a new invitation notification.
func (q *queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}

	_, err := q.db.ExecContext(ctx,
		"INSERT INTO notifications (id, bill_id, account_id, created_at) VALUES (?, ?, ?, ?)",
		n.ID, n.BillID, n.AccountID, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetNotification retrieves a notification by ID.
func (q *queries) GetNotification(ctx context.Context, notificationID string) (*models.Notification, error) {
	n := &models.Notification{}
	err := q.db.QueryRowContext(ctx,
		"SELECT id, bill_id, account_id, created_at FROM notifications WHERE id = ?",
		notificationID,
	).Scan(&n.ID, &n.BillID, &n.AccountID, &n.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotificationNotFound, notificationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListNotificationsForAccount retrieves an account's notifications, newest first.
func (q *queries) ListNotificationsForAccount(ctx context.Context, accountID string) ([]models.Notification, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, bill_id, account_id, created_at FROM notifications
		 WHERE account_id = ? ORDER BY created_at DESC, rowid DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.BillID, &n.AccountID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}
