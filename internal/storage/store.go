// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/dannylekim/billsnap-sub000/internal/models"
)

// Store defines the persistence capability consumed by the services.
// Reads outside a transaction go through the embedded Tx; every mutating
// operation runs inside InTx so its writes commit together or not at all.
type Store interface {
	Tx

	// InTx runs fn in a single unit of work. If fn returns an error the
	// transaction is rolled back and the error is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of record operations available inside a unit of work.
// Lookups of missing records return the matching apperr not-found sentinel.
type Tx interface {
	// CreateAccount persists a new account. The ID is generated if empty.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	// GetAccountByEmail fails with apperr.ErrAccountDoesNotExist if unknown.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountsByIDs(ctx context.Context, ids []string) (map[string]*models.Account, error)

	// CreateBill persists a bill with its taxes and items (and item shares).
	CreateBill(ctx context.Context, bill *models.Bill) error
	// GetBill loads a bill with its taxes, items and item shares.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)
	// UpdateBill writes the bill's scalar fields and replaces its taxes.
	UpdateBill(ctx context.Context, bill *models.Bill) error
	// SetBillStatus writes only the status and update timestamp.
	SetBillStatus(ctx context.Context, billID string, status models.BillStatus) error
	// ListBillIDsForAccount returns the bills the account is a member of
	// whose status is one of statuses.
	ListBillIDsForAccount(ctx context.Context, accountID string, statuses ...models.BillStatus) ([]string, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	// ReplaceItemShares replaces all shares of an item.
	ReplaceItemShares(ctx context.Context, itemID string, shares []models.ItemShare) error

	CreateMembership(ctx context.Context, m *models.BillMembership) error
	// GetMembership returns (nil, nil) when the account is not a member.
	GetMembership(ctx context.Context, billID, accountID string) (*models.BillMembership, error)
	UpdateMembership(ctx context.Context, m *models.BillMembership) error
	ListMemberships(ctx context.Context, billID string) ([]models.BillMembership, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, notificationID string) (*models.Notification, error)
	ListNotificationsForAccount(ctx context.Context, accountID string) ([]models.Notification, error)
}
