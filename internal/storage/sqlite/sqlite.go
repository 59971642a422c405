// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/dannylekim/billsnap-sub000/internal/apperr"
	"github.com/dannylekim/billsnap-sub000/internal/models"
	"github.com/dannylekim/billsnap-sub000/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements storage.Tx over either the database or a transaction.
type queries struct {
	db dbtx
}

// SQLiteStore implements storage.Store using SQLite.
//
// The pool is limited to one connection: SQLite has a single writer anyway,
// and this makes every InTx call fully serialized, so read-modify-write of
// membership fields cannot interleave.
type SQLiteStore struct {
	*queries
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{queries: &queries{db: db}, db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InTx runs fn inside a database transaction.
// Do not use the store itself from inside fn: the only connection is held
// by the transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateBill persists a new bill with its taxes and items.
func (q *queries) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	if bill.UpdatedAt == 0 {
		bill.UpdatedAt = bill.CreatedAt
	}
	if bill.Status == "" {
		bill.Status = models.BillOpen
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO bills (id, name, category, company, creator_id, responsible_id, status,
		                    split_method, tip_amount, tip_percent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Name, bill.Category, bill.Company, bill.CreatorID, bill.ResponsibleID,
		string(bill.Status), string(bill.SplitMethod), bill.TipAmount, bill.TipPercent, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := q.insertTaxes(ctx, bill.ID, bill.Taxes); err != nil {
		return err
	}

	for i := range bill.Items {
		item := &bill.Items[i]
		item.BillID = bill.ID
		if err := q.CreateItem(ctx, item); err != nil {
			return err
		}
		if len(item.Shares) > 0 {
			if err := q.ReplaceItemShares(ctx, item.ID, item.Shares); err != nil {
				return err
			}
		}
	}

	return nil
}

func (q *queries) insertTaxes(ctx context.Context, billID string, taxes []models.Tax) error {
	for i, tax := range taxes {
		_, err := q.db.ExecContext(ctx,
			"INSERT INTO taxes (bill_id, position, name, percentage) VALUES (?, ?, ?, ?)",
			billID, i, tax.Name, tax.Percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert tax: %w", err)
		}
	}
	return nil
}

// GetBill retrieves a bill by ID, including taxes, items and item shares.
func (q *queries) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill := &models.Bill{}
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, category, company, creator_id, responsible_id, status, split_method,
		        tip_amount, tip_percent, created_at, updated_at
		 FROM bills WHERE id = ?`,
		billID,
	).Scan(&bill.ID, &bill.Name, &bill.Category, &bill.Company, &bill.CreatorID, &bill.ResponsibleID,
		&bill.Status, &bill.SplitMethod, &bill.TipAmount, &bill.TipPercent, &bill.CreatedAt, &bill.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrBillNotFound, billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if bill.Taxes, err = q.listTaxes(ctx, billID); err != nil {
		return nil, err
	}
	if bill.Items, err = q.listItems(ctx, billID); err != nil {
		return nil, err
	}
	return bill, nil
}

func (q *queries) listTaxes(ctx context.Context, billID string) ([]models.Tax, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT name, percentage FROM taxes WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get taxes: %w", err)
	}
	defer rows.Close()

	var taxes []models.Tax
	for rows.Next() {
		var tax models.Tax
		if err := rows.Scan(&tax.Name, &tax.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan tax: %w", err)
		}
		taxes = append(taxes, tax)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate taxes: %w", err)
	}
	return taxes, nil
}

// listItems loads the items of a bill and attaches their shares.
// Rows are fully drained before the next query is issued.
func (q *queries) listItems(ctx context.Context, billID string) ([]models.Item, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, bill_id, name, cost FROM items WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	var items []models.Item
	index := make(map[string]int)
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.BillID, &item.Name, &item.Cost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		index[item.ID] = len(items)
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	shareRows, err := q.db.QueryContext(ctx,
		`SELECT s.item_id, s.account_id, s.percentage
		 FROM item_shares s JOIN items i ON i.id = s.item_id
		 WHERE i.bill_id = ? ORDER BY s.item_id, s.account_id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get item shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var share models.ItemShare
		if err := shareRows.Scan(&share.ItemID, &share.AccountID, &share.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan item share: %w", err)
		}
		if i, ok := index[share.ItemID]; ok {
			items[i].Shares = append(items[i].Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item shares: %w", err)
	}
	return items, nil
}

// UpdateBill writes the bill's scalar fields and replaces its taxes.
// Items are written separately with CreateItem/UpdateItem.
func (q *queries) UpdateBill(ctx context.Context, bill *models.Bill) error {
	bill.UpdatedAt = time.Now().Unix()

	result, err := q.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, category = ?, company = ?, responsible_id = ?, status = ?,
		                  split_method = ?, tip_amount = ?, tip_percent = ?, updated_at = ?
		 WHERE id = ?`,
		bill.Name, bill.Category, bill.Company, bill.ResponsibleID, string(bill.Status),
		string(bill.SplitMethod), bill.TipAmount, bill.TipPercent, bill.UpdatedAt, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrBillNotFound, bill.ID)
	}

	if _, err := q.db.ExecContext(ctx, "DELETE FROM taxes WHERE bill_id = ?", bill.ID); err != nil {
		return fmt.Errorf("failed to clear taxes: %w", err)
	}
	return q.insertTaxes(ctx, bill.ID, bill.Taxes)
}

// SetBillStatus writes a bill's status.
func (q *queries) SetBillStatus(ctx context.Context, billID string, status models.BillStatus) error {
	result, err := q.db.ExecContext(ctx,
		"UPDATE bills SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().Unix(), billID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrBillNotFound, billID)
	}
	return nil
}

// ListBillIDsForAccount returns IDs of bills the account belongs to, filtered by status.
func (q *queries) ListBillIDsForAccount(ctx context.Context, accountID string, statuses ...models.BillStatus) ([]string, error) {
	query := `SELECT b.id FROM bills b
	          JOIN bill_memberships m ON m.bill_id = b.id
	          WHERE m.account_id = ?`
	args := []any{accountID}
	if len(statuses) > 0 {
		query += " AND b.status IN (" + placeholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += " ORDER BY b.created_at, b.id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills for account: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bill id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return ids, nil
}

// CreateItem appends an item to its bill.
func (q *queries) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO items (id, bill_id, position, name, cost)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM items WHERE bill_id = ?), ?, ?)`,
		item.ID, item.BillID, item.BillID, item.Name, item.Cost,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID with its shares.
func (q *queries) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	item := &models.Item{}
	err := q.db.QueryRowContext(ctx,
		"SELECT id, bill_id, name, cost FROM items WHERE id = ?",
		itemID,
	).Scan(&item.ID, &item.BillID, &item.Name, &item.Cost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT item_id, account_id, percentage FROM item_shares WHERE item_id = ? ORDER BY account_id",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get item shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var share models.ItemShare
		if err := rows.Scan(&share.ItemID, &share.AccountID, &share.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan item share: %w", err)
		}
		item.Shares = append(item.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item shares: %w", err)
	}
	return item, nil
}

// UpdateItem writes an item's name and cost.
func (q *queries) UpdateItem(ctx context.Context, item *models.Item) error {
	result, err := q.db.ExecContext(ctx,
		"UPDATE items SET name = ?, cost = ? WHERE id = ?",
		item.Name, item.Cost, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrItemNotFound, item.ID)
	}
	return nil
}

// ReplaceItemShares deletes an item's shares and inserts the given ones.
func (q *queries) ReplaceItemShares(ctx context.Context, itemID string, shares []models.ItemShare) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM item_shares WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("failed to clear item shares: %w", err)
	}
	for _, share := range shares {
		_, err := q.db.ExecContext(ctx,
			"INSERT INTO item_shares (item_id, account_id, percentage) VALUES (?, ?, ?)",
			itemID, share.AccountID, share.Percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item share: %w", err)
		}
	}
	return nil
}

// placeholders returns "?, ?, ..." with n placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
