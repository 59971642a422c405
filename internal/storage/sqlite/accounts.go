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

const accountColumns = "id, email, first_name, last_name, password_hash, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	return account, err
}

// CreateAccount inserts a new account into the database.
func (q *queries) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = time.Now().Unix()
	}
	account.Email = models.NormalizeEmail(account.Email)

	_, err := q.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		account.ID,
		account.Email,
		account.FirstName,
		account.LastName,
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByEmail retrieves an account by its email address.
func (q *queries) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	account, err := scanAccount(q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ?", email))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAccountDoesNotExist, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account by its ID.
func (q *queries) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := scanAccount(q.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", accountID))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAccountDoesNotExist, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts by their IDs.
// Returns a map of account ID to Account. Unknown IDs are omitted.
func (q *queries) GetAccountsByIDs(ctx context.Context, ids []string) (map[string]*models.Account, error) {
	accounts := make(map[string]*models.Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.ID] = account
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}
