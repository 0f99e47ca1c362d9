package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	// ListAccounts is the admin view of every account from a single
	// consistent snapshot.
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	// DeleteAccount removes the account and all its dependent loans and
	// transactions as one atomic unit (cascading removal policy).
	DeleteAccount(ctx context.Context, id string) error
}

type PostgresAccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (id, username, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, account.ID, account.Username, account.PasswordHash, account.Balance).
		Scan(&account.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.ErrAccountAlreadyExists
		}
		return errors.NewStoreError("create account", err)
	}
	return nil
}

func (r *PostgresAccountRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, username, password_hash, balance, created_at FROM accounts WHERE id = $1`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Balance, &account.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, errors.NewStoreError("get account by ID", err)
	}
	return account, nil
}

func (r *PostgresAccountRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT id, username, password_hash, balance, created_at FROM accounts WHERE username = $1`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Balance, &account.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, errors.NewStoreError("get account by username", err)
	}
	return account, nil
}

func (r *PostgresAccountRepository) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, errors.NewStoreError("begin read", err)
	}
	defer tx.Rollback()

	query := `SELECT id, username, balance, created_at FROM accounts ORDER BY created_at`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("list accounts", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		err := rows.Scan(&account.ID, &account.Username, &account.Balance, &account.CreatedAt)
		if err != nil {
			return nil, errors.NewStoreError("scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.NewStoreError("iterate accounts", err)
	}
	return accounts, nil
}

func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.NewStoreError("begin", err)
	}

	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	// Dependents first, account last; the whole cascade is one unit.
	if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE account_id = $1`, id); err != nil {
		return errors.NewStoreError("delete loans", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = $1`, id); err != nil {
		return errors.NewStoreError("delete transactions", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return errors.NewStoreError("delete account", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewStoreError("delete account", err)
	}
	if n == 0 {
		return errors.ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("commit", err)
	}
	tx = nil

	return nil
}
