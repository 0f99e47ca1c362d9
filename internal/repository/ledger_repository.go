package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

// LedgerStore is the durable balance + append-only transaction log.
// ApplyMutation is the single write path: the balance read, the
// insufficiency check, the balance write and the log append happen as one
// indivisible unit. Readers observe the unit either fully applied or not
// at all.
type LedgerStore interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	// ApplyMutation applies a signed delta to the account balance and
	// appends exactly one transaction record of the derived type
	// (positive delta -> deposit, negative -> withdrawal). Returns the
	// appended record and the new balance.
	ApplyMutation(ctx context.Context, accountID string, delta int64) (*models.Transaction, int64, error)
	// ListTransactions returns the account's log newest-first. Each call
	// is a fresh read, not a live cursor.
	ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error)
	// ListAllWithOwner is the admin view: every transaction joined with
	// the owning account's username, ordered by time, from a single
	// consistent snapshot.
	ListAllWithOwner(ctx context.Context) ([]*models.TransactionWithOwner, error)
}

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

func (r *PostgresLedgerStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	query := `SELECT balance FROM accounts WHERE id = $1`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.ErrAccountNotFound
		}
		return 0, errors.NewStoreError("get balance", err)
	}
	return balance, nil
}

// ApplyMutation runs the read-check-write-append sequence inside one
// serializable transaction with a row lock on the account, so concurrent
// mutations of the same account serialize and a failure at any step
// retains nothing.
func (r *PostgresLedgerStore) ApplyMutation(ctx context.Context, accountID string, delta int64) (*models.Transaction, int64, error) {
	if delta == 0 {
		return nil, 0, errors.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, 0, errors.NewStoreError("begin", err)
	}

	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	// Lock the account row for the duration of the unit.
	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, errors.ErrAccountNotFound
		}
		return nil, 0, errors.NewStoreError("lock account", err)
	}

	if delta < 0 && -delta > balance {
		return nil, 0, errors.ErrInsufficientFunds
	}
	newBalance := balance + delta

	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		newBalance, accountID)
	if err != nil {
		return nil, 0, errors.NewStoreError("update balance", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return nil, 0, errors.NewStoreError("update balance", fmt.Errorf("no row updated"))
	}

	transaction := &models.Transaction{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Type:      mutationType(delta),
		Amount:    abs(delta),
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (id, account_id, type, amount, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING created_at`,
		transaction.ID, transaction.AccountID, transaction.Type, transaction.Amount,
	).Scan(&transaction.CreatedAt)
	if err != nil {
		return nil, 0, errors.NewStoreError("append transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, errors.NewStoreError("commit", err)
	}

	// Nullify tx to avoid rollback in defer
	tx = nil

	return transaction, newBalance, nil
}

func (r *PostgresLedgerStore) ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	query := `SELECT id, account_id, type, amount, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, errors.NewStoreError("list transactions", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		transaction := &models.Transaction{}
		err := rows.Scan(&transaction.ID, &transaction.AccountID, &transaction.Type, &transaction.Amount, &transaction.CreatedAt)
		if err != nil {
			return nil, errors.NewStoreError("scan transaction", err)
		}
		transactions = append(transactions, transaction)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.NewStoreError("iterate transactions", err)
	}
	return transactions, nil
}

// ListAllWithOwner reads inside a read-only repeatable-read transaction so
// the joined view reflects one committed snapshot.
func (r *PostgresLedgerStore) ListAllWithOwner(ctx context.Context) ([]*models.TransactionWithOwner, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, errors.NewStoreError("begin read", err)
	}
	defer tx.Rollback()

	query := `SELECT t.id, t.account_id, t.type, t.amount, t.created_at, a.username
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		ORDER BY t.created_at DESC, t.id DESC`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("list all transactions", err)
	}
	defer rows.Close()

	var views []*models.TransactionWithOwner
	for rows.Next() {
		view := &models.TransactionWithOwner{}
		err := rows.Scan(&view.ID, &view.AccountID, &view.Type, &view.Amount, &view.CreatedAt, &view.Username)
		if err != nil {
			return nil, errors.NewStoreError("scan transaction view", err)
		}
		views = append(views, view)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.NewStoreError("iterate transaction views", err)
	}
	return views, nil
}

func mutationType(delta int64) models.TransactionType {
	if delta < 0 {
		return models.TransactionWithdrawal
	}
	return models.TransactionDeposit
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
