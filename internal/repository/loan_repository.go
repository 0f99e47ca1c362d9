package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

type LoanRepository interface {
	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoanByID(ctx context.Context, id string) (*models.Loan, error)
	// LatestLoanByAccount returns the most recently created loan for the
	// account, or ErrLoanNotFound if the account has never requested one.
	LatestLoanByAccount(ctx context.Context, accountID string) (*models.Loan, error)
	// ListLoansWithOwner is the admin view: every loan joined with the
	// owning account's username, from a single consistent snapshot.
	ListLoansWithOwner(ctx context.Context) ([]*models.LoanWithOwner, error)
	// DecideLoan transitions the loan from pending to the given terminal
	// status. The transition is a compare-and-set on the current status:
	// it fails with ErrInvalidTransition if the loan already left pending,
	// so two concurrent decisions can never both succeed.
	DecideLoan(ctx context.Context, id string, status models.LoanStatus) (*models.Loan, error)
}

type PostgresLoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *PostgresLoanRepository {
	return &PostgresLoanRepository{db: db}
}

func (r *PostgresLoanRepository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}

	query := `INSERT INTO loans (id, account_id, amount, interest_rate, duration_months, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		loan.ID,
		loan.AccountID,
		loan.Amount,
		loan.InterestRate,
		loan.DurationMonths,
		loan.Status,
	).Scan(&loan.CreatedAt)

	if err != nil {
		return errors.NewStoreError("create loan", err)
	}
	return nil
}

func (r *PostgresLoanRepository) GetLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	query := `SELECT id, account_id, amount, interest_rate, duration_months, status, created_at
		FROM loans WHERE id = $1`

	loan := &models.Loan{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&loan.ID, &loan.AccountID, &loan.Amount, &loan.InterestRate, &loan.DurationMonths, &loan.Status, &loan.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrLoanNotFound
		}
		return nil, errors.NewStoreError("get loan by ID", err)
	}
	return loan, nil
}

func (r *PostgresLoanRepository) LatestLoanByAccount(ctx context.Context, accountID string) (*models.Loan, error) {
	query := `SELECT id, account_id, amount, interest_rate, duration_months, status, created_at
		FROM loans
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	loan := &models.Loan{}
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&loan.ID, &loan.AccountID, &loan.Amount, &loan.InterestRate, &loan.DurationMonths, &loan.Status, &loan.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrLoanNotFound
		}
		return nil, errors.NewStoreError("get latest loan", err)
	}
	return loan, nil
}

func (r *PostgresLoanRepository) ListLoansWithOwner(ctx context.Context) ([]*models.LoanWithOwner, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, errors.NewStoreError("begin read", err)
	}
	defer tx.Rollback()

	query := `SELECT l.id, l.account_id, l.amount, l.interest_rate, l.duration_months, l.status, l.created_at, a.username
		FROM loans l
		JOIN accounts a ON l.account_id = a.id
		ORDER BY l.created_at DESC, l.id DESC`

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("list loans", err)
	}
	defer rows.Close()

	var views []*models.LoanWithOwner
	for rows.Next() {
		view := &models.LoanWithOwner{}
		err := rows.Scan(&view.ID, &view.AccountID, &view.Amount, &view.InterestRate, &view.DurationMonths, &view.Status, &view.CreatedAt, &view.Username)
		if err != nil {
			return nil, errors.NewStoreError("scan loan view", err)
		}
		views = append(views, view)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.NewStoreError("iterate loan views", err)
	}
	return views, nil
}

func (r *PostgresLoanRepository) DecideLoan(ctx context.Context, id string, status models.LoanStatus) (*models.Loan, error) {
	// Conditional update: only a pending loan transitions. RowsAffected 0
	// means the CAS lost — either the loan is gone or already decided.
	query := `UPDATE loans SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING id, account_id, amount, interest_rate, duration_months, status, created_at`

	loan := &models.Loan{}
	err := r.db.QueryRowContext(ctx, query, status, id, models.LoanPending).
		Scan(&loan.ID, &loan.AccountID, &loan.Amount, &loan.InterestRate, &loan.DurationMonths, &loan.Status, &loan.CreatedAt)
	if err == nil {
		return loan, nil
	}
	if err != sql.ErrNoRows {
		return nil, errors.NewStoreError("decide loan", err)
	}

	// Distinguish a missing loan from an already-decided one.
	if _, err := r.GetLoanByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, errors.ErrInvalidTransition
}
