package service

import (
	"context"
	"log/slog"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/events"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

// AccountService owns every balance mutation. Each operation takes the
// resolved caller explicitly and consults the authorization gate before
// touching the ledger.
type AccountService interface {
	Deposit(ctx context.Context, caller auth.Principal, accountID string, amount int64) (*models.Transaction, int64, error)
	Withdraw(ctx context.Context, caller auth.Principal, accountID string, amount int64) (*models.Transaction, int64, error)
	GetSummary(ctx context.Context, caller auth.Principal, accountID string) (*models.AccountSummary, error)
	ListTransactions(ctx context.Context, caller auth.Principal, accountID string) ([]*models.Transaction, error)
}

type AccountServiceImpl struct {
	ledger    repository.LedgerStore
	loanRepo  repository.LoanRepository
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewAccountService(ledger repository.LedgerStore, loanRepo repository.LoanRepository, publisher *events.Publisher, logger *slog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		ledger:    ledger,
		loanRepo:  loanRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Deposit credits the account. Deposits are never rejected for
// insufficiency; the only failure paths are validation, authorization and
// store failure.
func (s *AccountServiceImpl) Deposit(ctx context.Context, caller auth.Principal, accountID string, amount int64) (*models.Transaction, int64, error) {
	if amount <= 0 {
		return nil, 0, errors.ErrInvalidAmount
	}
	return s.mutate(ctx, caller, accountID, amount)
}

// Withdraw debits the account and may fail with ErrInsufficientFunds.
func (s *AccountServiceImpl) Withdraw(ctx context.Context, caller auth.Principal, accountID string, amount int64) (*models.Transaction, int64, error) {
	if amount <= 0 {
		return nil, 0, errors.ErrInvalidAmount
	}
	return s.mutate(ctx, caller, accountID, -amount)
}

func (s *AccountServiceImpl) mutate(ctx context.Context, caller auth.Principal, accountID string, delta int64) (*models.Transaction, int64, error) {
	if err := auth.CanMutateAccount(caller, accountID); err != nil {
		s.logger.Warn("balance mutation denied",
			"account_id", accountID,
		)
		return nil, 0, err
	}

	transaction, newBalance, err := s.ledger.ApplyMutation(ctx, accountID, delta)
	if err != nil {
		if errors.IsInsufficientFunds(err) {
			s.logger.Warn("insufficient funds",
				"account_id", accountID,
				"requested_amount", absAmount(delta),
			)
			return nil, 0, err
		}
		if errors.IsNotFound(err) {
			s.logger.Warn("account not found",
				"account_id", accountID,
			)
			return nil, 0, err
		}
		s.logger.Error("failed to apply balance mutation",
			"account_id", accountID,
			"error", err.Error(),
		)
		return nil, 0, err
	}

	if err := s.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionRecorded, events.TransactionRecordedEvent{
		TransactionID: transaction.ID,
		AccountID:     transaction.AccountID,
		Type:          transaction.Type,
		Amount:        transaction.Amount,
		NewBalance:    newBalance,
	}); err != nil {
		// events are best-effort; the mutation is already committed
		s.logger.Warn("failed to publish transaction event",
			"transaction_id", transaction.ID,
			"error", err.Error(),
		)
	}

	s.logger.Info("balance mutation applied",
		"account_id", accountID,
		"type", transaction.Type,
		"amount", transaction.Amount,
		"new_balance", newBalance,
	)
	return transaction, newBalance, nil
}

// GetSummary returns the dashboard composite: current balance and the most
// recently created loan, if any. Each field reflects its own committed
// state; no cross-field ordering is required beyond per-field freshness.
func (s *AccountServiceImpl) GetSummary(ctx context.Context, caller auth.Principal, accountID string) (*models.AccountSummary, error) {
	if err := auth.CanReadAccount(caller, accountID); err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summary := &models.AccountSummary{
		AccountID: accountID,
		Balance:   balance,
	}

	loan, err := s.loanRepo.LatestLoanByAccount(ctx, accountID)
	if err != nil {
		if errors.IsNotFound(err) {
			return summary, nil
		}
		return nil, err
	}
	status := loan.Status
	amount := loan.Amount
	summary.LoanStatus = &status
	summary.LoanAmount = &amount
	return summary, nil
}

func (s *AccountServiceImpl) ListTransactions(ctx context.Context, caller auth.Principal, accountID string) ([]*models.Transaction, error) {
	if err := auth.CanReadAccount(caller, accountID); err != nil {
		return nil, err
	}
	// Surface NotFound for unknown accounts rather than an empty log.
	if _, err := s.ledger.GetBalance(ctx, accountID); err != nil {
		return nil, err
	}
	return s.ledger.ListTransactions(ctx, accountID)
}

func absAmount(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
