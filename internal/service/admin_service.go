package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/events"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

// AdminService is the read-only oversight façade plus account removal.
// Every operation requires the Administrator variant.
type AdminService interface {
	ListAccounts(ctx context.Context, caller auth.Principal) ([]*models.Account, error)
	ListTransactions(ctx context.Context, caller auth.Principal) ([]*models.TransactionWithOwner, error)
	ListLoans(ctx context.Context, caller auth.Principal) ([]*models.LoanWithOwner, error)
	RemoveAccount(ctx context.Context, caller auth.Principal, accountID string) error
}

type AdminServiceImpl struct {
	accountRepo repository.AccountRepository
	ledger      repository.LedgerStore
	loanRepo    repository.LoanRepository
	auditRepo   repository.AuditRepository
	publisher   *events.Publisher
	logger      *slog.Logger
}

func NewAdminService(accountRepo repository.AccountRepository, ledger repository.LedgerStore, loanRepo repository.LoanRepository, auditRepo repository.AuditRepository, publisher *events.Publisher, logger *slog.Logger) *AdminServiceImpl {
	return &AdminServiceImpl{
		accountRepo: accountRepo,
		ledger:      ledger,
		loanRepo:    loanRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *AdminServiceImpl) ListAccounts(ctx context.Context, caller auth.Principal) ([]*models.Account, error) {
	if err := auth.CanViewAll(caller); err != nil {
		return nil, err
	}
	return s.accountRepo.ListAccounts(ctx)
}

func (s *AdminServiceImpl) ListTransactions(ctx context.Context, caller auth.Principal) ([]*models.TransactionWithOwner, error) {
	if err := auth.CanViewAll(caller); err != nil {
		return nil, err
	}
	return s.ledger.ListAllWithOwner(ctx)
}

func (s *AdminServiceImpl) ListLoans(ctx context.Context, caller auth.Principal) ([]*models.LoanWithOwner, error) {
	if err := auth.CanViewAll(caller); err != nil {
		return nil, err
	}
	return s.loanRepo.ListLoansWithOwner(ctx)
}

// RemoveAccount deletes the account together with its transactions and
// loans in one atomic unit (cascading removal policy).
func (s *AdminServiceImpl) RemoveAccount(ctx context.Context, caller auth.Principal, accountID string) error {
	if err := auth.CanRemoveAccounts(caller); err != nil {
		s.logger.Warn("account removal denied",
			"account_id", accountID,
		)
		return err
	}

	account, err := s.accountRepo.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("account not found",
				"account_id", accountID,
			)
			return err
		}
		return err
	}

	if err := s.accountRepo.DeleteAccount(ctx, accountID); err != nil {
		s.logger.Error("failed to remove account",
			"account_id", accountID,
			"error", err.Error(),
		)
		return err
	}

	s.recordRemovalAudit(ctx, account)

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountRemoved, events.AccountRemovedEvent{
		AccountID: accountID,
	}); err != nil {
		s.logger.Warn("failed to publish account event",
			"account_id", accountID,
			"error", err.Error(),
		)
	}

	s.logger.Info("account removed",
		"account_id", accountID,
	)
	return nil
}

func (s *AdminServiceImpl) recordRemovalAudit(ctx context.Context, account *models.Account) {
	oldValue, _ := json.Marshal(models.AccountBalanceSnapshot{
		ID:      account.ID,
		Balance: account.Balance,
	})

	auditLog := &models.AuditLog{
		EntityType: models.EntityTypeAccount,
		EntityID:   account.ID,
		Action:     models.AuditActionRemoveAccount,
		OldValue:   oldValue,
		NewValue:   json.RawMessage(`null`),
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		// continue even if audit logging fails
		s.logger.Error("failed to create audit log for account removal",
			"account_id", account.ID,
			"error", err.Error(),
		)
	}
}
