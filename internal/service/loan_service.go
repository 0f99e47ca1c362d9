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

// DefaultInterestRate is the flat annual rate (percent) fixed at loan
// creation. No accrual happens after that.
const DefaultInterestRate = 5.0

// LoanService drives the loan lifecycle: pending on request, then exactly
// one administrator decision. Approval does not credit the principal to
// the account; disbursement is a separate manual step.
type LoanService interface {
	RequestLoan(ctx context.Context, caller auth.Principal, accountID string, req *models.LoanRequest) (*models.Loan, error)
	ApproveLoan(ctx context.Context, caller auth.Principal, loanID string) (*models.Loan, error)
	RejectLoan(ctx context.Context, caller auth.Principal, loanID string) (*models.Loan, error)
}

type LoanServiceImpl struct {
	loanRepo  repository.LoanRepository
	ledger    repository.LedgerStore
	auditRepo repository.AuditRepository
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewLoanService(loanRepo repository.LoanRepository, ledger repository.LedgerStore, auditRepo repository.AuditRepository, publisher *events.Publisher, logger *slog.Logger) *LoanServiceImpl {
	return &LoanServiceImpl{
		loanRepo:  loanRepo,
		ledger:    ledger,
		auditRepo: auditRepo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *LoanServiceImpl) RequestLoan(ctx context.Context, caller auth.Principal, accountID string, req *models.LoanRequest) (*models.Loan, error) {
	if req.Amount <= 0 {
		return nil, errors.ErrInvalidAmount
	}
	if req.DurationMonths <= 0 {
		return nil, errors.ErrInvalidDuration
	}
	if err := auth.CanMutateAccount(caller, accountID); err != nil {
		s.logger.Warn("loan request denied",
			"account_id", accountID,
		)
		return nil, err
	}

	// Requesting for a missing account surfaces NotFound before any write.
	if _, err := s.ledger.GetBalance(ctx, accountID); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		AccountID:      accountID,
		Amount:         req.Amount,
		InterestRate:   DefaultInterestRate,
		DurationMonths: req.DurationMonths,
		Status:         models.LoanPending,
	}

	if err := s.loanRepo.CreateLoan(ctx, loan); err != nil {
		s.logger.Error("failed to create loan",
			"account_id", accountID,
			"error", err.Error(),
		)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.LoanEventsStream, events.LoanRequested, events.LoanEvent{
		LoanID:    loan.ID,
		AccountID: loan.AccountID,
		Amount:    loan.Amount,
		Status:    loan.Status,
	}); err != nil {
		s.logger.Warn("failed to publish loan event",
			"loan_id", loan.ID,
			"error", err.Error(),
		)
	}

	s.logger.Info("loan requested",
		"loan_id", loan.ID,
		"account_id", accountID,
		"amount", loan.Amount,
		"duration_months", loan.DurationMonths,
	)
	return loan, nil
}

func (s *LoanServiceImpl) ApproveLoan(ctx context.Context, caller auth.Principal, loanID string) (*models.Loan, error) {
	return s.decide(ctx, caller, loanID, models.LoanApproved)
}

func (s *LoanServiceImpl) RejectLoan(ctx context.Context, caller auth.Principal, loanID string) (*models.Loan, error) {
	return s.decide(ctx, caller, loanID, models.LoanRejected)
}

func (s *LoanServiceImpl) decide(ctx context.Context, caller auth.Principal, loanID string, status models.LoanStatus) (*models.Loan, error) {
	if err := auth.CanDecideLoans(caller); err != nil {
		s.logger.Warn("loan decision denied",
			"loan_id", loanID,
		)
		return nil, err
	}

	loan, err := s.loanRepo.DecideLoan(ctx, loanID, status)
	if err != nil {
		if errors.IsInvalidTransition(err) {
			s.logger.Warn("loan already decided",
				"loan_id", loanID,
				"requested_status", status,
			)
			return nil, err
		}
		if errors.IsNotFound(err) {
			s.logger.Warn("loan not found",
				"loan_id", loanID,
			)
			return nil, err
		}
		s.logger.Error("failed to decide loan",
			"loan_id", loanID,
			"error", err.Error(),
		)
		return nil, err
	}

	s.recordDecisionAudit(ctx, loan, status)

	eventType := events.LoanApproved
	if status == models.LoanRejected {
		eventType = events.LoanRejected
	}
	if err := s.publisher.Publish(ctx, events.LoanEventsStream, eventType, events.LoanEvent{
		LoanID:    loan.ID,
		AccountID: loan.AccountID,
		Amount:    loan.Amount,
		Status:    loan.Status,
	}); err != nil {
		s.logger.Warn("failed to publish loan event",
			"loan_id", loan.ID,
			"error", err.Error(),
		)
	}

	s.logger.Info("loan decided",
		"loan_id", loan.ID,
		"account_id", loan.AccountID,
		"status", loan.Status,
	)
	return loan, nil
}

func (s *LoanServiceImpl) recordDecisionAudit(ctx context.Context, loan *models.Loan, status models.LoanStatus) {
	oldValue, _ := json.Marshal(models.LoanStatusSnapshot{ID: loan.ID, Status: models.LoanPending})
	newValue, _ := json.Marshal(models.LoanStatusSnapshot{ID: loan.ID, Status: status})

	action := models.AuditActionApproveLoan
	if status == models.LoanRejected {
		action = models.AuditActionRejectLoan
	}

	auditLog := &models.AuditLog{
		EntityType: models.EntityTypeLoan,
		EntityID:   loan.ID,
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		// continue even if audit logging fails
		s.logger.Error("failed to create audit log for loan decision",
			"loan_id", loan.ID,
			"error", err.Error(),
		)
	}
}
