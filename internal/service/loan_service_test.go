package service

import (
	"context"
	"testing"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

func TestRequestLoanValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}

	tests := []struct {
		name    string
		caller  auth.Principal
		account string
		req     models.LoanRequest
		wantErr error
	}{
		{"zero amount", owner, "acc-1", models.LoanRequest{Amount: 0, DurationMonths: 12}, errors.ErrInvalidAmount},
		{"negative amount", owner, "acc-1", models.LoanRequest{Amount: -5, DurationMonths: 12}, errors.ErrInvalidAmount},
		{"zero duration", owner, "acc-1", models.LoanRequest{Amount: 100, DurationMonths: 0}, errors.ErrInvalidDuration},
		{"foreign account", auth.User{AccountID: "acc-2"}, "acc-1", models.LoanRequest{Amount: 100, DurationMonths: 12}, errors.ErrUnauthorized},
		{"administrator", auth.Administrator{Name: "root"}, "acc-1", models.LoanRequest{Amount: 100, DurationMonths: 12}, errors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.loans.RequestLoan(ctx, tt.caller, tt.account, &tt.req)
			if err != tt.wantErr {
				t.Fatalf("err=%v want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestLoanCreatesPendingWithFlatRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}

	loan, err := env.loans.RequestLoan(ctx, owner, "acc-1", &models.LoanRequest{Amount: 500, DurationMonths: 12})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if loan.Status != models.LoanPending {
		t.Fatalf("status=%s want pending", loan.Status)
	}
	if loan.InterestRate != DefaultInterestRate {
		t.Fatalf("rate=%v want %v", loan.InterestRate, DefaultInterestRate)
	}
	if loan.Amount != 500 || loan.DurationMonths != 12 {
		t.Fatalf("loan=%+v", loan)
	}
}

func TestRequestLoanUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	caller := auth.User{AccountID: "missing"}

	_, err := env.loans.RequestLoan(context.Background(), caller, "missing", &models.LoanRequest{Amount: 100, DurationMonths: 6})
	if !errors.IsNotFound(err) {
		t.Fatalf("err=%v want not found", err)
	}
}

func TestLoanDecisionRequiresAdministrator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}

	loan, err := env.loans.RequestLoan(ctx, owner, "acc-1", &models.LoanRequest{Amount: 500, DurationMonths: 12})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := env.loans.ApproveLoan(ctx, owner, loan.ID); err != errors.ErrUnauthorized {
		t.Fatalf("user approve err=%v want unauthorized", err)
	}
	if _, err := env.loans.RejectLoan(ctx, owner, loan.ID); err != errors.ErrUnauthorized {
		t.Fatalf("user reject err=%v want unauthorized", err)
	}

	got, _ := env.store.GetLoanByID(ctx, loan.ID)
	if got.Status != models.LoanPending {
		t.Fatalf("status=%s want pending after denied decisions", got.Status)
	}
}

func TestLoanSingleTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}
	admin := auth.Administrator{Name: "root"}

	loan, err := env.loans.RequestLoan(ctx, owner, "acc-1", &models.LoanRequest{Amount: 500, DurationMonths: 12})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	approved, err := env.loans.ApproveLoan(ctx, admin, loan.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.LoanApproved {
		t.Fatalf("status=%s want approved", approved.Status)
	}

	// a repeat approval is a no-op error, never a silent success
	if _, err := env.loans.ApproveLoan(ctx, admin, loan.ID); err != errors.ErrInvalidTransition {
		t.Fatalf("repeat approve err=%v want invalid transition", err)
	}
	if _, err := env.loans.RejectLoan(ctx, admin, loan.ID); err != errors.ErrInvalidTransition {
		t.Fatalf("reject after approve err=%v want invalid transition", err)
	}

	got, _ := env.store.GetLoanByID(ctx, loan.ID)
	if got.Status != models.LoanApproved {
		t.Fatalf("status=%s want approved", got.Status)
	}
}

func TestLoanRejectPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}
	admin := auth.Administrator{Name: "root"}

	loan, _ := env.loans.RequestLoan(ctx, owner, "acc-1", &models.LoanRequest{Amount: 500, DurationMonths: 12})

	rejected, err := env.loans.RejectLoan(ctx, admin, loan.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.LoanRejected {
		t.Fatalf("status=%s want rejected", rejected.Status)
	}
	if _, err := env.loans.ApproveLoan(ctx, admin, loan.ID); err != errors.ErrInvalidTransition {
		t.Fatalf("approve after reject err=%v want invalid transition", err)
	}
}

func TestLoanDecisionWritesAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}
	admin := auth.Administrator{Name: "root"}

	loan, _ := env.loans.RequestLoan(ctx, owner, "acc-1", &models.LoanRequest{Amount: 500, DurationMonths: 12})
	env.loans.ApproveLoan(ctx, admin, loan.ID)

	logs, err := env.store.GetByEntityID(ctx, models.EntityTypeLoan, loan.ID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != models.AuditActionApproveLoan {
		t.Fatalf("logs=%+v want one approve entry", logs)
	}
}

func TestApproveUnknownLoan(t *testing.T) {
	env := newTestEnv(t)
	admin := auth.Administrator{Name: "root"}

	if _, err := env.loans.ApproveLoan(context.Background(), admin, "missing"); !errors.IsNotFound(err) {
		t.Fatalf("err=%v want not found", err)
	}
}
