package service

import (
	"context"
	"testing"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

func TestDepositAuthorizationBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	env.newAccount(t, "acc-2", "bob")

	tests := []struct {
		name    string
		caller  auth.Principal
		wantErr error
	}{
		{"owner may deposit", auth.User{AccountID: "acc-1"}, nil},
		{"other user may not", auth.User{AccountID: "acc-2"}, errors.ErrUnauthorized},
		{"administrator may not", auth.Administrator{Name: "root"}, errors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.accounts.Deposit(ctx, tt.caller, "acc-1", 100)
			if err != tt.wantErr {
				t.Fatalf("err=%v want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}

	for _, amount := range []int64{0, -50} {
		if _, _, err := env.accounts.Deposit(ctx, owner, "acc-1", amount); err != errors.ErrInvalidAmount {
			t.Fatalf("amount=%d err=%v want invalid amount", amount, err)
		}
	}
	// a negative "deposit" must never sneak through as a withdrawal
	balance, _ := env.store.GetBalance(ctx, "acc-1")
	if balance != 0 {
		t.Fatalf("balance=%d want 0", balance)
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}

	if _, _, err := env.accounts.Deposit(ctx, owner, "acc-1", 50); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, _, err := env.accounts.Withdraw(ctx, owner, "acc-1", 51); err != errors.ErrInsufficientFunds {
		t.Fatalf("err=%v want insufficient funds", err)
	}
	if _, balance, err := env.accounts.Withdraw(ctx, owner, "acc-1", 50); err != nil || balance != 0 {
		t.Fatalf("withdraw balance=%d err=%v want 0", balance, err)
	}
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.newAccount(t, "acc-1", "alice")
	owner := auth.User{AccountID: "acc-1"}

	env.accounts.Deposit(ctx, owner, "acc-1", 100)

	summary, err := env.accounts.GetSummary(ctx, owner, "acc-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Balance != 100 {
		t.Fatalf("balance=%d want 100", summary.Balance)
	}
	if summary.LoanStatus != nil || summary.LoanAmount != nil {
		t.Fatalf("summary=%+v want no loan fields", summary)
	}

	if _, err := env.loans.RequestLoan(ctx, owner, "acc-1", &models.LoanRequest{Amount: 500, DurationMonths: 12}); err != nil {
		t.Fatalf("request loan: %v", err)
	}

	summary, err = env.accounts.GetSummary(ctx, owner, "acc-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.LoanStatus == nil || *summary.LoanStatus != models.LoanPending {
		t.Fatalf("loan status=%v want pending", summary.LoanStatus)
	}
	if summary.LoanAmount == nil || *summary.LoanAmount != 500 {
		t.Fatalf("loan amount=%v want 500", summary.LoanAmount)
	}

	// administrators may read any summary, strangers may not
	if _, err := env.accounts.GetSummary(ctx, auth.Administrator{Name: "root"}, "acc-1"); err != nil {
		t.Fatalf("admin summary: %v", err)
	}
	if _, err := env.accounts.GetSummary(ctx, auth.User{AccountID: "acc-2"}, "acc-1"); err != errors.ErrUnauthorized {
		t.Fatalf("stranger summary err=%v want unauthorized", err)
	}
}

func TestListTransactionsUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	caller := auth.Administrator{Name: "root"}

	if _, err := env.accounts.ListTransactions(context.Background(), caller, "missing"); !errors.IsNotFound(err) {
		t.Fatalf("err=%v want not found", err)
	}
}
