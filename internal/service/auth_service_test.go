package service

import (
	"context"
	"testing"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

func TestRegisterCreatesEmptyAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.authsvc.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Password: "s3cret-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Balance != 0 {
		t.Fatalf("balance=%d want 0", account.Balance)
	}
	if account.PasswordHash == "s3cret-password" {
		t.Fatal("password stored in plaintext")
	}

	stored, err := env.store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.Username != "alice" {
		t.Fatalf("username=%s want alice", stored.Username)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &models.RegisterRequest{Username: "alice", Password: "s3cret-password"}

	if _, err := env.authsvc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := env.authsvc.Register(ctx, req); !errors.IsAlreadyExists(err) {
		t.Fatalf("err=%v want already exists", err)
	}
}

func TestLoginIssuesUserToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.authsvc.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Password: "s3cret-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := env.authsvc.Login(ctx, &models.LoginRequest{
		Username: "alice",
		Password: "s3cret-password",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	principal, err := env.tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	user, ok := principal.(auth.User)
	if !ok || user.AccountID != account.ID {
		t.Fatalf("principal=%+v want User %s", principal, account.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.authsvc.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Password: "s3cret-password",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Username: "alice", Password: "wrong"}},
		{"unknown user", models.LoginRequest{Username: "nobody", Password: "s3cret-password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.authsvc.Login(ctx, &tt.req); err != errors.ErrInvalidCredentials {
				t.Fatalf("err=%v want invalid credentials", err)
			}
		})
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, err := env.authsvc.AdminLogin(ctx, &models.LoginRequest{
		Username: "root",
		Password: "admin-password",
	})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	principal, err := env.tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if _, ok := principal.(auth.Administrator); !ok {
		t.Fatalf("principal=%+v want Administrator", principal)
	}

	if _, err := env.authsvc.AdminLogin(ctx, &models.LoginRequest{
		Username: "root",
		Password: "wrong",
	}); err != errors.ErrInvalidCredentials {
		t.Fatalf("err=%v want invalid credentials", err)
	}
}

func TestAdminLoginUnconfigured(t *testing.T) {
	env := newTestEnv(t)
	bare := NewAuthService(env.store, env.tokens, AdminCredentials{}, nil, env.authsvc.logger)

	_, err := bare.AdminLogin(context.Background(), &models.LoginRequest{
		Username: "root",
		Password: "admin-password",
	})
	if err != errors.ErrInvalidCredentials {
		t.Fatalf("err=%v want invalid credentials", err)
	}
}
