package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

// testEnv wires every service against one shared in-memory store, the
// same shape cmd/server uses in STORE=memory mode.
type testEnv struct {
	store    *repository.MemoryStore
	accounts *AccountServiceImpl
	loans    *LoanServiceImpl
	admin    *AdminServiceImpl
	authsvc  *AuthServiceImpl
	tokens   *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	adminHash, err := auth.HashPassword("admin-password")
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}

	return &testEnv{
		store:    store,
		accounts: NewAccountService(store, store, nil, logger),
		loans:    NewLoanService(store, store, store, nil, logger),
		admin:    NewAdminService(store, store, store, store, nil, logger),
		authsvc: NewAuthService(store, tokens, AdminCredentials{
			Username:     "root",
			PasswordHash: adminHash,
		}, nil, logger),
		tokens: tokens,
	}
}

func (e *testEnv) newAccount(t *testing.T, id, username string) {
	t.Helper()
	err := e.store.CreateAccount(context.Background(), &models.Account{
		ID:           id,
		Username:     username,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create account %s: %v", id, err)
	}
}
