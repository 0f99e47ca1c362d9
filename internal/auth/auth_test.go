package auth

import (
	"testing"
	"time"

	"github.com/riteshkumar/bank-ledger/internal/errors"
)

func TestGateCapabilities(t *testing.T) {
	owner := User{AccountID: "acc-1"}
	stranger := User{AccountID: "acc-2"}
	admin := Administrator{Name: "root"}

	tests := []struct {
		name    string
		check   func() error
		allowed bool
	}{
		{"owner mutates own account", func() error { return CanMutateAccount(owner, "acc-1") }, true},
		{"stranger mutates foreign account", func() error { return CanMutateAccount(stranger, "acc-1") }, false},
		{"admin mutates account", func() error { return CanMutateAccount(admin, "acc-1") }, false},
		{"owner reads own account", func() error { return CanReadAccount(owner, "acc-1") }, true},
		{"stranger reads foreign account", func() error { return CanReadAccount(stranger, "acc-1") }, false},
		{"admin reads any account", func() error { return CanReadAccount(admin, "acc-1") }, true},
		{"user decides loans", func() error { return CanDecideLoans(owner) }, false},
		{"admin decides loans", func() error { return CanDecideLoans(admin) }, true},
		{"user views all", func() error { return CanViewAll(owner) }, false},
		{"admin views all", func() error { return CanViewAll(admin) }, true},
		{"user removes accounts", func() error { return CanRemoveAccounts(owner) }, false},
		{"admin removes accounts", func() error { return CanRemoveAccounts(admin) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tt.allowed && err != errors.ErrUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword("s3cret-password", hash) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	userToken, err := issuer.Issue(User{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("issue user token: %v", err)
	}
	principal, err := issuer.Parse(userToken)
	if err != nil {
		t.Fatalf("parse user token: %v", err)
	}
	user, ok := principal.(User)
	if !ok || user.AccountID != "acc-1" {
		t.Fatalf("principal=%+v want User acc-1", principal)
	}

	adminToken, err := issuer.Issue(Administrator{Name: "root"})
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}
	principal, err = issuer.Parse(adminToken)
	if err != nil {
		t.Fatalf("parse admin token: %v", err)
	}
	admin, ok := principal.(Administrator)
	if !ok || admin.Name != "root" {
		t.Fatalf("principal=%+v want Administrator root", principal)
	}
}

func TestTokenRejectedOnWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Issue(User{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Parse(token); err != errors.ErrUnauthenticated {
		t.Fatalf("err=%v want unauthenticated", err)
	}
}

func TestTokenRejectedWhenExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(User{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(token); err != errors.ErrUnauthenticated {
		t.Fatalf("err=%v want unauthenticated", err)
	}
}

func TestTokenRejectedWhenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Parse("not-a-token"); err != errors.ErrUnauthenticated {
		t.Fatalf("err=%v want unauthenticated", err)
	}
}
