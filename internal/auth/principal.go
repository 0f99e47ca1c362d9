package auth

import (
	"github.com/riteshkumar/bank-ledger/internal/errors"
)

// Principal is the resolved caller identity every service operation takes
// explicitly. There are exactly two variants: a User bound to one account,
// and an Administrator bound to none. Keeping the variant an argument
// rather than ambient session state makes every capability check testable
// in isolation.
type Principal interface {
	principal()
}

// User is a caller bound to exactly one account.
type User struct {
	AccountID string
}

func (User) principal() {}

// Administrator may read all accounts, transactions and loans, decide
// loans, and remove accounts. It holds no account of its own.
type Administrator struct {
	Name string
}

func (Administrator) principal() {}

// CanMutateAccount reports whether the caller may deposit to or withdraw
// from the given account. Only the owning user may; administrators hold no
// balance-mutation capability.
func CanMutateAccount(p Principal, accountID string) error {
	if u, ok := p.(User); ok && u.AccountID == accountID {
		return nil
	}
	return errors.ErrUnauthorized
}

// CanReadAccount reports whether the caller may read the given account's
// balance, summary and transaction history.
func CanReadAccount(p Principal, accountID string) error {
	switch v := p.(type) {
	case Administrator:
		return nil
	case User:
		if v.AccountID == accountID {
			return nil
		}
	}
	return errors.ErrUnauthorized
}

// CanDecideLoans reports whether the caller may approve or reject loans.
func CanDecideLoans(p Principal) error {
	if _, ok := p.(Administrator); ok {
		return nil
	}
	return errors.ErrUnauthorized
}

// CanViewAll reports whether the caller may read the cross-account admin
// views.
func CanViewAll(p Principal) error {
	if _, ok := p.(Administrator); ok {
		return nil
	}
	return errors.ErrUnauthorized
}

// CanRemoveAccounts reports whether the caller may remove accounts and
// their dependent records.
func CanRemoveAccounts(p Principal) error {
	if _, ok := p.(Administrator); ok {
		return nil
	}
	return errors.ErrUnauthorized
}
