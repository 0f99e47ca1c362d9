package models

import (
	"encoding/json"
	"time"
)

// All monetary amounts are int64 minor units (cents). The authoritative
// store never holds floating point.

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
)

type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction is one immutable ledger log entry. Records are append-only:
// exactly one per balance mutation, never updated or deleted.
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Type      TransactionType `json:"type"`
	Amount    int64           `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

type Loan struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"account_id"`
	Amount         int64      `json:"amount"`
	InterestRate   float64    `json:"interest_rate"`
	DurationMonths int        `json:"duration_months"`
	Status         LoanStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TransactionWithOwner is the admin view of a ledger entry joined with the
// owning account's username.
type TransactionWithOwner struct {
	Transaction
	Username string `json:"username"`
}

// LoanWithOwner is the admin view of a loan joined with the owning
// account's username.
type LoanWithOwner struct {
	Loan
	Username string `json:"username"`
}

// AccountSummary is the dashboard composite: current balance plus the most
// recently created loan, if any.
type AccountSummary struct {
	AccountID  string      `json:"account_id"`
	Balance    int64       `json:"balance"`
	LoanStatus *LoanStatus `json:"loan_status,omitempty"`
	LoanAmount *int64      `json:"loan_amount,omitempty"`
}

type AuditLog struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	AuditActionApproveLoan   = "APPROVE_LOAN"
	AuditActionRejectLoan    = "REJECT_LOAN"
	AuditActionRemoveAccount = "REMOVE_ACCOUNT"
)

const (
	EntityTypeAccount = "ACCOUNT"
	EntityTypeLoan    = "LOAN"
)

// Request / response payloads.

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type MutationRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type MutationResponse struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Type          TransactionType `json:"type"`
	Amount        int64           `json:"amount"`
	Balance       int64           `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

type LoanRequest struct {
	Amount         int64 `json:"amount" validate:"required,gt=0"`
	DurationMonths int   `json:"duration_months" validate:"required,gt=0"`
}

type AccountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type AccountBalanceSnapshot struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

type LoanStatusSnapshot struct {
	ID     string     `json:"id"`
	Status LoanStatus `json:"status"`
}
