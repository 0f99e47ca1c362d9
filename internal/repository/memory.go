package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
)

// MemoryStore implements LedgerStore, AccountRepository, LoanRepository and
// AuditRepository in process. It backs the test suite and the STORE=memory
// development mode.
//
// Concurrency model mirrors the Postgres substrate: a per-account mutex
// serializes balance mutations on one account while mutations on different
// accounts proceed independently, and a store-wide RWMutex guards the maps
// so list views read one consistent snapshot.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[string]*models.Account
	accountOrder []string
	txnLog       []*models.Transaction // global append order
	loans        map[string]*models.Loan
	loanOrder    []string
	audits       []*models.AuditLog

	lockMu       sync.Mutex
	accountLocks map[string]*sync.Mutex

	// appendFault, when set, fails the transaction-log append mid-mutation.
	// Exists so tests can prove the all-or-nothing contract.
	appendFault func() error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]*models.Account),
		loans:        make(map[string]*models.Loan),
		accountLocks: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) accountLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.accountLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.accountLocks[id] = l
	}
	return l
}

// ---- LedgerStore ----

func (s *MemoryStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return 0, errors.ErrAccountNotFound
	}
	return account.Balance, nil
}

func (s *MemoryStore) ApplyMutation(ctx context.Context, accountID string, delta int64) (*models.Transaction, int64, error) {
	if delta == 0 {
		return nil, 0, errors.ErrInvalidAmount
	}

	// Held for the whole read-check-write-append sequence.
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	account, ok := s.accounts[accountID]
	var balance int64
	if ok {
		balance = account.Balance
	}
	s.mu.RUnlock()

	if !ok {
		return nil, 0, errors.ErrAccountNotFound
	}
	if delta < 0 && -delta > balance {
		return nil, 0, errors.ErrInsufficientFunds
	}

	if s.appendFault != nil {
		if err := s.appendFault(); err != nil {
			// Neither the balance write nor the append is retained.
			return nil, 0, errors.NewStoreError("append transaction", err)
		}
	}

	transaction := &models.Transaction{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Type:      mutationType(delta),
		Amount:    abs(delta),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	account.Balance = balance + delta
	s.txnLog = append(s.txnLog, transaction)
	newBalance := account.Balance
	s.mu.Unlock()

	out := *transaction
	return &out, newBalance, nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var transactions []*models.Transaction
	for i := len(s.txnLog) - 1; i >= 0; i-- {
		if s.txnLog[i].AccountID != accountID {
			continue
		}
		out := *s.txnLog[i]
		transactions = append(transactions, &out)
	}
	return transactions, nil
}

func (s *MemoryStore) ListAllWithOwner(ctx context.Context) ([]*models.TransactionWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var views []*models.TransactionWithOwner
	for i := len(s.txnLog) - 1; i >= 0; i-- {
		transaction := s.txnLog[i]
		account, ok := s.accounts[transaction.AccountID]
		if !ok {
			// Cascade removal deletes dependent records, so an orphan
			// cannot occur; skip defensively rather than fail the view.
			continue
		}
		views = append(views, &models.TransactionWithOwner{
			Transaction: *transaction,
			Username:    account.Username,
		})
	}
	return views, nil
}

// ---- AccountRepository ----

func (s *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return errors.ErrAccountAlreadyExists
	}
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return errors.ErrAccountAlreadyExists
		}
	}

	account.CreatedAt = time.Now().UTC()
	stored := *account
	s.accounts[account.ID] = &stored
	s.accountOrder = append(s.accountOrder, account.ID)
	return nil
}

func (s *MemoryStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	out := *account
	return &out, nil
}

func (s *MemoryStore) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.Username == username {
			out := *account
			return &out, nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*models.Account
	for _, id := range s.accountOrder {
		account, ok := s.accounts[id]
		if !ok {
			continue
		}
		out := *account
		accounts = append(accounts, &out)
	}
	return accounts, nil
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, id string) error {
	// Take the per-account lock so the cascade cannot interleave with an
	// in-flight mutation on the same account.
	lock := s.accountLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return errors.ErrAccountNotFound
	}

	delete(s.accounts, id)
	for i, accountID := range s.accountOrder {
		if accountID == id {
			s.accountOrder = append(s.accountOrder[:i], s.accountOrder[i+1:]...)
			break
		}
	}

	kept := s.txnLog[:0]
	for _, transaction := range s.txnLog {
		if transaction.AccountID != id {
			kept = append(kept, transaction)
		}
	}
	s.txnLog = kept

	keptLoans := s.loanOrder[:0]
	for _, loanID := range s.loanOrder {
		if s.loans[loanID].AccountID == id {
			delete(s.loans, loanID)
			continue
		}
		keptLoans = append(keptLoans, loanID)
	}
	s.loanOrder = keptLoans

	return nil
}

// ---- LoanRepository ----

func (s *MemoryStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan.CreatedAt = time.Now().UTC()
	stored := *loan
	s.loans[loan.ID] = &stored
	s.loanOrder = append(s.loanOrder, loan.ID)
	return nil
}

func (s *MemoryStore) GetLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loan, ok := s.loans[id]
	if !ok {
		return nil, errors.ErrLoanNotFound
	}
	out := *loan
	return &out, nil
}

func (s *MemoryStore) LatestLoanByAccount(ctx context.Context, accountID string) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.loanOrder) - 1; i >= 0; i-- {
		loan := s.loans[s.loanOrder[i]]
		if loan.AccountID == accountID {
			out := *loan
			return &out, nil
		}
	}
	return nil, errors.ErrLoanNotFound
}

func (s *MemoryStore) ListLoansWithOwner(ctx context.Context) ([]*models.LoanWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var views []*models.LoanWithOwner
	for i := len(s.loanOrder) - 1; i >= 0; i-- {
		loan := s.loans[s.loanOrder[i]]
		account, ok := s.accounts[loan.AccountID]
		if !ok {
			continue
		}
		views = append(views, &models.LoanWithOwner{
			Loan:     *loan,
			Username: account.Username,
		})
	}
	return views, nil
}

func (s *MemoryStore) DecideLoan(ctx context.Context, id string, status models.LoanStatus) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[id]
	if !ok {
		return nil, errors.ErrLoanNotFound
	}
	// Compare-and-set: the transition happens only while still pending.
	if loan.Status != models.LoanPending {
		return nil, errors.ErrInvalidTransition
	}
	loan.Status = status

	out := *loan
	return &out, nil
}

// ---- AuditRepository ----

func (s *MemoryStore) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	log.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *log
	s.audits = append(s.audits, &stored)
	return nil
}

func (s *MemoryStore) GetByEntityID(ctx context.Context, entityType, entityID string) ([]*models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var logs []*models.AuditLog
	for i := len(s.audits) - 1; i >= 0; i-- {
		log := s.audits[i]
		if log.EntityType == entityType && log.EntityID == entityID {
			out := *log
			logs = append(logs, &out)
		}
	}
	return logs, nil
}
