package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/riteshkumar/bank-ledger/internal/auth"
	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/events"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/repository"
)

// AuthService is the credential collaborator boundary: it registers
// accounts, verifies passwords and mints session tokens that carry the
// resolved caller variant.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, error)
	AdminLogin(ctx context.Context, req *models.LoginRequest) (string, error)
}

// AdminCredentials is the configured administrator identity. The hash is
// opaque bcrypt, same as account credentials.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type AuthServiceImpl struct {
	accountRepo repository.AccountRepository
	tokens      *auth.TokenIssuer
	admin       AdminCredentials
	publisher   *events.Publisher
	logger      *slog.Logger
}

func NewAuthService(accountRepo repository.AccountRepository, tokens *auth.TokenIssuer, admin AdminCredentials, publisher *events.Publisher, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		tokens:      tokens,
		admin:       admin,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewStoreError("hash password", err)
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
		Balance:      0,
	}

	if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
		if errors.IsAlreadyExists(err) {
			s.logger.Warn("username already taken",
				"username", req.Username,
			)
			return nil, err
		}
		s.logger.Error("failed to create account",
			"username", req.Username,
			"error", err.Error(),
		)
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountRegistered, events.AccountRegisteredEvent{
		AccountID: account.ID,
		Username:  account.Username,
	}); err != nil {
		s.logger.Warn("failed to publish account event",
			"account_id", account.ID,
			"error", err.Error(),
		)
	}

	s.logger.Info("account registered",
		"account_id", account.ID,
		"username", account.Username,
	)
	return account, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	account, err := s.accountRepo.GetAccountByUsername(ctx, req.Username)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", errors.ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.VerifyPassword(req.Password, account.PasswordHash) {
		s.logger.Warn("login failed",
			"username", req.Username,
		)
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.User{AccountID: account.ID})
	if err != nil {
		return "", errors.NewStoreError("issue token", err)
	}
	return token, nil
}

func (s *AuthServiceImpl) AdminLogin(ctx context.Context, req *models.LoginRequest) (string, error) {
	if s.admin.Username == "" || s.admin.PasswordHash == "" {
		s.logger.Warn("admin login attempted with no administrator configured")
		return "", errors.ErrInvalidCredentials
	}
	if req.Username != s.admin.Username || !auth.VerifyPassword(req.Password, s.admin.PasswordHash) {
		s.logger.Warn("admin login failed",
			"username", req.Username,
		)
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Administrator{Name: s.admin.Username})
	if err != nil {
		return "", errors.NewStoreError("issue token", err)
	}
	return token, nil
}
