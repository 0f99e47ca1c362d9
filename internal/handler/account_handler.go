package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/service"
	u "github.com/riteshkumar/bank-ledger/internal/utils"
)

type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

func NewAccountHandler(accountService service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/{id}/deposit", h.Deposit).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}/withdraw", h.Withdraw).Methods(http.MethodPost)
	router.HandleFunc("/accounts/{id}/summary", h.GetSummary).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{id}/transactions", h.ListTransactions).Methods(http.MethodGet)
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, false)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, true)
}

func (h *AccountHandler) mutate(w http.ResponseWriter, r *http.Request, withdraw bool) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	accountID := mux.Vars(r)["id"]

	var req models.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid mutation request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	if msg := u.ValidateStruct(&req); msg != "" {
		u.WriteError(w, http.StatusBadRequest, "validation error", msg)
		return
	}

	var (
		transaction *models.Transaction
		balance     int64
		err         error
	)
	if withdraw {
		transaction, balance, err = h.accountService.Withdraw(r.Context(), caller, accountID, req.Amount)
	} else {
		transaction, balance, err = h.accountService.Deposit(r.Context(), caller, accountID, req.Amount)
	}
	if err != nil {
		h.handleServiceError(w, err, "apply mutation")
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.MutationResponse{
		TransactionID: transaction.ID,
		AccountID:     transaction.AccountID,
		Type:          transaction.Type,
		Amount:        transaction.Amount,
		Balance:       balance,
		CreatedAt:     transaction.CreatedAt,
	})
}

func (h *AccountHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	accountID := mux.Vars(r)["id"]

	summary, err := h.accountService.GetSummary(r.Context(), caller, accountID)
	if err != nil {
		h.handleServiceError(w, err, "get summary")
		return
	}
	u.WriteJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	accountID := mux.Vars(r)["id"]

	transactions, err := h.accountService.ListTransactions(r.Context(), caller, accountID)
	if err != nil {
		h.handleServiceError(w, err, "list transactions")
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	u.WriteJSON(w, http.StatusOK, transactions)
}

func (h *AccountHandler) handleServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.IsUnauthorized(err):
		u.WriteError(w, http.StatusForbidden, "unauthorized", "caller lacks the required capability")
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", "")
	case errors.IsInsufficientFunds(err):
		u.WriteError(w, http.StatusBadRequest, "insufficient funds", "account does not have enough funds")
	case err == errors.ErrInvalidAmount:
		u.WriteError(w, http.StatusBadRequest, "invalid amount", "amount must be positive")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	default:
		h.logger.Error("internal server error during "+action, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
