package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/riteshkumar/bank-ledger/internal/errors"
	"github.com/riteshkumar/bank-ledger/internal/models"
	"github.com/riteshkumar/bank-ledger/internal/service"
	u "github.com/riteshkumar/bank-ledger/internal/utils"
)

type AdminHandler struct {
	adminService service.AdminService
	logger       *slog.Logger
}

func NewAdminHandler(adminService service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/admin/accounts", h.ListAccounts).Methods(http.MethodGet)
	router.HandleFunc("/admin/transactions", h.ListTransactions).Methods(http.MethodGet)
	router.HandleFunc("/admin/loans", h.ListLoans).Methods(http.MethodGet)
	router.HandleFunc("/admin/accounts/{id}", h.RemoveAccount).Methods(http.MethodDelete)
}

func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	accounts, err := h.adminService.ListAccounts(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, err, "list accounts")
		return
	}

	views := make([]models.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, models.AccountResponse{
			ID:       account.ID,
			Username: account.Username,
			Balance:  account.Balance,
		})
	}
	u.WriteJSON(w, http.StatusOK, views)
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	transactions, err := h.adminService.ListTransactions(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, err, "list transactions")
		return
	}
	if transactions == nil {
		transactions = []*models.TransactionWithOwner{}
	}
	u.WriteJSON(w, http.StatusOK, transactions)
}

func (h *AdminHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	loans, err := h.adminService.ListLoans(r.Context(), caller)
	if err != nil {
		h.handleServiceError(w, err, "list loans")
		return
	}
	if loans == nil {
		loans = []*models.LoanWithOwner{}
	}
	u.WriteJSON(w, http.StatusOK, loans)
}

func (h *AdminHandler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	accountID := mux.Vars(r)["id"]

	if err := h.adminService.RemoveAccount(r.Context(), caller, accountID); err != nil {
		h.handleServiceError(w, err, "remove account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.IsUnauthorized(err):
		u.WriteError(w, http.StatusForbidden, "unauthorized", "administrator capability required")
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "account not found", "")
	default:
		h.logger.Error("internal server error during "+action, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
