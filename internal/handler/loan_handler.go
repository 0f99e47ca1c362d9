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

type LoanHandler struct {
	loanService service.LoanService
	logger      *slog.Logger
}

func NewLoanHandler(loanService service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		logger:      logger,
	}
}

func (h *LoanHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/{id}/loans", h.RequestLoan).Methods(http.MethodPost)
	router.HandleFunc("/admin/loans/{id}/approve", h.ApproveLoan).Methods(http.MethodPost)
	router.HandleFunc("/admin/loans/{id}/reject", h.RejectLoan).Methods(http.MethodPost)
}

func (h *LoanHandler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	accountID := mux.Vars(r)["id"]

	var req models.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid loan request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	if msg := u.ValidateStruct(&req); msg != "" {
		u.WriteError(w, http.StatusBadRequest, "validation error", msg)
		return
	}

	loan, err := h.loanService.RequestLoan(r.Context(), caller, accountID, &req)
	if err != nil {
		h.handleServiceError(w, err, "request loan")
		return
	}

	u.WriteJSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *LoanHandler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *LoanHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	loanID := mux.Vars(r)["id"]

	var (
		loan *models.Loan
		err  error
	)
	if approve {
		loan, err = h.loanService.ApproveLoan(r.Context(), caller, loanID)
	} else {
		loan, err = h.loanService.RejectLoan(r.Context(), caller, loanID)
	}
	if err != nil {
		h.handleServiceError(w, err, "decide loan")
		return
	}

	u.WriteJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) handleServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.IsUnauthorized(err):
		u.WriteError(w, http.StatusForbidden, "unauthorized", "caller lacks the required capability")
	case errors.IsNotFound(err):
		u.WriteError(w, http.StatusNotFound, "not found", err.Error())
	case errors.IsInvalidTransition(err):
		u.WriteError(w, http.StatusConflict, "invalid transition", "loan has already been decided")
	case err == errors.ErrInvalidAmount:
		u.WriteError(w, http.StatusBadRequest, "invalid amount", "amount must be positive")
	case err == errors.ErrInvalidDuration:
		u.WriteError(w, http.StatusBadRequest, "invalid duration", "duration must be a positive number of months")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	default:
		h.logger.Error("internal server error during "+action, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
