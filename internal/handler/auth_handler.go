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

type AuthHandler struct {
	authService service.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	router.HandleFunc("/admin/login", h.AdminLogin).Methods(http.MethodPost)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	if msg := u.ValidateStruct(&req); msg != "" {
		u.WriteError(w, http.StatusBadRequest, "validation error", msg)
		return
	}

	account, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "register")
		return
	}

	u.WriteJSON(w, http.StatusCreated, models.AccountResponse{
		ID:       account.ID,
		Username: account.Username,
		Balance:  account.Balance,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login request", "error", err.Error())
		u.WriteError(w, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	if msg := u.ValidateStruct(&req); msg != "" {
		u.WriteError(w, http.StatusBadRequest, "validation error", msg)
		return
	}

	var (
		token string
		err   error
	)
	if admin {
		token, err = h.authService.AdminLogin(r.Context(), &req)
	} else {
		token, err = h.authService.Login(r.Context(), &req)
	}
	if err != nil {
		h.handleServiceError(w, err, "login")
		return
	}

	u.WriteJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

func (h *AuthHandler) handleServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case err == errors.ErrInvalidCredentials:
		u.WriteError(w, http.StatusUnauthorized, "invalid credentials", "")
	case errors.IsAlreadyExists(err):
		u.WriteError(w, http.StatusConflict, "account already exists", "")
	case errors.IsValidationError(err):
		u.WriteError(w, http.StatusBadRequest, "validation error", err.Error())
	default:
		h.logger.Error("internal server error during "+action, "error", err.Error())
		u.WriteError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
