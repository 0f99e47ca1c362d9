package utils

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/riteshkumar/bank-ledger/internal/models"
)

var validate = validator.New()

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func WriteError(w http.ResponseWriter, status int, errorMsg, details string) {
	response := models.ErrorResponse{
		Error:   errorMsg,
		Message: details,
	}
	WriteJSON(w, status, response)
}

// ValidateStruct runs the validator tags on a request payload and returns
// a human-readable message for the first failing field, or "" when valid.
func ValidateStruct(obj any) string {
	err := validate.Struct(obj)
	if err == nil {
		return ""
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return "invalid request data"
	}
	first := validationErrors[0]
	return "field '" + first.Field() + "': " + fieldErrorMsg(first)
}

func fieldErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "value is too short"
	case "max":
		return "value is too long"
	case "gt":
		return "value must be greater than " + err.Param()
	case "gte":
		return "value must be greater than or equal to " + err.Param()
	default:
		return "invalid value"
	}
}
