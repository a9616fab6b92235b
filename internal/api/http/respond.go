package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/security"
)

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: message})
}

// writeError maps the error taxonomy onto HTTP status codes. Unknown errors
// surface as opaque 500s; their detail only goes to the log.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Withdrawal amount exceeds available balance."})
	case errors.Is(err, domain.ErrInvalidWithdrawalCode):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "The withdrawal code is incorrect."})
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrExpiredToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid or expired auth token."})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Permission denied."})
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrActivityNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidActivityState):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Transaction is not a pending withdrawal."})
	default:
		logger.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "An internal server error occurred."})
	}
}
