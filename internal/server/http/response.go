package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/sevr/internal/common"
)

const (
	msgUnauthorized     = "unauthorized"
	msgInvalidBody      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"
	msgCodeNotFound     = "Invalid or expired code"
	msgCodeMismatch     = "Invalid code"
	msgTooManyAttempts  = "Too many attempts. Please request a new code."
	msgRefreshInvalid   = "Invalid or expired refresh token"
	msgAlreadySetUp     = "Encryption already set up"
	msgUserNotFound     = "User not found"
	msgEmailRequired    = "Email is required"
	msgEmailAndCode     = "Email and code are required"
	msgRefreshRequired  = "Refresh token is required"
	msgSaltAndVerifier  = "Salt and verifier are required"
	msgDataAndIVMissing = "Data and IV are required"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

var okResponse = successResponse{Success: true}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads the request body into dst and writes the error response
// itself when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorJSON(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return false
		}
		errorJSON(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// validationMessage turns "validation error: invalid email format" into
// "Invalid email format".
func validationMessage(err error) string {
	msg := err.Error()
	prefix := common.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	}
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// writeError maps service errors to status codes. Unknown errors are logged
// and answered with fallback.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		errorJSON(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, common.ErrAlreadySetUp):
		errorJSON(w, http.StatusBadRequest, msgAlreadySetUp)
	case errors.Is(err, common.ErrCodeNotFound):
		errorJSON(w, http.StatusUnauthorized, msgCodeNotFound)
	case errors.Is(err, common.ErrCodeMismatch):
		errorJSON(w, http.StatusUnauthorized, msgCodeMismatch)
	case errors.Is(err, common.ErrTooManyAttempts):
		errorJSON(w, http.StatusUnauthorized, msgTooManyAttempts)
	case errors.Is(err, common.ErrRefreshTokenInvalid):
		errorJSON(w, http.StatusUnauthorized, msgRefreshInvalid)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		errorJSON(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, common.ErrorNotFound):
		errorJSON(w, http.StatusNotFound, msgUserNotFound)
	default:
		s.logger.Error(r.Context(), fallback, "error", err, "path", r.URL.Path)
		errorJSON(w, http.StatusInternalServerError, fallback)
	}
}
