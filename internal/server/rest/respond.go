package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps service errors to statuses. Only messages carried by
// common.ValidationError and common.ConflictError reach the client; the
// rest collapse to fixed texts.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	var ce *common.ConflictError

	switch {
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, ve.Msg)
	case errors.As(err, &ce):
		writeMessage(w, http.StatusConflict, ce.Msg)
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, common.ErrorForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body into dst and validates it. Any failure is a
// validation error with msg.
func decode(w http.ResponseWriter, r *http.Request, dst any, msg string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.NewValidationError(msg)
	}
	if err := validate.Struct(dst); err != nil {
		return common.NewValidationError(msg)
	}
	return nil
}
