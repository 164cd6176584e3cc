package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/eventhub/internal/common"
)

// maxBodyBytes caps request bodies. Payment QR images arrive inline.
const maxBodyBytes = 10 << 20

// envelope is a success response; writeJSON adds "success": true.
type envelope map[string]any

// Error kinds are stable, machine-checkable identifiers.
const (
	kindUnauthenticated      = "Unauthenticated"
	kindInvalidCredentials   = "InvalidCredentials"
	kindForbidden            = "Forbidden"
	kindDuplicateIdentity    = "DuplicateIdentity"
	kindAlreadyRegistered    = "AlreadyRegistered"
	kindDeadlinePassed       = "DeadlinePassed"
	kindPaymentProofRequired = "PaymentProofRequired"
	kindInvalidOrExpired     = "InvalidOrExpired"
	kindValidation           = "Validation"
	kindNotFound             = "NotFound"
	kindDeliveryFailed       = "DeliveryFailed"
	kindInternal             = "Internal"
)

type errorBody struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if env, ok := body.(envelope); ok {
		env["success"] = true
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// classify maps an error to its HTTP status, kind and client message.
// ok is false for unexpected errors, whose detail must not reach clients.
func classify(err error) (status int, kind, message string, ok bool) {
	switch {
	case errors.Is(err, common.ErrUnauthenticated),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, kindUnauthenticated, common.ErrUnauthenticated.Error(), true
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, kindInvalidCredentials, err.Error(), true
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, kindForbidden, err.Error(), true
	case errors.Is(err, common.ErrDuplicateIdentity):
		return http.StatusConflict, kindDuplicateIdentity, err.Error(), true
	case errors.Is(err, common.ErrAlreadyRegistered):
		return http.StatusConflict, kindAlreadyRegistered, err.Error(), true
	case errors.Is(err, common.ErrDeadlinePassed):
		return http.StatusBadRequest, kindDeadlinePassed, err.Error(), true
	case errors.Is(err, common.ErrPaymentProofRequired):
		return http.StatusBadRequest, kindPaymentProofRequired, err.Error(), true
	case errors.Is(err, common.ErrInvalidOrExpired):
		return http.StatusBadRequest, kindInvalidOrExpired, err.Error(), true
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, kindValidation, err.Error(), true
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, kindNotFound, err.Error(), true
	case errors.Is(err, common.ErrDeliveryFailed):
		return http.StatusInternalServerError, kindDeliveryFailed, "Email could not be sent", true
	default:
		return http.StatusInternalServerError, kindInternal, "Server error", false
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, message, ok := classify(err)
	if !ok {
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody{Kind: kind, Message: message})
}

// readJSON decodes a JSON body into dst. An empty body yields io.EOF and
// leaves dst untouched.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrValidation), errors.Is(err, io.EOF):
		return err
	default:
		return common.Validationf("Invalid request body")
	}
}

// decodeJSON reads a required JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := readJSON(w, r, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.Validationf("Request body is required")
		}
		return err
	}
	return s.validate.Struct(dst)
}
