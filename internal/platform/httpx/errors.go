// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verrs acctshared.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationProblem(w, verrs)
		return
	}
	switch {
	case errors.Is(err, acctshared.ErrAccountNotFound),
		errors.Is(err, acctshared.ErrVoucherNotFound),
		errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, acctshared.ErrAlreadyPosted),
		errors.Is(err, acctshared.ErrVoucherVoid),
		errors.Is(err, acctshared.ErrNotPosted),
		errors.Is(err, acctshared.ErrSourceAlreadyLinked),
		errors.Is(err, acctshared.ErrDuplicateCode):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, acctshared.ErrParentTypeMismatch),
		errors.Is(err, acctshared.ErrAccountNotPostable),
		errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
