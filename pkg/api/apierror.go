// Package api — HTTP surface over the ledger engine, with RFC 7807
// Problem Detail error responses.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/verdant-labs/greenledger/pkg/actions"
	"github.com/verdant-labs/greenledger/pkg/engine"
	"github.com/verdant-labs/greenledger/pkg/sponsors"
	"github.com/verdant-labs/greenledger/pkg/token"
)

// ProblemDetail implements RFC 7807 (Problem Details for HTTP APIs).
// All API error responses use this format.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WriteError writes an RFC 7807 Problem Detail JSON response.
func WriteError(w http.ResponseWriter, status int, title, detail string) {
	problem := &ProblemDetail{
		Type:   fmt.Sprintf("https://greenledger.dev/errors/%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, "Bad Request", detail)
}

// WriteUnauthorized writes a 401 error response.
func WriteUnauthorized(w http.ResponseWriter, detail string) {
	if detail == "" {
		detail = "Authentication required"
	}
	WriteError(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// WriteMethodNotAllowed writes a 405 error response.
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "The HTTP method is not supported for this endpoint")
}

// WriteTooManyRequests writes a 429 error response.
func WriteTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	WriteError(w, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded. Retry after the specified interval.")
}

// WriteInternal writes a 500 error response. The err is logged but
// never exposed to the client.
func WriteInternal(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
}

// WriteEngineError maps ledger error kinds to stable HTTP statuses.
func WriteEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrOwnerOnly), errors.Is(err, token.ErrNotTokenOwner):
		WriteError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, actions.ErrActionNotFound), errors.Is(err, sponsors.ErrSponsorNotFound):
		WriteError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, actions.ErrAlreadyVerified):
		WriteError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, sponsors.ErrInsufficientBalance),
		errors.Is(err, sponsors.ErrInsufficientPoolBalance):
		WriteError(w, http.StatusConflict, "Insufficient Balance", err.Error())
	case errors.Is(err, engine.ErrInvalidAction),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, sponsors.ErrInvalidAmount):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, engine.ErrVerificationFailed):
		WriteError(w, http.StatusUnprocessableEntity, "Verification Failed", err.Error())
	default:
		WriteInternal(w, err)
	}
}
