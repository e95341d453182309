package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/territorybattle/internal/model"
)

// ErrorResponse is the envelope for every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Path    string `json:"path,omitempty"`
}

// Messages exposed to clients
const (
	MsgInvalidPseudo  = "Pseudo must be between 2 and 20 characters"
	MsgPseudoTaken    = "Pseudo already taken"
	MsgPseudoRequired = "Pseudo required"
	MsgPseudoSlash    = "Pseudo must not contain '/'"
	MsgNegativeStat   = "Game statistics must not be negative"
	MsgStatTooLarge   = "Game statistics must not exceed 2147483647"
	MsgPlayerNotFound = "Player not found"
	MsgNotFound       = "Not found"
	MsgRateLimited    = "Too many requests"
	MsgInternalError  = "Internal server error"
)

// httpError combines an HTTP status code with a client-facing message
type httpError struct {
	status  int
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	write(w, he.status, ErrorResponse{Error: he.message})
}

// WriteNotFound writes the response for a request that matched no route
func WriteNotFound(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusNotFound, ErrorResponse{Error: MsgNotFound, Path: r.URL.Path})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

func write(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var storeErr *model.StoreError

	switch {
	// InvalidInput
	case errors.Is(err, model.ErrInvalidPseudo):
		return &httpError{http.StatusBadRequest, MsgInvalidPseudo}
	case errors.Is(err, model.ErrPseudoRequired):
		return &httpError{http.StatusBadRequest, MsgPseudoRequired}
	case errors.Is(err, model.ErrPseudoSlash):
		return &httpError{http.StatusBadRequest, MsgPseudoSlash}
	case errors.Is(err, model.ErrNegativeStat):
		return &httpError{http.StatusBadRequest, MsgNegativeStat}
	case errors.Is(err, model.ErrStatOutOfRange):
		return &httpError{http.StatusBadRequest, MsgStatTooLarge}

	// Conflict
	case errors.Is(err, model.ErrPseudoTaken):
		return &httpError{http.StatusConflict, MsgPseudoTaken}

	// NotFound
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, MsgPlayerNotFound}

	// StoreError carries the failing operation
	case errors.As(err, &storeErr):
		return &httpError{http.StatusInternalServerError, storeErr.Error()}

	default:
		return &httpError{http.StatusInternalServerError, MsgInternalError}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, message}
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, MsgRateLimited}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, MsgInternalError}
}
