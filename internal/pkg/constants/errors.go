package constants

import (
	"errors"
	"fmt"
	"net/http"
)

// CodedError is an error carrying the HTTP status the proxy API answers with.
type CodedError struct {
	code int
	msg  string
	kind error
}

func NewCodedError(code int, msg string) *CodedError {
	return &CodedError{code: code, msg: msg}
}

func (e *CodedError) Error() string { return e.msg }
func (e *CodedError) Code() int     { return e.code }

// Unwrap exposes the error class, so errors.Is(err, ErrValidation) holds for
// every validation sentinel.
func (e *CodedError) Unwrap() error { return e.kind }

// ErrValidation is the class of all local, pre-I/O parameter failures.
var ErrValidation = errors.New("validation error")

var (
	ErrInvalidDataset   = &CodedError{code: http.StatusBadRequest, msg: "invalid dataset", kind: ErrValidation}
	ErrInvalidLevel     = &CodedError{code: http.StatusBadRequest, msg: "invalid level", kind: ErrValidation}
	ErrInvalidRegions   = &CodedError{code: http.StatusBadRequest, msg: "invalid regions", kind: ErrValidation}
	ErrInvalidParameter = &CodedError{code: http.StatusBadRequest, msg: "invalid parameter", kind: ErrValidation}

	ErrMissingCredential = NewCodedError(http.StatusUnauthorized,
		"API key required: set it with `cancensus key set` or the CANCENSUS_API_KEY environment variable")
	ErrUnauthorized = NewCodedError(http.StatusUnauthorized, "unauthorized")

	ErrInvalidResponse = NewCodedError(http.StatusBadGateway, "invalid API response")

	ErrUnknownDataset = NewCodedError(http.StatusNotFound, "no valid datasets found")
	ErrUnknownVector  = NewCodedError(http.StatusNotFound, "unknown vector")
	ErrCacheNotFound  = NewCodedError(http.StatusNotFound, "cache entry not found")
	ErrDBNotFound     = NewCodedError(http.StatusNotFound, "not found in warehouse")

	ErrNoWarehouse = NewCodedError(http.StatusServiceUnavailable, "warehouse is not configured: set CANCENSUS_DATABASE_DSN")
)

// TransportError is returned for DNS, connection, timeout and non-2xx
// failures of a CensusMapper call. It is never retried.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Code() int     { return http.StatusBadGateway }

// IsTransport reports whether err came from the transport layer.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
