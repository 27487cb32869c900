package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeTimeout is used when the request context expired
	ErrCodeTimeout = "ERR_TIMEOUT"
)

// Input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// ERP integration error codes
const (
	// ErrCodeERPAuth means the ERP rejected the tenant's credentials
	ErrCodeERPAuth = "ERR_ERP_AUTH"
	// ErrCodeERPConnection means the ERP could not be reached or kept failing
	ErrCodeERPConnection = "ERR_ERP_CONNECTION"
	// ErrCodeERPValidation means the ERP rejected a document
	ErrCodeERPValidation = "ERR_ERP_VALIDATION"
	// ErrCodeERPNotFound means the addressed ERP document does not exist
	ErrCodeERPNotFound    = "ERR_ERP_NOT_FOUND"
	ErrCodeConfigNotFound = "ERR_ERP_CONFIG_NOT_FOUND"
	ErrCodeConfigDisabled = "ERR_ERP_DISABLED"
	ErrCodeConfigInvalid  = "ERR_ERP_CONFIG_INVALID"
	ErrCodeSyncInProgress = "ERR_SYNC_IN_PROGRESS"
	ErrCodeUnknownKind    = "ERR_UNKNOWN_ENTITY_KIND"
	ErrCodeInvalidPayment = "ERR_INVALID_PAYMENT"
	// ErrCodeSchedulerUnavailable means the process runs without a scheduler
	ErrCodeSchedulerUnavailable = "ERR_SCHEDULER_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// the ERP is an upstream: credential and transport failures are gateway errors
	ErrCodeERPAuth:        http.StatusBadGateway,
	ErrCodeERPConnection:  http.StatusGatewayTimeout,
	ErrCodeERPValidation:  http.StatusBadRequest,
	ErrCodeERPNotFound:    http.StatusNotFound,
	ErrCodeConfigNotFound: http.StatusNotFound,
	ErrCodeConfigDisabled: http.StatusUnprocessableEntity,
	ErrCodeConfigInvalid:  http.StatusBadRequest,
	ErrCodeSyncInProgress: http.StatusConflict,
	ErrCodeUnknownKind:    http.StatusBadRequest,
	ErrCodeInvalidPayment: http.StatusBadRequest,

	ErrCodeSchedulerUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// sentinelCodes is checked in order; the first match wins
var sentinelCodes = []struct {
	err  error
	code string
}{
	{erpsync.ErrSyncRunInProgress, ErrCodeSyncInProgress},
	{erpsync.ErrConfigNotFound, ErrCodeConfigNotFound},
	{erpsync.ErrConfigDisabled, ErrCodeConfigDisabled},
	{erpsync.ErrConfigInvalid, ErrCodeConfigInvalid},
	{erpsync.ErrUnknownEntityKind, ErrCodeUnknownKind},
	{erpsync.ErrInvalidPayment, ErrCodeInvalidPayment},
	{erpsync.ErrAuth, ErrCodeERPAuth},
	{erpsync.ErrNotFound, ErrCodeERPNotFound},
	{erpsync.ErrValidation, ErrCodeERPValidation},
	{erpsync.ErrConnection, ErrCodeERPConnection},
	{context.DeadlineExceeded, ErrCodeTimeout},
}

// ErrorCodeFor classifies an application error into an API error code
func ErrorCodeFor(err error) string {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return ErrCodeInternal
}

// ErrorMessageFor returns the message shown to API clients.
// Internal errors are not echoed; ERP errors keep the ERP's own message.
func ErrorMessageFor(err error, code string) string {
	switch code {
	case ErrCodeInternal:
		return "internal server error"
	case ErrCodeTimeout:
		return "request timed out"
	}
	if e, ok := erpsync.AsError(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
