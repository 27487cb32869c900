package erpsync

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrorKind classifies a failure talking to the ERP
type ErrorKind string

const (
	// ErrorKindAuth means bad or expired credentials
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindConnection means network failure, timeout or a transient remote status
	ErrorKindConnection ErrorKind = "connection"
	// ErrorKindValidation means the ERP rejected the payload
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindNotFound means the addressed document does not exist
	ErrorKindNotFound ErrorKind = "not_found"
)

// String returns the string representation
func (k ErrorKind) String() string {
	return string(k)
}

var (
	// Sentinels matched by errors.Is against any *Error of the same kind
	ErrAuth       = errors.New("erpsync: authentication failed")
	ErrConnection = errors.New("erpsync: connection failed")
	ErrValidation = errors.New("erpsync: validation failed")
	ErrNotFound   = errors.New("erpsync: not found")

	// Configuration and orchestration errors
	ErrConfigNotFound     = errors.New("erpsync: ERP configuration not found")
	ErrConfigDisabled     = errors.New("erpsync: ERP integration disabled for tenant")
	ErrConfigInvalid      = errors.New("erpsync: invalid ERP configuration")
	ErrUnknownEntityKind  = errors.New("erpsync: unknown entity kind")
	ErrRecordKindMismatch = errors.New("erpsync: record does not match entity kind")
	ErrSyncRunInProgress  = errors.New("erpsync: full sync already running for tenant")
	ErrInvalidPayment     = errors.New("erpsync: invalid payment details")
)

// Error is the typed failure returned by connector operations.
// Message carries the remote message verbatim when the ERP supplied one.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("erp %s error (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("erp %s error: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.Kind == ErrorKindAuth
	case ErrConnection:
		return e.Kind == ErrorKindConnection
	case ErrValidation:
		return e.Kind == ErrorKindValidation
	case ErrNotFound:
		return e.Kind == ErrorKindNotFound
	}
	return false
}

// NewAuthError creates an authentication error
func NewAuthError(statusCode int, message string) *Error {
	return &Error{Kind: ErrorKindAuth, StatusCode: statusCode, Message: message}
}

// NewConnectionError creates a connection error wrapping the transport cause
func NewConnectionError(statusCode int, message string, cause error) *Error {
	return &Error{Kind: ErrorKindConnection, StatusCode: statusCode, Message: message, Err: cause}
}

// NewTimeoutError creates a connection error flagged as a timeout
func NewTimeoutError(cause error) *Error {
	return &Error{Kind: ErrorKindConnection, Message: "request timed out", Timeout: true, Err: cause}
}

// NewValidationError creates a validation error carrying the remote message
func NewValidationError(statusCode int, message string) *Error {
	return &Error{Kind: ErrorKindValidation, StatusCode: statusCode, Message: message}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *Error {
	return &Error{Kind: ErrorKindNotFound, StatusCode: 404, Message: message}
}

// AsError extracts the typed ERP error from an error chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err is a payload rejection
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRetryable reports whether a scheduler may retry the failed operation.
// Only connection failures are retryable; nothing is retried in-process.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsTimeout reports whether err is a timed-out connection failure
func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Timeout
}
