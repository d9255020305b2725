package arangorest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Server error numbers (errorNum) the client inspects.
const (
	ErrNumConflict              = 1200
	ErrNumDocumentNotFound      = 1202
	ErrNumDataSourceNotFound    = 1203
	ErrNumDuplicateName         = 1207
	ErrNumUniqueConstraint      = 1210
	ErrNumIndexNotFound         = 1212
	ErrNumDatabaseNotFound      = 1228
	ErrNumCursorNotFound        = 1600
	ErrNumTransactionNotFound   = 1655
	ErrNumTransactionDisallowed = 1652
	ErrNumUserNotFound          = 1703
	ErrNumGraphNotFound         = 1924
	ErrNumServiceNotFound       = 3009
	ErrNumQueryKilled           = 1500
	ErrNumShuttingDown          = 30
	ErrNumClusterBackendDown    = 1491
	ErrNumClusterLeadershipLost = 1496
	ErrNumQueueTimeViolated     = 21004
)

// Sentinel errors for use with errors.Is.
// Application sentinels match any *ApplicationError with the same ErrorNum.
var (
	ErrDocumentNotFound    = &ApplicationError{ErrorNum: ErrNumDocumentNotFound, ErrorMessage: "document not found"}
	ErrCollectionNotFound  = &ApplicationError{ErrorNum: ErrNumDataSourceNotFound, ErrorMessage: "collection or view not found"}
	ErrUniqueConstraint    = &ApplicationError{ErrorNum: ErrNumUniqueConstraint, ErrorMessage: "unique constraint violated"}
	ErrConflict            = &ApplicationError{ErrorNum: ErrNumConflict, ErrorMessage: "conflict"}
	ErrDatabaseNotFound    = &ApplicationError{ErrorNum: ErrNumDatabaseNotFound, ErrorMessage: "database not found"}
	ErrCursorNotFound      = &ApplicationError{ErrorNum: ErrNumCursorNotFound, ErrorMessage: "cursor not found"}
	ErrTransactionNotFound = &ApplicationError{ErrorNum: ErrNumTransactionNotFound, ErrorMessage: "transaction not found"}

	// SDK-specific errors.
	ErrMissingEndpoint    = errors.New("arangorest: endpoint is required")
	ErrMissingCredentials = errors.New("arangorest: username or bearer token is required")
	ErrCursorExhausted    = errors.New("arangorest: cursor has no more batches")
)

// ConfigError is raised before any network call for invalid client
// configuration or missing required arguments.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("arangorest: invalid %s: %s", e.Field, e.Message)
	}
	return "arangorest: " + e.Message
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConnectionError is a transport-level failure where no response was
// received (DNS, refused connection, timeout, cancelled context).
type ConnectionError struct {
	Method string
	URL    string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("arangorest: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ApplicationError is a server response whose JSON body carries a truthy
// "error" field. It takes precedence over the HTTP status.
type ApplicationError struct {
	Code         int    // HTTP status reported by the server
	ErrorNum     int    // Server-assigned error number
	ErrorMessage string // Human-readable message
}

func (e *ApplicationError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("arangorest [%d]: %s (HTTP %d)", e.ErrorNum, e.ErrorMessage, e.Code)
	}
	return fmt.Sprintf("arangorest [%d]: %s", e.ErrorNum, e.ErrorMessage)
}

// Is implements errors.Is by comparing error numbers.
func (e *ApplicationError) Is(target error) bool {
	t, ok := target.(*ApplicationError)
	if !ok {
		return false
	}
	return e.ErrorNum == t.ErrorNum
}

// TransportError is an HTTP status >= 400 without an error-shaped body.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("arangorest: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("arangorest: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func newConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// RequireArg returns a *ConfigError when a required argument is empty.
// Resource wrappers call it before issuing requests.
func RequireArg(name, value string) error {
	if value == "" {
		return newConfigError(name, "must not be empty")
	}
	return nil
}

// IsNotFound checks if an error reports a missing resource, either through
// a known error number or an HTTP 404.
func IsNotFound(err error) bool {
	var app *ApplicationError
	if errors.As(err, &app) {
		switch app.ErrorNum {
		case ErrNumDocumentNotFound, ErrNumDataSourceNotFound, ErrNumIndexNotFound,
			ErrNumDatabaseNotFound, ErrNumCursorNotFound, ErrNumTransactionNotFound,
			ErrNumUserNotFound, ErrNumGraphNotFound, ErrNumServiceNotFound:
			return true
		}
		return app.Code == http.StatusNotFound
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == http.StatusNotFound
	}
	return false
}

// IsConflict checks if an error reports a write conflict or duplicate.
func IsConflict(err error) bool {
	var app *ApplicationError
	if errors.As(err, &app) {
		switch app.ErrorNum {
		case ErrNumConflict, ErrNumUniqueConstraint, ErrNumDuplicateName:
			return true
		}
		return app.Code == http.StatusConflict
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == http.StatusConflict
	}
	return false
}

// IsUnauthorized checks if an error reports rejected credentials.
func IsUnauthorized(err error) bool {
	var app *ApplicationError
	if errors.As(err, &app) {
		return app.Code == http.StatusUnauthorized
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsConnection checks if an error is a *ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsConfig checks if an error is a *ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsRetryable checks if an error is transient. Connection errors, gateway
// statuses and server-declared transient conditions qualify. Application
// errors from accepted writes do not.
func IsRetryable(err error) bool {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		// A caller-cancelled context is final.
		return !errors.Is(ce.Err, context.Canceled)
	}
	var te *TransportError
	if errors.As(err, &te) {
		return retryableStatus(te.StatusCode)
	}
	var app *ApplicationError
	if errors.As(err, &app) {
		switch app.ErrorNum {
		case ErrNumShuttingDown, ErrNumClusterBackendDown, ErrNumClusterLeadershipLost, ErrNumQueueTimeViolated:
			return true
		}
		return app.Code == http.StatusServiceUnavailable
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
