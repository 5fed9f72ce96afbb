package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation      = "E100"
	CodeTransport       = "E300"
	CodeAPI             = "E310"
	CodeDecode          = "E320"
	CodeUnauthenticated = "E401"
	CodeUnknown         = "E999"
)

// ErrUnauthenticated is matched by any APIError carrying HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// FieldIssue is one failed rule, addressed by its JSON field path.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i FieldIssue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationError reports a schema mismatch. It is never retryable.
type ValidationError struct {
	Issues []FieldIssue
}

func NewValidationError(issues ...FieldIssue) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for the given field path, if any.
func (e *ValidationError) Field(path string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, issue := range e.Issues {
		if issue.Field == path {
			return issue.Message, true
		}
	}
	return "", false
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Op    string
	cause error
}

func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, cause: cause}
}

func (e *TransportError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("transport: %s", e.Op)
	}
	return fmt.Sprintf("transport: %s: %v", e.Op, e.cause)
}

func (e *TransportError) Unwrap() error {
	return e.cause
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func NewAPIError(status int, message string, body []byte) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: message, Body: body}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// DecodeError means a response body could not be turned into the expected shape.
type DecodeError struct {
	cause error
}

func NewDecodeError(cause error) *DecodeError {
	return &DecodeError{cause: cause}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.cause)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// AppError is the classified view of any error used for logging and user feedback.
type AppError struct {
	Code      string
	Message   string
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Classify maps err onto the client error taxonomy.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		validationErr *ValidationError
		transportErr  *TransportError
		apiErr        *APIError
		decodeErr     *DecodeError
	)

	switch {
	case errors.As(err, &apiErr) && errors.Is(apiErr, ErrUnauthenticated):
		return &AppError{Code: CodeUnauthenticated, Message: err.Error(), Severity: SeverityLow, cause: err}
	case errors.As(err, &apiErr):
		severity := SeverityMedium
		if apiErr.Status >= http.StatusInternalServerError {
			severity = SeverityHigh
		}
		return &AppError{Code: CodeAPI, Message: err.Error(), Severity: severity, Retryable: IsRetryable(err), cause: err}
	case errors.As(err, &decodeErr):
		return &AppError{Code: CodeDecode, Message: err.Error(), Severity: SeverityHigh, cause: err}
	case errors.As(err, &validationErr):
		return &AppError{Code: CodeValidation, Message: err.Error(), Severity: SeverityLow, cause: err}
	case errors.As(err, &transportErr):
		return &AppError{Code: CodeTransport, Message: err.Error(), Severity: SeverityMedium, Retryable: true, cause: err}
	default:
		return &AppError{Code: CodeUnknown, Message: err.Error(), Severity: SeverityHigh, cause: err}
	}
}
