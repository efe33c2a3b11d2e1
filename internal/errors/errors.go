// Package errors provides centralized error definitions and error handling
// utilities for keywarden. It defines domain-specific errors for arbitration,
// message delivery, and vault import/export, semantic error types, and
// classification helpers used by the shared error-reporting path.
//
// Delivery failures are deliberately never retried and rarely surfaced: the
// notification subsystem is best-effort. The classification helpers exist so
// the reporting path can distinguish errors safe to show the user from
// internal ones.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience, so callers can
// import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Arbitration-related sentinel errors
var (
	// ErrScanFailed indicates that sibling process enumeration failed.
	ErrScanFailed = New("sibling scan failed")
	// ErrIdentityUnavailable indicates the caller's own identity could not be captured.
	ErrIdentityUnavailable = New("process identity unavailable")
)

// Delivery-related sentinel errors
var (
	// ErrChannelUnavailable indicates the sibling's notification channel could not be reached.
	ErrChannelUnavailable = New("notification channel unavailable")
	// ErrPayloadTooLarge indicates a message payload exceeds the transport bound.
	ErrPayloadTooLarge = New("message payload too large")
	// ErrUnknownKind indicates a message with an unrecognized kind identifier.
	ErrUnknownKind = New("unknown message kind")
)

// Registry and vault sentinel errors
var (
	// ErrRegistryCorrupt indicates the handle registry file could not be decoded.
	ErrRegistryCorrupt = New("handle registry corrupt")
	// ErrVaultCorrupt indicates the vault store could not be decoded.
	ErrVaultCorrupt = New("vault store corrupt")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// Error is the base interface for keywarden errors. It extends the standard
// error interface with classification methods used by the reporting path.
type Error interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity { return e.severity }

func (e *baseError) IsUserFacing() bool { return e.userFacing }

// ArbitrationError represents errors during scanning, classification, or the
// proceed/defer/block decision.
type ArbitrationError struct {
	baseError
	State string
}

// NewArbitrationError creates a new ArbitrationError.
func NewArbitrationError(message string, cause error) *ArbitrationError {
	return &ArbitrationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithState adds the arbitration state name to the error context.
func (e *ArbitrationError) WithState(state string) *ArbitrationError {
	e.State = state
	return e
}

// Error returns the formatted error message.
func (e *ArbitrationError) Error() string {
	prefix := "arbitration error"
	if e.State != "" {
		prefix = fmt.Sprintf("arbitration error [state=%s]", e.State)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ArbitrationError) Is(target error) bool {
	if _, ok := target.(*ArbitrationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DeliveryError represents a failed best-effort message delivery. These are
// swallowed at the sender boundary and exist only for debug logging.
type DeliveryError struct {
	baseError
	Addr string
	Kind uint32
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(message string, cause error) *DeliveryError {
	return &DeliveryError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityDebug,
			userFacing: false,
		},
	}
}

// WithAddr adds the target channel address to the error context.
func (e *DeliveryError) WithAddr(addr string) *DeliveryError {
	e.Addr = addr
	return e
}

// WithKind adds the message kind to the error context.
func (e *DeliveryError) WithKind(kind uint32) *DeliveryError {
	e.Kind = kind
	return e
}

// Error returns the formatted error message.
func (e *DeliveryError) Error() string {
	var parts []string
	if e.Addr != "" {
		parts = append(parts, fmt.Sprintf("addr=%s", e.Addr))
	}
	if e.Kind != 0 {
		parts = append(parts, fmt.Sprintf("kind=0x%X", e.Kind))
	}

	prefix := "delivery error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("delivery error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DeliveryError) Is(target error) bool {
	if _, ok := target.(*DeliveryError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ImportError represents a failed vault import. Caught at the boundary
// between the notification channel and the vault, reported, never propagated
// back to the channel.
type ImportError struct {
	baseError
	Path string
}

// NewImportError creates a new ImportError.
func NewImportError(message string, cause error) *ImportError {
	return &ImportError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithPath adds the import file path to the error context.
func (e *ImportError) WithPath(path string) *ImportError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *ImportError) Error() string {
	prefix := "import error"
	if e.Path != "" {
		prefix = fmt.Sprintf("import error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ImportError) Is(target error) bool {
	if _, ok := target.(*ImportError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// NotFoundError represents a resource that could not be found.
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	prefix := "validation error"
	if e.Field != "" {
		prefix = fmt.Sprintf("validation error [field=%s]", e.Field)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			userFacing: false,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// IsUserFacing returns true if the error message is safe to display to end
// users. Semantic errors and any Error with IsUserFacing() true qualify.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var kerr Error
	if As(err, &kerr) {
		return kerr.IsUserFacing()
	}

	var notFound *NotFoundError
	var validation *ValidationError
	if As(err, &notFound) || As(err, &validation) {
		return true
	}

	return false
}

// IsRetryable returns true if the operation that produced the error may
// succeed on a later attempt. Delivery and timeout failures qualify; the
// core itself never retries, so this classification serves callers and logs.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var delivery *DeliveryError
	var timeout *TimeoutError
	return As(err, &delivery) || As(err, &timeout)
}

// GetSeverity returns the severity level of the error. Unknown errors
// default to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var kerr Error
	if As(err, &kerr) {
		return kerr.Severity()
	}

	return SeverityError
}

// Wrap wraps an error with an additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
