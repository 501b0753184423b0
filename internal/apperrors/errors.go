package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the request conflicts with the current state of the ledger
// (a certificate already assigned, a transaction already reversed, a numbering race lost).
var ErrConflict = errors.New("conflict with current state")

// ErrForbidden indicates that the caller's role does not allow the action.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientBalance indicates that applying a transaction would drive a holding negative.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrInternalConsistency indicates that the holdings fold met a record the validator should have rejected.
var ErrInternalConsistency = errors.New("internal consistency error")

// ErrRendering indicates that the document renderer failed or timed out.
var ErrRendering = errors.New("rendering error")

// Violation codes reported inside a ValidationError.
const (
	CodeMissingField           = "MissingField"
	CodeUnknownType            = "UnknownType"
	CodeInvalidMemberSelection = "InvalidMemberSelection"
	CodeDateOutOfRange         = "DateOutOfRange"
	CodeInvalidQuantity        = "InvalidQuantity"
	CodeInvalidAmount          = "InvalidAmount"
	CodeInvalidCurrency        = "InvalidCurrency"
	CodeInvalidCertificate     = "InvalidCertificate"
	CodeInsufficientBalance    = "InsufficientBalance"
	CodeInactiveReference      = "InactiveReference"
	CodeUnknownReference       = "UnknownReference"
)

// Violation is a single failed rule on a single field.
type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (%s): %s", v.Field, v.Code, v.Message)
}

// ValidationError is a structured rejection carrying every violated rule.
type ValidationError struct {
	Violations []Violation
}

// NewValidationError builds a ValidationError from one violation.
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{Field: field, Code: code, Message: message}}}
}

// Add appends a violation.
func (e *ValidationError) Add(field, code, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Code: code, Message: message})
}

// HasViolations reports whether any rule failed.
func (e *ValidationError) HasViolations() bool {
	return e != nil && len(e.Violations) > 0
}

// HasCode reports whether a violation with the given code was recorded.
func (e *ValidationError) HasCode(code string) bool {
	if e == nil {
		return false
	}
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientBalanceError reports the holding that would have gone negative.
type InsufficientBalanceError struct {
	TransactionID   string
	MemberID        string
	SecurityClassID string
	Balance         string // balance after applying the transaction
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: transaction %s would leave member %s with %s units of security class %s",
		ErrInsufficientBalance.Error(), e.TransactionID, e.MemberID, e.Balance, e.SecurityClassID)
}

// Is makes an InsufficientBalanceError match both ErrInsufficientBalance and ErrValidation.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance || target == ErrValidation
}

// InternalConsistencyError is raised at fold time for a record that should never have been accepted.
type InternalConsistencyError struct {
	TransactionID string
	EntityID      string
	Type          string
	Reason        string
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("%s: transaction %s (%s, entity %s): %s",
		ErrInternalConsistency.Error(), e.TransactionID, e.Type, e.EntityID, e.Reason)
}

func (e *InternalConsistencyError) Unwrap() error { return ErrInternalConsistency }

// RenderingError wraps a failure of the external document renderer.
type RenderingError struct {
	Retryable bool // true for timeouts and transient upstream failures
	Cause     error
}

func (e *RenderingError) Error() string {
	if e.Cause == nil {
		return ErrRendering.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRendering.Error(), e.Cause)
}

// Is makes a RenderingError match ErrRendering.
func (e *RenderingError) Is(target error) bool { return target == ErrRendering }

func (e *RenderingError) Unwrap() error { return e.Cause }
