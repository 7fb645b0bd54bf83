package entity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrStaleCodeIgnored is returned by the transition engine when a provider code was dropped
	// because it repeats the last code, is unknown to the rail, or would regress the transaction.
	// It is not a failure.
	ErrStaleCodeIgnored = errors.New("stale or unrecognized provider code ignored")

	ErrNotFound              = errors.New("record not found")
	ErrBatchNotAuthorized    = errors.New("batch is not authorized for disbursement")
	ErrBatchAlreadyDisbursed = errors.New("batch is already disbursed")
	ErrInquiryUnsupported    = errors.New("provider does not support status inquiry")
	ErrUnknownFamily         = errors.New("no channel registered for issuer family")
	ErrDispatchInProgress    = errors.New("batch dispatch already in progress")
	ErrNoAgentAvailable      = errors.New("no eligible wallet agent")
)

// ValidationError is bad input from a human actor (reviewer, disburser, operator). Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ExternalProviderError wraps network, timeout and malformed-response failures of a channel adapter.
type ExternalProviderError struct {
	Family string
	Op     string
	Err    error
}

func (e *ExternalProviderError) Error() string {
	return fmt.Sprintf("provider %s %s: %v", e.Family, e.Op, e.Err)
}

func (e *ExternalProviderError) Unwrap() error {
	return e.Err
}

// InsufficientBudgetError means the ledger threshold check failed; the transfer is never dispatched.
type InsufficientBudgetError struct {
	OperatorID int64
	Amount     decimal.Decimal
	Fees       decimal.Decimal
	VAT        decimal.Decimal
	Balance    decimal.Decimal
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient budget for operator %d: amount %s fees %s vat %s balance %s",
		e.OperatorID, e.Amount.StringFixed(2), e.Fees.StringFixed(4), e.VAT.StringFixed(4), e.Balance.StringFixed(2))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsExternal reports whether err is (or wraps) an ExternalProviderError.
func IsExternal(err error) bool {
	var e *ExternalProviderError
	return errors.As(err, &e)
}

// IsInsufficientBudget reports whether err is (or wraps) an InsufficientBudgetError.
func IsInsufficientBudget(err error) bool {
	var e *InsufficientBudgetError
	return errors.As(err, &e)
}
