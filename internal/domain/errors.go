package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeInvalidBundle        = "INVALID_BUNDLE"
	ErrCodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	ErrCodeDuplicatePending     = "DUPLICATE_PENDING"
)

var ErrInvalidTransition = &DomainError{
	Code:    ErrCodeInvalidTransition,
	Message: "payment is already in a terminal state",
}

var ErrPaymentNotFound = &DomainError{
	Code:    ErrCodePaymentNotFound,
	Message: "payment not found",
}

var ErrBundleNotFound = &DomainError{
	Code:    ErrCodeInvalidBundle,
	Message: "bundle not found",
}

var ErrCouponNotFound = &DomainError{
	Code:    "COUPON_NOT_FOUND",
	Message: "coupon not found",
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidAmountError(amount int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount: %d", amount),
	}
}

func NewInvalidBundleError(bundleID, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidBundle,
		Message: fmt.Sprintf("bundle %s: %s", bundleID, reason),
	}
}

func IsDomainError(err error) (*DomainError, bool) {
	var domErr *DomainError
	ok := errors.As(err, &domErr)
	return domErr, ok
}
