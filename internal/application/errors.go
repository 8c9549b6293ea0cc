package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeDuplicatePending = "DUPLICATE_PENDING"
	ErrCodeGateway          = "GATEWAY_ERROR"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewValidationError reports bad bundles, coupons or identifiers. Raised
// before any payment record exists, so it never leaves partial state.
func NewValidationError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    "Invalid input",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewDuplicatePendingError points the caller at an existing un-expired
// pending payment whose gateway redirect should be reused.
func NewDuplicatePendingError(reference string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeDuplicatePending,
		Message:    fmt.Sprintf("a pending payment already exists with reference %s", reference),
		HTTPStatus: http.StatusConflict,
	}
}

// NewGatewayError wraps a transport failure or gateway-side rejection. The
// payment, if one exists, stays pending for later verification.
func NewGatewayError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGateway,
		Message:    "Payment gateway request failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewSignatureError marks a rejected webhook. It is logged, never returned to
// the sender: the webhook endpoint acknowledges with 200 regardless.
func NewSignatureError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidSignature,
		Message:    "webhook signature verification failed",
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewNotFoundError(reference string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("payment %s not found", reference),
		HTTPStatus: http.StatusNotFound,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
