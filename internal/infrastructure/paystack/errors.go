package paystack

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type GatewayError struct {
	Message    string
	StatusCode int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// IsTransactionNotFound distinguishes "the gateway has no such charge" from a
// real fault. Verify treats it as a normal failed outcome.
func (e *GatewayError) IsTransactionNotFound() bool {
	return e.StatusCode == http.StatusNotFound ||
		strings.Contains(strings.ToLower(e.Message), "transaction reference not found")
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
