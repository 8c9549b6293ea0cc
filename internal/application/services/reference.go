package services

import (
	"strings"

	"github.com/google/uuid"
)

// NewReference produces a globally unique, opaque payment reference. The
// reference doubles as the idempotency key for every later operation on the
// payment, so it must never collide.
func NewReference() string {
	return "evp_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
