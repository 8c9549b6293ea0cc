package middleware

import (
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"error":{"code":"TIMEOUT","message":"request timed out"}}`

// Timeout caps handler execution time. http.TimeoutHandler already cancels
// the request context when the deadline fires, so in-flight database and
// gateway calls unwind with it.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, timeoutBody)
	}
}
