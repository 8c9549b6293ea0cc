package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/interfaces/rest"
)

// Recovery converts handler panics into a 500 response. The stack goes to
// the log, never to the voter.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				rest.WriteError(w, application.NewInternalError(fmt.Errorf("panic: %v", rec)), logger)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
