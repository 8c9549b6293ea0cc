package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/itfy/evoting-backend/internal/application/services"
)

type Handlers struct {
	initService *services.InitializeService
	reconciler  *services.Reconciler
	query       *services.QueryService
	logger      *slog.Logger
}

func NewHandlers(
	initService *services.InitializeService,
	reconciler *services.Reconciler,
	query *services.QueryService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		initService: initService,
		reconciler:  reconciler,
		query:       query,
		logger:      logger,
	}
}

// Register wires the payment routes onto the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/initialize", h.Initialize)
	mux.HandleFunc("GET /api/v1/payments/verify/{reference}", h.Verify)
	mux.HandleFunc("GET /api/v1/payments/{reference}", h.GetPayment)
	mux.HandleFunc("POST /api/v1/payments/webhook", h.Webhook)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
