package handlers

import (
	"net/http"

	"github.com/itfy/evoting-backend/internal/interfaces/rest"
)

// Verify is the poll path. Safe to call repeatedly: terminal payments are
// returned as-is, pending ones trigger a reconciliation round. A gateway
// failure still answers with the current (pending) projection, because "not
// yet confirmed" is a normal state, not a fault.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	payment, err := h.reconciler.VerifyPayment(r.Context(), reference)
	if err != nil {
		if payment == nil {
			rest.WriteError(w, err, h.logger)
			return
		}
		h.logger.Warn("verification degraded to current status",
			"reference", reference,
			"error", err,
		)
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentResponse(payment))
}
