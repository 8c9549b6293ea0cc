package handlers

import (
	"net/http"

	"github.com/itfy/evoting-backend/internal/interfaces/rest"
)

// GetPayment is a pure read: no reconciliation is triggered.
func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	payment, err := h.query.FindByReference(r.Context(), reference)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentResponse(payment))
}
