package handlers

import (
	"io"
	"net/http"

	"github.com/itfy/evoting-backend/internal/interfaces/rest"
)

const maxWebhookBody = 1 << 20

// Webhook receives signed gateway pushes. The raw body is read before any
// parsing so the signature is computed over the exact bytes received. The
// endpoint answers 200 even for rejected events (bad signature, unhandled
// type) to keep the gateway from retrying hostile or malformed payloads;
// rejections are logged inside the reconciler.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body", "error", err)
		rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
		return
	}

	signature := r.Header.Get("X-Paystack-Signature")
	if err := h.reconciler.HandleWebhook(r.Context(), rawBody, signature); err != nil {
		h.logger.Warn("webhook not applied", "error", err)
	}

	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
