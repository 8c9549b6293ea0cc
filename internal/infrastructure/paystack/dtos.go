package paystack

import (
	"time"

	"github.com/itfy/evoting-backend/internal/application"
)

// responseEnvelope is the gateway's standard wrapper: an explicit status
// flag, a human message, and the payload.
type responseEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID              int64      `json:"id"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	Channel         string     `json:"channel"`
	Fees            int64      `json:"fees"`
	GatewayResponse string     `json:"gateway_response"`
	PaidAt          *time.Time `json:"paid_at"`
}

func (d *verifyData) toResult() *application.VerifyResult {
	status := d.Status
	switch status {
	case "success":
		status = application.VerifyStatusSuccess
	case "pending", "ongoing", "processing", "queued":
		status = application.VerifyStatusPending
	default:
		// abandoned, failed, reversed and anything unrecognized
		status = application.VerifyStatusFailed
	}

	return &application.VerifyResult{
		Status:          status,
		Reference:       d.Reference,
		Amount:          d.Amount,
		Currency:        d.Currency,
		Channel:         d.Channel,
		Fees:            d.Fees,
		TransactionID:   d.ID,
		GatewayResponse: d.GatewayResponse,
		PaidAt:          d.PaidAt,
	}
}

// webhookPayload is the signed push body. Data mirrors verifyData.
type webhookPayload struct {
	Event string     `json:"event"`
	Data  verifyData `json:"data"`
}
