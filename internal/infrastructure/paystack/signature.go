package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"

	"github.com/itfy/evoting-backend/internal/application"
)

// VerifySignature checks the webhook HMAC over the raw, unparsed body. The
// comparison is constant time. Callers must pass the bytes exactly as
// received from the wire; hashing re-serialized JSON produces false
// negatives.
func (c *Client) VerifySignature(rawBody []byte, signatureHeader string) bool {
	if signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// ParseWebhook decodes a push payload. Signature verification happens
// separately, on the same raw bytes.
func (c *Client) ParseWebhook(rawBody []byte) (*application.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, err
	}

	return &application.WebhookEvent{
		Type: payload.Event,
		Data: *payload.Data.toResult(),
	}, nil
}
