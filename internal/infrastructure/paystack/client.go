// Package paystack implements the payment gateway collaborator over the
// Paystack HTTP API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/config"
)

type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

var _ application.GatewayClient = (*Client)(nil)

// Initialize creates a charge. Amount is already in the gateway's minor
// currency unit; no conversion happens here.
func (c *Client) Initialize(ctx context.Context, req application.InitializeChargeRequest) (*application.InitializeChargeResponse, error) {
	body := initializeRequest{
		Email:       req.Email,
		Amount:      req.Amount,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}

	url := fmt.Sprintf("%s/transaction/initialize", c.baseURL)
	resp, err := sendRequest[initializeRequest, initializeData](c, ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}

	return &application.InitializeChargeResponse{
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
		Reference:        resp.Reference,
	}, nil
}

// Verify fetches the gateway's view of a charge. A reference the gateway has
// never seen is a normal failed outcome, not an error.
func (c *Client) Verify(ctx context.Context, reference string) (*application.VerifyResult, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, reference)
	resp, err := sendRequest[any, verifyData](c, ctx, http.MethodGet, url, nil)
	if err != nil {
		if gwErr, ok := IsGatewayError(err); ok && gwErr.IsTransactionNotFound() {
			return &application.VerifyResult{
				Status:          application.VerifyStatusFailed,
				Reference:       reference,
				GatewayResponse: "transaction not found",
			}, nil
		}
		return nil, err
	}

	return resp.toResult(), nil
}

func sendRequest[Req any, Resp any](c *Client, ctx context.Context, method, url string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var envelope responseEnvelope[Resp]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &GatewayError{
				Message:    string(raw),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !envelope.Status {
		return nil, &GatewayError{
			Message:    envelope.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return &envelope.Data, nil
}
