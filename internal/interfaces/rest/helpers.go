package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// PaymentResponse is the client-facing payment projection.
type PaymentResponse struct {
	Reference      string `json:"reference"`
	Status         string `json:"status"`
	VoterEmail     string `json:"voter_email"`
	EventID        string `json:"event_id"`
	CategoryID     string `json:"category_id"`
	CandidateID    string `json:"candidate_id"`
	Currency       string `json:"currency"`
	OriginalAmount int64  `json:"original_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	VotesRemaining int    `json:"votes_remaining"`
	CreatedAt      string `json:"created_at"`
	PaidAt         string `json:"paid_at,omitempty"`
}

func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		Reference:      p.Reference,
		Status:         string(p.Status),
		VoterEmail:     p.VoterEmail,
		EventID:        p.EventID,
		CategoryID:     p.CategoryID,
		CandidateID:    p.CandidateID,
		Currency:       p.Currency,
		OriginalAmount: p.OriginalAmount,
		DiscountAmount: p.DiscountAmount,
		FinalAmount:    p.FinalAmount,
		VotesRemaining: p.VotesRemaining,
		CreatedAt:      p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.PaidAt != nil {
		resp.PaidAt = p.PaidAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data})
}

// WriteError maps application errors to HTTP responses
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := http.StatusInternalServerError
	code := application.ErrCodeInternal
	message := "An internal error occurred"

	if svcErr, ok := application.IsServiceError(err); ok {
		statusCode = svcErr.HTTPStatus
		code = svcErr.Code
		message = svcErr.Message
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
