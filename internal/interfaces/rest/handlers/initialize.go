package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/application/services"
	"github.com/itfy/evoting-backend/internal/interfaces/rest"
)

type initializeRequest struct {
	Email       string              `json:"email"`
	Bundles     []bundleInputDTO    `json:"bundles"`
	Coupons     []string            `json:"coupons"`
	EventID     string              `json:"event_id"`
	CategoryID  string              `json:"category_id"`
	CandidateID string              `json:"candidate_id"`
	CallbackURL string              `json:"callback_url"`
}

type bundleInputDTO struct {
	BundleID string `json:"bundle_id"`
	Quantity int    `json:"quantity"`
}

type initializeResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	OriginalAmount   int64  `json:"original_amount"`
	DiscountAmount   int64  `json:"discount_amount"`
	FinalAmount      int64  `json:"final_amount"`
	TotalVotes       int    `json:"total_votes"`
	Currency         string `json:"currency"`
	Reused           bool   `json:"reused"`
}

func (h *Handlers) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError(errors.New("invalid request body")), h.logger)
		return
	}

	cmd := services.InitializeCommand{
		Email:       req.Email,
		Coupons:     req.Coupons,
		EventID:     req.EventID,
		CategoryID:  req.CategoryID,
		CandidateID: req.CandidateID,
		CallbackURL: req.CallbackURL,
		VoterIP:     clientIP(r),
		UserAgent:   r.UserAgent(),
	}
	for _, b := range req.Bundles {
		cmd.Bundles = append(cmd.Bundles, services.BundleInput{
			BundleID: b.BundleID,
			Quantity: b.Quantity,
		})
	}

	result, err := h.initService.Initialize(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	// A reused pending payment is reported as a conflict, but the body still
	// carries the existing redirect so the voter can finish the charge.
	status := http.StatusCreated
	if result.Reused {
		status = http.StatusConflict
	}
	rest.WriteJSON(w, status, initializeResponse{
		Reference:        result.Reference,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		OriginalAmount:   result.OriginalAmount,
		DiscountAmount:   result.DiscountAmount,
		FinalAmount:      result.FinalAmount,
		TotalVotes:       result.TotalVotes,
		Currency:         result.Currency,
		Reused:           result.Reused,
	})
}
