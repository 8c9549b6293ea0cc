package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/itfy/evoting-backend/internal/domain"
)

// toDomainModel: maps db model to domain entity
func toDomainModel(m PaymentModel) (*domain.Payment, error) {
	var bundles []domain.BundleSelection
	if err := json.Unmarshal(m.VoteBundles, &bundles); err != nil {
		return nil, fmt.Errorf("decode vote_bundles: %w", err)
	}

	var coupons []domain.AppliedCoupon
	if len(m.AppliedCoupons) > 0 {
		if err := json.Unmarshal(m.AppliedCoupons, &coupons); err != nil {
			return nil, fmt.Errorf("decode applied_coupons: %w", err)
		}
	}

	gatewayData := map[string]any{}
	if len(m.GatewayData) > 0 {
		if err := json.Unmarshal(m.GatewayData, &gatewayData); err != nil {
			return nil, fmt.Errorf("decode gateway_data: %w", err)
		}
	}

	var metadata domain.Metadata
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return domain.Reconstitute(
		m.Reference,
		domain.PaymentStatus(m.Status),
		m.VoterEmail, m.VoterIP, m.UserAgent,
		m.EventID, m.CategoryID, m.CandidateID,
		bundles,
		coupons,
		m.Currency,
		m.OriginalAmount, m.DiscountAmount, m.FinalAmount,
		m.VotesRemaining,
		gatewayData,
		metadata,
		m.CreatedAt, m.UpdatedAt,
		m.PaidAt,
	), nil
}

// toDBModel: maps domain entity to db model
func toDBModel(p *domain.Payment) (*PaymentModel, error) {
	bundles, err := json.Marshal(p.VoteBundles)
	if err != nil {
		return nil, fmt.Errorf("encode vote_bundles: %w", err)
	}

	coupons, err := json.Marshal(p.AppliedCoupons)
	if err != nil {
		return nil, fmt.Errorf("encode applied_coupons: %w", err)
	}

	gatewayData, err := json.Marshal(p.GatewayData)
	if err != nil {
		return nil, fmt.Errorf("encode gateway_data: %w", err)
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	return &PaymentModel{
		Reference:      p.Reference,
		Status:         string(p.Status),
		VoterEmail:     p.VoterEmail,
		VoterIP:        p.VoterIP,
		UserAgent:      p.UserAgent,
		EventID:        p.EventID,
		CategoryID:     p.CategoryID,
		CandidateID:    p.CandidateID,
		VoteBundles:    bundles,
		AppliedCoupons: coupons,
		Currency:       p.Currency,
		OriginalAmount: p.OriginalAmount,
		DiscountAmount: p.DiscountAmount,
		FinalAmount:    p.FinalAmount,
		VotesRemaining: p.VotesRemaining,
		GatewayData:    gatewayData,
		Metadata:       metadata,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		PaidAt:         p.PaidAt,
	}, nil
}

func toBundleDomain(m BundleModel) *domain.VoteBundle {
	return &domain.VoteBundle{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Votes:       m.Votes,
		Active:      m.Active,
		EventIDs:    m.EventIDs,
		CategoryIDs: m.CategoryIDs,
	}
}

func toCouponDomain(m CouponModel) *domain.Coupon {
	return &domain.Coupon{
		Code:          m.Code,
		DiscountType:  domain.DiscountType(m.DiscountType),
		DiscountValue: m.DiscountValue,
		EventIDs:      m.EventIDs,
		CategoryIDs:   m.CategoryIDs,
		ExpiresAt:     m.ExpiresAt,
		Active:        m.Active,
		MaxUses:       m.MaxUses,
		UsedCount:     m.UsedCount,
	}
}
