package services

import (
	"context"
	"errors"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

type QueryService struct {
	payments application.PaymentRepository
}

func NewQueryService(payments application.PaymentRepository) *QueryService {
	return &QueryService{payments: payments}
}

func (s *QueryService) FindByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	payment, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError(reference)
		}
		return nil, application.NewInternalError(err)
	}
	return payment, nil
}
