package services

import (
	"context"
	"sync"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

// Hand-rolled test doubles. Default behavior is an in-memory store with the
// same conditional-update semantics as the real repositories; individual
// calls can be overridden through the ...Fn fields.

// MockPaymentRepository
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment

	CreateFn                func(ctx context.Context, payment *domain.Payment) error
	FindByReferenceFn       func(ctx context.Context, reference string) (*domain.Payment, error)
	FindActivePendingFn     func(ctx context.Context, voterEmail, eventID, categoryID string, createdAfter time.Time) (*domain.Payment, error)
	UpdateStatusIfPendingFn func(ctx context.Context, reference string, target domain.PaymentStatus, paidAt *time.Time, gatewayData map[string]any) (*domain.Payment, bool, error)
	RecordVoteCastErrorFn   func(ctx context.Context, reference, message string) error
	CountRecentByIPFn       func(ctx context.Context, ip string, since time.Time) (int, error)
	FindStalePendingFn      func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error)
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the partial unique index: one pending row per voter/ballot.
	for _, p := range m.payments {
		if p.Status == domain.StatusPending &&
			p.VoterEmail == payment.VoterEmail &&
			p.EventID == payment.EventID &&
			p.CategoryID == payment.CategoryID {
			return application.NewDuplicatePendingError(payment.Reference)
		}
	}
	m.payments[payment.Reference] = payment
	return nil
}

func (m *MockPaymentRepository) FindByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	if m.FindByReferenceFn != nil {
		return m.FindByReferenceFn(ctx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[reference]; ok {
		return p, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) FindActivePending(ctx context.Context, voterEmail, eventID, categoryID string, createdAfter time.Time) (*domain.Payment, error) {
	if m.FindActivePendingFn != nil {
		return m.FindActivePendingFn(ctx, voterEmail, eventID, categoryID, createdAfter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Status == domain.StatusPending &&
			p.VoterEmail == voterEmail &&
			p.EventID == eventID &&
			p.CategoryID == categoryID &&
			p.CreatedAt.After(createdAfter) {
			return p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) UpdateStatusIfPending(ctx context.Context, reference string, target domain.PaymentStatus, paidAt *time.Time, gatewayData map[string]any) (*domain.Payment, bool, error) {
	if m.UpdateStatusIfPendingFn != nil {
		return m.UpdateStatusIfPendingFn(ctx, reference, target, paidAt, gatewayData)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[reference]
	if !ok {
		return nil, false, domain.ErrPaymentNotFound
	}
	if p.Status != domain.StatusPending {
		return p, false, nil
	}
	p.Status = target
	p.PaidAt = paidAt
	p.MergeGatewayData(gatewayData)
	p.UpdatedAt = time.Now()
	return p, true, nil
}

func (m *MockPaymentRepository) MergeGatewayData(ctx context.Context, reference string, gatewayData map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[reference]; ok {
		p.MergeGatewayData(gatewayData)
	}
	return nil
}

func (m *MockPaymentRepository) RecordVoteCastError(ctx context.Context, reference, message string) error {
	if m.RecordVoteCastErrorFn != nil {
		return m.RecordVoteCastErrorFn(ctx, reference, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[reference]; ok {
		p.Metadata.VoteCastError = message
	}
	return nil
}

func (m *MockPaymentRepository) MarkVotesCast(ctx context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[reference]; ok {
		p.VotesRemaining = 0
	}
	return nil
}

func (m *MockPaymentRepository) CountRecentByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	if m.CountRecentByIPFn != nil {
		return m.CountRecentByIPFn(ctx, ip, since)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.payments {
		if p.VoterIP == ip && p.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockPaymentRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	if m.FindStalePendingFn != nil {
		return m.FindStalePendingFn(ctx, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []*domain.Payment
	for _, p := range m.payments {
		if p.Status == domain.StatusPending && p.CreatedAt.Before(cutoff) {
			stale = append(stale, p)
			if len(stale) == limit {
				break
			}
		}
	}
	return stale, nil
}

// Get returns the stored payment without repository error mapping.
func (m *MockPaymentRepository) Get(reference string) *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[reference]
}

// MockBundleRepository
type MockBundleRepository struct {
	mu      sync.Mutex
	bundles map[string]*domain.VoteBundle

	FindByIDFn func(ctx context.Context, id string) (*domain.VoteBundle, error)
}

func NewMockBundleRepository(bundles ...*domain.VoteBundle) *MockBundleRepository {
	m := &MockBundleRepository{bundles: make(map[string]*domain.VoteBundle)}
	for _, b := range bundles {
		m.bundles[b.ID] = b
	}
	return m
}

func (m *MockBundleRepository) Add(b *domain.VoteBundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[b.ID] = b
}

func (m *MockBundleRepository) FindByID(ctx context.Context, id string) (*domain.VoteBundle, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bundles[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, domain.ErrBundleNotFound
}

// MockCouponRepository
type MockCouponRepository struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon
	usage   map[string]int

	FindByCodeFn func(ctx context.Context, code string) (*domain.Coupon, error)
}

func NewMockCouponRepository(coupons ...*domain.Coupon) *MockCouponRepository {
	m := &MockCouponRepository{
		coupons: make(map[string]*domain.Coupon),
		usage:   make(map[string]int),
	}
	for _, c := range coupons {
		m.coupons[c.Code] = c
	}
	return m
}

func (m *MockCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if m.FindByCodeFn != nil {
		return m.FindByCodeFn(ctx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.coupons[code]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCouponNotFound
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[code]++
	return nil
}

func (m *MockCouponRepository) Usage(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[code]
}

// MockGatewayClient
type MockGatewayClient struct {
	mu              sync.Mutex
	InitializeCalls int
	VerifyCalls     int

	InitializeFn      func(ctx context.Context, req application.InitializeChargeRequest) (*application.InitializeChargeResponse, error)
	VerifyFn          func(ctx context.Context, reference string) (*application.VerifyResult, error)
	VerifySignatureFn func(rawBody []byte, signatureHeader string) bool
	ParseWebhookFn    func(rawBody []byte) (*application.WebhookEvent, error)
}

func (m *MockGatewayClient) Initialize(ctx context.Context, req application.InitializeChargeRequest) (*application.InitializeChargeResponse, error) {
	m.mu.Lock()
	m.InitializeCalls++
	m.mu.Unlock()
	if m.InitializeFn != nil {
		return m.InitializeFn(ctx, req)
	}
	return &application.InitializeChargeResponse{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "access-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (m *MockGatewayClient) Verify(ctx context.Context, reference string) (*application.VerifyResult, error) {
	m.mu.Lock()
	m.VerifyCalls++
	m.mu.Unlock()
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, reference)
	}
	return &application.VerifyResult{
		Status:    application.VerifyStatusSuccess,
		Reference: reference,
	}, nil
}

func (m *MockGatewayClient) VerifySignature(rawBody []byte, signatureHeader string) bool {
	if m.VerifySignatureFn != nil {
		return m.VerifySignatureFn(rawBody, signatureHeader)
	}
	return true
}

func (m *MockGatewayClient) ParseWebhook(rawBody []byte) (*application.WebhookEvent, error) {
	if m.ParseWebhookFn != nil {
		return m.ParseWebhookFn(rawBody)
	}
	return &application.WebhookEvent{}, nil
}

// MockVoteCaster
type MockVoteCaster struct {
	mu    sync.Mutex
	Calls []application.CastVotesRequest

	CastVotesFn func(ctx context.Context, req application.CastVotesRequest) error
}

func (m *MockVoteCaster) CastVotes(ctx context.Context, req application.CastVotesRequest) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.CastVotesFn != nil {
		return m.CastVotesFn(ctx, req)
	}
	return nil
}

func (m *MockVoteCaster) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
