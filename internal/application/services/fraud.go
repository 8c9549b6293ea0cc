package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

// FraudChecker runs fast, best-effort heuristics over a payment request. The
// verdict is advisory metadata on the payment, never a gate: any internal
// failure collapses to a passing verdict so legitimate initialization is
// never blocked.
type FraudChecker struct {
	payments  application.PaymentRepository
	window    time.Duration
	threshold int
	logger    *slog.Logger
	now       func() time.Time
}

func NewFraudChecker(
	payments application.PaymentRepository,
	window time.Duration,
	threshold int,
	logger *slog.Logger,
) *FraudChecker {
	return &FraudChecker{
		payments:  payments,
		window:    window,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Check never returns an error and never panics outward.
func (f *FraudChecker) Check(ctx context.Context, email, ip string) (result domain.FraudCheck) {
	result = domain.FraudCheck{Passed: true}

	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Error("fraud check panicked, treating as passed", "panic", rec)
			result = domain.FraudCheck{Passed: true}
		}
	}()

	if reason := f.checkEmail(email); reason != "" {
		result.Passed = false
		result.Reasons = append(result.Reasons, reason)
	}

	if reason := f.checkVelocity(ctx, ip); reason != "" {
		result.Passed = false
		result.Reasons = append(result.Reasons, reason)
	}

	return result
}

// Multiple sub-address separators are a common pattern for farming one inbox
// into many voter identities.
func (f *FraudChecker) checkEmail(email string) string {
	local, _, found := strings.Cut(domain.NormalizeEmail(email), "@")
	if !found {
		return ""
	}
	if strings.Count(local, "+") > 1 {
		return "suspicious email: multiple sub-address separators"
	}
	return ""
}

func (f *FraudChecker) checkVelocity(ctx context.Context, ip string) string {
	if ip == "" {
		return ""
	}
	count, err := f.payments.CountRecentByIP(ctx, ip, f.now().Add(-f.window))
	if err != nil {
		f.logger.Warn("fraud velocity check failed, treating as passed", "ip", ip, "error", err)
		return ""
	}
	if count >= f.threshold {
		return fmt.Sprintf("high payment velocity: %d payments from IP within %s", count, f.window)
	}
	return ""
}
