package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type CouponRepository struct {
	db *DB
}

func NewCouponRepository(db *DB) *CouponRepository {
	return &CouponRepository{db: db}
}

var _ application.CouponRepository = (*CouponRepository)(nil)

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT code, discount_type, discount_value, event_ids, category_ids,
		       expires_at, active, max_uses, used_count
		FROM coupons
		WHERE code = $1
	`

	var m CouponModel
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(
		&m.Code, &m.DiscountType, &m.DiscountValue, &m.EventIDs, &m.CategoryIDs,
		&m.ExpiresAt, &m.Active, &m.MaxUses, &m.UsedCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}

	return toCouponDomain(m), nil
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	query := `UPDATE coupons SET used_count = used_count + 1 WHERE code = $1`

	tag, err := r.db.Pool.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}
