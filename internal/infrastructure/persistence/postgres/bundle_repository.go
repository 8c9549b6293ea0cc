package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// BundleRepository reads vote bundles. The pipeline never writes bundles;
// their prices are pinned into payments at creation.
type BundleRepository struct {
	db *DB
}

func NewBundleRepository(db *DB) *BundleRepository {
	return &BundleRepository{db: db}
}

var _ application.BundleRepository = (*BundleRepository)(nil)

func (r *BundleRepository) FindByID(ctx context.Context, id string) (*domain.VoteBundle, error) {
	query := `
		SELECT id, name, price, votes, active, event_ids, category_ids
		FROM vote_bundles
		WHERE id = $1
	`

	var m BundleModel
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Price, &m.Votes, &m.Active, &m.EventIDs, &m.CategoryIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to scan bundle: %w", err)
	}

	return toBundleDomain(m), nil
}
