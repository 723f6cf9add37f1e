// AngelaMos | 2026
// repository.go

package restaurant

import (
	"context"
	"fmt"

	"github.com/tablehost/admin-api/internal/core"
)

type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Restaurant, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListByOwner(
	ctx context.Context,
	ownerID string,
) ([]Restaurant, error) {
	query := `
		SELECT id, owner_id, name, domain, slug, created_at
		FROM restaurants
		WHERE owner_id = $1
		ORDER BY created_at`

	var restaurants []Restaurant
	if err := r.db.SelectContext(ctx, &restaurants, query, ownerID); err != nil {
		return nil, fmt.Errorf("list restaurants by owner: %w", err)
	}

	return restaurants, nil
}
