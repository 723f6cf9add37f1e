// AngelaMos | 2026
// repository.go

package ticket

import (
	"context"
	"fmt"

	"github.com/tablehost/admin-api/internal/core"
)

// Repository removes support tickets referencing a user. Tickets are deleted,
// not reassigned, so no ticket row references a deleted user afterwards.
type Repository interface {
	DeleteByCreator(ctx context.Context, userID string) (int64, error)
	DeleteByAssignee(ctx context.Context, userID string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) DeleteByCreator(
	ctx context.Context,
	userID string,
) (int64, error) {
	query := `DELETE FROM support_tickets WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tickets by creator: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tickets by creator: %w", err)
	}

	return rows, nil
}

func (r *repository) DeleteByAssignee(
	ctx context.Context,
	userID string,
) (int64, error) {
	query := `DELETE FROM support_tickets WHERE assigned_to = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete tickets by assignee: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tickets by assignee: %w", err)
	}

	return rows, nil
}
