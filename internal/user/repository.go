// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tablehost/admin-api/internal/core"
)

const RoleSuperadmin = "superadmin"

// Repository covers the two capabilities the deletion pipeline needs from
// the user table: resolving a caller's role and removing the profile row.
type Repository interface {
	GetRole(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetRole(
	ctx context.Context,
	userID string,
) (string, error) {
	query := `SELECT role FROM user_roles WHERE user_id = $1`

	var role string
	err := r.db.GetContext(ctx, &role, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}

	return role, nil
}

func (r *repository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}

	return nil
}
