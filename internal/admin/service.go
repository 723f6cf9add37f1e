// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tablehost/admin-api/internal/core"
	"github.com/tablehost/admin-api/internal/restaurant"
)

type RestaurantStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]restaurant.Restaurant, error)
}

type TicketStore interface {
	DeleteByCreator(ctx context.Context, userID string) (int64, error)
	DeleteByAssignee(ctx context.Context, userID string) (int64, error)
}

type UserStore interface {
	GetRole(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

type IdentityDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

type DeletionStage string

const (
	StageProfile  DeletionStage = "profile"
	StageIdentity DeletionStage = "identity"
)

// DeletionError reports which stage of the cascade failed. There is no
// compensating rollback: when StageIdentity fails the profile row is already
// gone and the auth identity remains.
type DeletionError struct {
	Stage DeletionStage
	Err   error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete user: %s stage: %v", e.Stage, e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}

type Service struct {
	restaurants RestaurantStore
	tickets     TicketStore
	users       UserStore
	identity    IdentityDeleter
	logger      *slog.Logger
}

func NewService(
	restaurants RestaurantStore,
	tickets TicketStore,
	users UserStore,
	identityDeleter IdentityDeleter,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		restaurants: restaurants,
		tickets:     tickets,
		users:       users,
		identity:    identityDeleter,
		logger:      logger,
	}
}

// RoleOf resolves the caller's role from the user_roles table.
func (s *Service) RoleOf(ctx context.Context, userID string) (string, error) {
	return s.users.GetRole(ctx, userID)
}

// OwnedRestaurants returns the restaurants blocking deletion of userID.
// A user who owns at least one restaurant is never deleted.
func (s *Service) OwnedRestaurants(
	ctx context.Context,
	userID string,
) ([]restaurant.Restaurant, error) {
	owned, err := s.restaurants.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check ownership: %w", err)
	}
	return owned, nil
}

// Delete runs the cascade in fixed order: support tickets, profile row,
// auth identity. Ticket cleanup is best-effort; a failure there is logged
// and the cascade continues. The caller must have cleared the ownership
// precondition first.
func (s *Service) Delete(ctx context.Context, userID string) error {
	s.cleanupTickets(ctx, userID)

	if err := s.users.Delete(ctx, userID); err != nil {
		// A missing profile row is not fatal: the row may already be
		// gone while the auth identity lingers.
		if !errors.Is(err, core.ErrNotFound) {
			return &DeletionError{Stage: StageProfile, Err: err}
		}
		s.logger.Warn("user deletion: profile row already absent",
			"user_id", userID,
		)
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		return &DeletionError{Stage: StageIdentity, Err: err}
	}

	core.AddSpanEvent(ctx, "user deleted",
		attribute.String("user.id", userID),
	)

	return nil
}

func (s *Service) cleanupTickets(ctx context.Context, userID string) {
	created, err := s.tickets.DeleteByCreator(ctx, userID)
	if err != nil {
		s.logger.Warn("user deletion: created-ticket cleanup failed",
			"user_id", userID,
			"error", err,
		)
	} else {
		s.logger.Info("user deletion: created tickets removed",
			"user_id", userID,
			"count", created,
		)
	}

	assigned, err := s.tickets.DeleteByAssignee(ctx, userID)
	if err != nil {
		s.logger.Warn("user deletion: assigned-ticket cleanup failed",
			"user_id", userID,
			"error", err,
		)
	} else {
		s.logger.Info("user deletion: assigned tickets removed",
			"user_id", userID,
			"count", assigned,
		)
	}
}
