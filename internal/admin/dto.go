// AngelaMos | 2026
// dto.go

package admin

import (
	"github.com/tablehost/admin-api/internal/restaurant"
)

type DeleteUserRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type DeleteUserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// OwnershipConflictResponse is returned when the target owns restaurants.
// Clients branch on CannotDelete/Reason; the message is user-facing Spanish.
type OwnershipConflictResponse struct {
	Error            string            `json:"error"`
	CannotDelete     bool              `json:"cannotDelete"`
	Reason           string            `json:"reason"`
	OwnedRestaurants []OwnedRestaurant `json:"ownedRestaurants"`
}

type OwnedRestaurant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type EligibilityResponse struct {
	UserID           string            `json:"user_id"`
	CanDelete        bool              `json:"can_delete"`
	Reason           string            `json:"reason,omitempty"`
	OwnedRestaurants []OwnedRestaurant `json:"owned_restaurants,omitempty"`
}

func toOwnedRestaurants(restaurants []restaurant.Restaurant) []OwnedRestaurant {
	owned := make([]OwnedRestaurant, 0, len(restaurants))
	for i := range restaurants {
		owned = append(owned, OwnedRestaurant{
			ID:     restaurants[i].ID,
			Name:   restaurants[i].Name,
			Domain: restaurants[i].DomainOrSlug(),
		})
	}
	return owned
}
