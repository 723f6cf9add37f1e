// AngelaMos | 2026
// identity.go

package identity

import (
	"context"
	"errors"
)

// Identity is the authenticated principal resolved from a bearer token.
// Roles are not part of the token exchange; they live in the user_roles
// table and are resolved separately.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

var (
	ErrInvalidToken = errors.New("identity: invalid token")
	ErrUserNotFound = errors.New("identity: user not found")
)

type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

type Deleter interface {
	DeleteUser(ctx context.Context, userID string) error
}
