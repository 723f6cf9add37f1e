// AngelaMos | 2026
// service_test.go

package admin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehost/admin-api/internal/admin"
	"github.com/tablehost/admin-api/internal/core"
)

func newTestService() (*admin.Service, *fixture) {
	f := newFixture()
	svc := admin.NewService(
		f.restaurants,
		f.tickets,
		f.users,
		f.identities,
		nil,
	)
	return svc, f
}

func TestServiceDeleteToleratesMissingProfileRow(t *testing.T) {
	svc, f := newTestService()
	f.users.deleteErr = core.ErrNotFound

	err := svc.Delete(context.Background(), "target-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"target-1"}, f.identities.deleted)
}

func TestServiceDeleteProfileStageError(t *testing.T) {
	svc, f := newTestService()
	cause := errors.New("constraint violation")
	f.users.deleteErr = cause

	err := svc.Delete(context.Background(), "target-1")

	var stageErr *admin.DeletionError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, admin.StageProfile, stageErr.Stage)
	assert.ErrorIs(t, err, cause)

	// The cascade stops before the auth identity.
	assert.Empty(t, f.identities.deleted)
}

func TestServiceDeleteIdentityStageError(t *testing.T) {
	svc, f := newTestService()
	cause := errors.New("identity backend unavailable")
	f.identities.err = cause

	err := svc.Delete(context.Background(), "target-1")

	var stageErr *admin.DeletionError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, admin.StageIdentity, stageErr.Stage)
	assert.ErrorIs(t, err, cause)

	// No rollback: the profile row was deleted before the failure.
	assert.Equal(t, []string{"target-1"}, f.users.deleted)
}

func TestServiceDeleteContinuesPastTicketFailures(t *testing.T) {
	svc, f := newTestService()
	f.tickets.creatorErr = errors.New("timeout")

	err := svc.Delete(context.Background(), "target-1")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"tickets.creator:target-1",
		"tickets.assignee:target-1",
		"users.delete:target-1",
		"identity.delete:target-1",
	}, *f.calls)
}

func TestServiceOwnedRestaurantsWrapsStoreError(t *testing.T) {
	svc, f := newTestService()
	cause := errors.New("relation does not exist")
	f.restaurants.err = cause

	_, err := svc.OwnedRestaurants(context.Background(), "target-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
