// AngelaMos | 2026
// handler_test.go

package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehost/admin-api/internal/admin"
	"github.com/tablehost/admin-api/internal/core"
	"github.com/tablehost/admin-api/internal/identity"
	"github.com/tablehost/admin-api/internal/restaurant"
)

type fakeVerifier struct {
	ident *identity.Identity
	err   error
}

func (f *fakeVerifier) VerifyToken(
	_ context.Context,
	_ string,
) (*identity.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ident, nil
}

type fakeRestaurantStore struct {
	owned []restaurant.Restaurant
	err   error
}

func (f *fakeRestaurantStore) ListByOwner(
	_ context.Context,
	_ string,
) ([]restaurant.Restaurant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.owned, nil
}

type fakeTicketStore struct {
	calls       *[]string
	creatorErr  error
	assigneeErr error
}

func (f *fakeTicketStore) DeleteByCreator(
	_ context.Context,
	userID string,
) (int64, error) {
	*f.calls = append(*f.calls, "tickets.creator:"+userID)
	if f.creatorErr != nil {
		return 0, f.creatorErr
	}
	return 2, nil
}

func (f *fakeTicketStore) DeleteByAssignee(
	_ context.Context,
	userID string,
) (int64, error) {
	*f.calls = append(*f.calls, "tickets.assignee:"+userID)
	if f.assigneeErr != nil {
		return 0, f.assigneeErr
	}
	return 1, nil
}

type fakeUserStore struct {
	calls     *[]string
	role      string
	roleErr   error
	deleteErr error
	deleted   []string
}

func (f *fakeUserStore) GetRole(
	_ context.Context,
	_ string,
) (string, error) {
	if f.roleErr != nil {
		return "", f.roleErr
	}
	return f.role, nil
}

func (f *fakeUserStore) Delete(_ context.Context, userID string) error {
	*f.calls = append(*f.calls, "users.delete:"+userID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeIdentityDeleter struct {
	calls   *[]string
	err     error
	deleted []string
}

func (f *fakeIdentityDeleter) DeleteUser(
	_ context.Context,
	userID string,
) error {
	*f.calls = append(*f.calls, "identity.delete:"+userID)
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fixture struct {
	handler     *admin.Handler
	verifier    *fakeVerifier
	restaurants *fakeRestaurantStore
	tickets     *fakeTicketStore
	users       *fakeUserStore
	identities  *fakeIdentityDeleter
	calls       *[]string
}

func newFixture() *fixture {
	calls := &[]string{}

	f := &fixture{
		verifier: &fakeVerifier{
			ident: &identity.Identity{
				ID:    "caller-1",
				Email: "root@example.com",
			},
		},
		restaurants: &fakeRestaurantStore{},
		tickets:     &fakeTicketStore{calls: calls},
		users:       &fakeUserStore{calls: calls, role: "superadmin"},
		identities:  &fakeIdentityDeleter{calls: calls},
		calls:       calls,
	}

	svc := admin.NewService(
		f.restaurants,
		f.tickets,
		f.users,
		f.identities,
		nil,
	)

	f.handler = admin.NewHandler(admin.HandlerConfig{
		Service:  svc,
		Verifier: f.verifier,
	})

	return f
}

func deleteRequest(body, token string) *http.Request {
	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/admin/users/delete",
		strings.NewReader(body),
	)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDeleteUserMissingAuthHeader(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No authorization header.", decodeBody(t, rec)["error"])
}

func TestDeleteUserInvalidToken(t *testing.T) {
	f := newFixture()
	f.verifier.err = identity.ErrInvalidToken

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "bad"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token.", decodeBody(t, rec)["error"])
}

func TestDeleteUserNotSuperadmin(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		roleErr error
	}{
		{name: "regular role", role: "admin"},
		{name: "no role row", roleErr: core.ErrNotFound},
		{name: "role lookup failure", roleErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.users.role = tt.role
			f.users.roleErr = tt.roleErr

			rec := httptest.NewRecorder()
			f.handler.DeleteUser(
				rec,
				deleteRequest(`{"userId":"target-1"}`, "tok"),
			)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(
				t,
				"Unauthorized. Only superadmin can delete users.",
				decodeBody(t, rec)["error"],
			)
			assert.Empty(t, *f.calls)
		})
	}
}

func TestDeleteUserMissingUserID(t *testing.T) {
	for _, body := range []string{`{}`, `{"userId":""}`} {
		f := newFixture()

		rec := httptest.NewRecorder()
		f.handler.DeleteUser(rec, deleteRequest(body, "tok"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(
			t,
			"Missing required field: userId",
			decodeBody(t, rec)["error"],
		)
	}
}

func TestDeleteUserMalformedBody(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId"`, "tok"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["error"])
}

func TestDeleteUserOwnershipBlock(t *testing.T) {
	f := newFixture()

	domain := "tapas.example.com"
	slug := "la-terraza"
	f.restaurants.owned = []restaurant.Restaurant{
		{ID: "r1", Name: "Tapas", Domain: &domain},
		{ID: "r2", Name: "La Terraza", Slug: &slug},
	}

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "tok"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["cannotDelete"])
	assert.Equal(t, "owner", body["reason"])
	assert.Contains(t, body["error"], "2 restaurante(s)")

	owned, ok := body["ownedRestaurants"].([]any)
	require.True(t, ok)
	require.Len(t, owned, 2)

	first, ok := owned[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tapas.example.com", first["domain"])

	second, ok := owned[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "la-terraza", second["domain"])

	// Hard block: nothing downstream runs.
	assert.Empty(t, *f.calls)
	assert.Empty(t, f.users.deleted)
	assert.Empty(t, f.identities.deleted)
}

func TestDeleteUserOwnershipQueryFailure(t *testing.T) {
	f := newFixture()
	f.restaurants.err = errors.New("connection refused")

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "tok"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(
		t,
		"Error al verificar los restaurantes del usuario",
		decodeBody(t, rec)["error"],
	)
	assert.Empty(t, *f.calls)
}

func TestDeleteUserSuccess(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "tok"))

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User deleted successfully", body["message"])

	// Fixed cascade order: tickets by creator, tickets by assignee,
	// profile row, auth identity.
	assert.Equal(t, []string{
		"tickets.creator:target-1",
		"tickets.assignee:target-1",
		"users.delete:target-1",
		"identity.delete:target-1",
	}, *f.calls)
	assert.Equal(t, []string{"target-1"}, f.users.deleted)
	assert.Equal(t, []string{"target-1"}, f.identities.deleted)
}

func TestDeleteUserTicketCleanupIsBestEffort(t *testing.T) {
	f := newFixture()
	f.tickets.creatorErr = errors.New("tickets table locked")
	f.tickets.assigneeErr = errors.New("tickets table locked")

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "tok"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"target-1"}, f.users.deleted)
	assert.Equal(t, []string{"target-1"}, f.identities.deleted)
}

func TestDeleteUserProfileDeletionFailure(t *testing.T) {
	f := newFixture()
	f.users.deleteErr = errors.New("deadlock detected")

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "tok"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	errMsg, ok := decodeBody(t, rec)["error"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(errMsg, "Error al eliminar el usuario:"))
	assert.Contains(t, errMsg, "deadlock detected")
	assert.Empty(t, f.identities.deleted)
}

func TestDeleteUserIdentityFailureLeavesRowDeleted(t *testing.T) {
	f := newFixture()
	f.identities.err = fmt.Errorf("delete identity: status 500: upstream boom")

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, "tok"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	errMsg, ok := decodeBody(t, rec)["error"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(
		errMsg,
		"Error al eliminar la cuenta de autenticación:",
	))
	assert.Contains(t, errMsg, "upstream boom")

	// Known inconsistency: no rollback, the profile row stays deleted.
	assert.Equal(t, []string{"target-1"}, f.users.deleted)
}

func TestDeleteUserOptionsPreflight(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(
		http.MethodOptions,
		"/v1/admin/users/delete",
		nil,
	)
	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertPermissiveCORS(t, rec)
}

func TestDeleteUserCORSHeadersOnEveryResponse(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.handler.DeleteUser(rec, deleteRequest(`{"userId":"target-1"}`, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assertPermissiveCORS(t, rec)
}

func assertPermissiveCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(
		t,
		"GET, POST, PUT, DELETE, OPTIONS",
		rec.Header().Get("Access-Control-Allow-Methods"),
	)
	assert.Equal(
		t,
		"Content-Type, Authorization, X-Client-Info, Apikey",
		rec.Header().Get("Access-Control-Allow-Headers"),
	)
}

func TestCheckEligibility(t *testing.T) {
	f := newFixture()

	slug := "el-patio"
	f.restaurants.owned = []restaurant.Restaurant{
		{ID: "r1", Name: "El Patio", Slug: &slug},
	}

	router := chi.NewRouter()
	router.Get("/admin/users/{userID}/eligibility", f.handler.CheckEligibility)

	req := httptest.NewRequest(
		http.MethodGet,
		"/admin/users/target-1/eligibility",
		nil,
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["can_delete"])
	assert.Equal(t, "owner", data["reason"])

	owned, ok := data["owned_restaurants"].([]any)
	require.True(t, ok)
	assert.Len(t, owned, 1)
}

func TestCheckEligibilityNoRestaurants(t *testing.T) {
	f := newFixture()

	router := chi.NewRouter()
	router.Get("/admin/users/{userID}/eligibility", f.handler.CheckEligibility)

	req := httptest.NewRequest(
		http.MethodGet,
		"/admin/users/target-1/eligibility",
		nil,
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["can_delete"])
}
