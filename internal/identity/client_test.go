// AngelaMos | 2026
// client_test.go

package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehost/admin-api/internal/config"
	"github.com/tablehost/admin-api/internal/identity"
)

func newClient(serverURL string) *identity.Client {
	return identity.NewClient(config.IdentityConfig{
		URL:        serverURL,
		ServiceKey: "test-service-key",
		Timeout:    5 * time.Second,
	})
}

func TestVerifyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/auth/v1/user", r.URL.Path)
			assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
			assert.Equal(t, "test-service-key", r.Header.Get("Apikey"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"user-1","email":"a@example.com"}`))
		},
	))
	defer server.Close()

	ident, err := newClient(server.URL).VerifyToken(
		context.Background(),
		"the-token",
	)

	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.ID)
	assert.Equal(t, "a@example.com", ident.Email)
}

func TestVerifyTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	))
	defer server.Close()

	_, err := newClient(server.URL).VerifyToken(context.Background(), "bad")

	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestVerifyTokenEmptyIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		},
	))
	defer server.Close()

	_, err := newClient(server.URL).VerifyToken(context.Background(), "tok")

	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestDeleteUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/auth/v1/admin/users/user-1", r.URL.Path)
			assert.Equal(
				t,
				"Bearer test-service-key",
				r.Header.Get("Authorization"),
			)

			w.WriteHeader(http.StatusNoContent)
		},
	))
	defer server.Close()

	err := newClient(server.URL).DeleteUser(context.Background(), "user-1")

	assert.NoError(t, err)
}

func TestDeleteUserNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"msg":"User not found"}`))
		},
	))
	defer server.Close()

	err := newClient(server.URL).DeleteUser(context.Background(), "user-1")

	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestDeleteUserUpstreamFailureIncludesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"database unavailable"}`))
		},
	))
	defer server.Close()

	err := newClient(server.URL).DeleteUser(context.Background(), "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestDeleteUserPlainTextErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream timeout"))
		},
	))
	defer server.Close()

	err := newClient(server.URL).DeleteUser(context.Background(), "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/user", r.URL.Path)
			w.Write([]byte(`{"id":"user-1","email":"a@example.com"}`))
		},
	))
	defer server.Close()

	client := identity.NewClient(config.IdentityConfig{
		URL:        server.URL + "/",
		ServiceKey: "test-service-key",
	})

	_, err := client.VerifyToken(context.Background(), "tok")
	assert.NoError(t, err)
}
