// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package upstream_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhiwira/procura/internal/upstream"
)

func newClient(t *testing.T, serverURL string) *upstream.Client {
	t.Helper()
	client, err := upstream.NewClient(serverURL, 2*time.Second, slog.Default())
	require.NoError(t, err)
	return client
}

/*
TestClient_Login_Success verifies the happy path decodes the full payload.
*/
func TestClient_Login_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/login", request.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["identifier"])
		assert.Equal(t, "x", body["secret"])

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"status":              true,
			"access_token":        "tok1",
			"role_tags":           "supplier",
			"role_id":             "5",
			"company_name":        "ACME",
			"company_profile":     "acme/profile.png",
			"profile_verified_at": "2026-01-10T08:00:00Z",
			"bp_code":             "BP-0042",
		})
	}))
	defer server.Close()

	response, err := newClient(t, server.URL).Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	assert.True(t, response.Status)
	assert.Equal(t, "tok1", response.AccessToken)
	assert.Equal(t, "supplier", response.RoleTags)
	assert.Equal(t, "5", response.RoleID)
	assert.Equal(t, "ACME", response.CompanyName)
	assert.Equal(t, "BP-0042", response.BPCode)
}

/*
TestClient_Login_StructuredRejection verifies 4xx bodies surface as *APIError
carrying the upstream message and field map.
*/
func TestClient_Login_StructuredRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"message": "Invalid credentials",
			"error":   map[string][]string{"secret": {"Password mismatch"}},
		})
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	apiErr, ok := err.(*upstream.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, []string{"Password mismatch"}, apiErr.Fields["secret"])
}

/*
TestClient_Login_UnstructuredRejection verifies a non-JSON error body falls
back to the HTTP status text.
*/
func TestClient_Login_UnstructuredRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)

	apiErr, ok := err.(*upstream.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

/*
TestClient_Login_TransportError verifies a dead upstream is NOT an *APIError.
*/
func TestClient_Login_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // kill it before the call

	_, err := newClient(t, server.URL).Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)

	_, ok := err.(*upstream.APIError)
	assert.False(t, ok)
}

/*
TestClient_Logout verifies the bearer header and the 2xx/4xx handling.
*/
func TestClient_Logout(t *testing.T) {
	var seenAuthorization string
	status := http.StatusOK

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/logout", request.URL.Path)
		seenAuthorization = request.Header.Get("Authorization")
		writer.WriteHeader(status)
	}))
	defer server.Close()

	client := newClient(t, server.URL)

	// 2xx is success
	require.NoError(t, client.Logout(context.Background(), "tok1"))
	assert.Equal(t, "Bearer tok1", seenAuthorization)

	// Non-2xx is an error
	status = http.StatusUnauthorized
	assert.Error(t, client.Logout(context.Background(), "stale-token"))
}
