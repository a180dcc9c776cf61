// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

/*
Package upstream implements the client for the remote e-procurement REST API.

The upstream owns all authoritative state: credential validation, business
rules, persistence. This client only performs the two session calls the
gateway needs (login, logout) and distinguishes the two failure classes the
session manager cares about:

  - APIError: The upstream answered with a structured error body. The carried
    message is safe to surface to the user.
  - Transport errors: The upstream never answered (DNS, refused connection,
    timeout). Surfaced to users as a generic server error.

Every request carries a client-enforced timeout so a silent upstream can never
strand the gateway in a loading state.
*/
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// # Wire Contract

// LoginResponse is the upstream's login payload.
//
// RoleID arrives as a string ("1".."5") mirroring the platform's numeric role
// codes; RoleTags is the tag used to build role-scoped API paths.
type LoginResponse struct {
	Status            bool   `json:"status"`
	AccessToken       string `json:"access_token"`
	RoleTags          string `json:"role_tags"`
	RoleID            string `json:"role_id"`
	CompanyName       string `json:"company_name"`
	CompanyProfile    string `json:"company_profile"`
	ProfileVerifiedAt string `json:"profile_verified_at"`
	BPCode            string `json:"bp_code"`

	// Message is populated on status=false rejections delivered with a 2xx.
	Message string `json:"message"`
}

// errorBody is the upstream's structured failure payload.
type errorBody struct {
	Message string              `json:"message"`
	Fields  map[string][]string `json:"error"`
}

// APIError is a structured rejection from the upstream.
type APIError struct {
	// StatusCode is the HTTP status the upstream answered with.
	StatusCode int

	// Message is the upstream-supplied, user-facing error text.
	Message string

	// Fields holds optional per-field validation messages.
	Fields map[string][]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.StatusCode)
}

// # Client

// Client calls the remote e-procurement API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient constructs a Client for the given base URL.
//
// # Parameters
//   - rawBaseURL: Root of the upstream API (e.g. "https://api.procura.id").
//   - timeout: Per-request deadline enforced client-side.
//   - logger: Structured logger for request diagnostics.
func NewClient(rawBaseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(rawBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream: invalid base URL: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger,
	}, nil
}

// BaseURL returns the upstream root, used by the role-scoped proxy.
func (client *Client) BaseURL() *url.URL {
	return client.baseURL
}

/*
Login exchanges credentials for an access token and profile snapshot.

POST {base}/login

Parameters:
  - context: context.Context
  - identifier: string (email)
  - secret: string (password)

Returns:
  - *LoginResponse: Decoded payload; Status may still be false.
  - error: *APIError for structured rejections, plain errors for transport failures
*/
func (client *Client) Login(context context.Context, identifier, secret string) (*LoginResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"secret":     secret,
	})
	if err != nil {
		return nil, fmt.Errorf("upstream_login_encode_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, client.baseURL.String()+"/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("upstream_login_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		// Transport failure: the upstream never answered.
		return nil, fmt.Errorf("upstream_login_transport_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream_login_read_failed: %w", err)
	}

	// Structured rejection on any non-2xx answer.
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, decodeAPIError(response.StatusCode, body)
	}

	var loginResponse LoginResponse
	if err := json.Unmarshal(body, &loginResponse); err != nil {
		return nil, fmt.Errorf("upstream_login_decode_failed: %w", err)
	}

	return &loginResponse, nil
}

/*
Logout invalidates the bearer token server-side.

POST {base}/logout (bearer-authenticated)

Description: Any 2xx is success; the body is not interpreted.

Parameters:
  - context: context.Context
  - accessToken: string

Returns:
  - error: *APIError or transport failure; nil on success
*/
func (client *Client) Logout(context context.Context, accessToken string) error {
	request, err := http.NewRequestWithContext(context, http.MethodPost, client.baseURL.String()+"/logout", nil)
	if err != nil {
		return fmt.Errorf("upstream_logout_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("upstream_logout_transport_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(response.Body)
		return decodeAPIError(response.StatusCode, body)
	}

	return nil
}

// decodeAPIError turns a non-2xx body into an *APIError, falling back to a
// plain status description when the body is not the structured shape.
func decodeAPIError(statusCode int, body []byte) error {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return &APIError{
			StatusCode: statusCode,
			Message:    parsed.Message,
			Fields:     parsed.Fields,
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}
}
