// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adhiwira/procura/internal/platform/apperr"
	requestutil "github.com/adhiwira/procura/internal/platform/request"
	"github.com/adhiwira/procura/internal/platform/respond"
	"github.com/adhiwira/procura/internal/platform/validate"
	"github.com/adhiwira/procura/internal/session"
)

// # Definitions & Constructors

// SessionHandler implements the authentication lifecycle HTTP endpoints.
//
// # Scope
//
// This is the SPA-facing surface of the authentication flow: credentials in,
// session snapshots and queued notices out. All heavy lifting (upstream
// calls, store writes, state transitions) lives in the session package.
type SessionHandler struct {
	manager *session.Manager
	outbox  *session.Outbox
}

// NewSessionHandler constructs a new [SessionHandler] with its dependencies.
func NewSessionHandler(manager *session.Manager, outbox *session.Outbox) *SessionHandler {
	return &SessionHandler{manager: manager, outbox: outbox}
}

// Routes returns a [chi.Router] configured with the authentication routes.
//
// # Endpoints
//   - POST /login  : Authenticates the session against the upstream API.
//   - POST /logout : Terminates the session locally and upstream.
func (handler *SessionHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// stateResponse is the combined session view the SPA polls for.
type stateResponse struct {
	Ready     bool             `json:"ready"`
	Session   session.Snapshot `json:"session"`
	Notices   []session.Notice `json:"notices"`
	Redirects []string         `json:"redirects,omitempty"`
}

/*
Login authenticates the browser session.

POST /auth/login

Description: Validates input, delegates to the session manager which performs
the upstream credential check and persists the session snapshot, then returns
the resulting session view together with any queued notices.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: stateResponse: Authenticated session snapshot and success notice
  - 401: ErrUnauthorized: Rejected credentials (message from the upstream)
  - 400: ErrInvalidJSON: Bad input or validation failure
*/
func (handler *SessionHandler) login(writer http.ResponseWriter, request *http.Request) {
	sessionID, err := requestutil.RequiredSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// Only non-empty is checked here; identifier format (and everything else)
	// is the upstream's call.
	validator := &validate.Validator{}
	validator.Required("email", input.Email).
		Required("password", input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ok := handler.manager.Login(request.Context(), sessionID, input.Email, input.Password)
	notices, redirects := handler.outbox.Drain(sessionID)

	if !ok {
		// The manager queued the failure reason as an error notice.
		message := session.MessageServerError
		for _, notice := range notices {
			if notice.Level == session.LevelError {
				message = notice.Message
				break
			}
		}
		respond.Error(writer, request, apperr.Unauthorized(message))
		return
	}

	respond.OK(writer, stateResponse{
		Ready:     true,
		Session:   handler.manager.Snapshot(request.Context(), sessionID),
		Notices:   notices,
		Redirects: redirects,
	})
}

/*
Logout terminates the browser session.

POST /auth/logout

Description: Delegates to the session manager, which revokes the token
upstream on a best-effort basis and unconditionally clears all local session
state. Always succeeds from the client's perspective.

Response:
  - 200: stateResponse: Empty session snapshot, logout notice, landing redirect
*/
func (handler *SessionHandler) logout(writer http.ResponseWriter, request *http.Request) {
	sessionID, err := requestutil.RequiredSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.manager.Logout(request.Context(), sessionID)
	notices, redirects := handler.outbox.Drain(sessionID)

	respond.OK(writer, stateResponse{
		Ready:     true,
		Session:   session.Snapshot{},
		Notices:   notices,
		Redirects: redirects,
	})
}

/*
State reports the current session view.

GET /session/state

Description: The SPA polls this endpoint on load and after navigation to
learn whether the session is authenticated, pick up queued notices (expiry,
deferred login errors), and follow forced redirects.

Response:
  - 200: stateResponse: Current snapshot plus drained notices and redirects
  - 503: ErrServiceUnavailable: Startup reconciliation still running
*/
func (handler *SessionHandler) state(writer http.ResponseWriter, request *http.Request) {
	sessionID, err := requestutil.RequiredSessionID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !handler.manager.Ready() {
		writer.Header().Set("Retry-After", "1")
		respond.Error(writer, request, apperr.ServiceUnavailable("Session state is loading, retry shortly"))
		return
	}

	notices, redirects := handler.outbox.Drain(sessionID)

	respond.OK(writer, stateResponse{
		Ready:     true,
		Session:   handler.manager.Snapshot(request.Context(), sessionID),
		Notices:   notices,
		Redirects: redirects,
	})
}
