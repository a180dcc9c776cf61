// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away common body decoding and session extraction patterns,
ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/adhiwira/procura/internal/platform/apperr"
	"github.com/adhiwira/procura/internal/platform/ctxutil"
	"github.com/adhiwira/procura/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
SessionID extracts the gateway session ID from the request context.

Returns an empty string if the session cookie middleware never ran.
*/
func SessionID(request *http.Request) string {
	return ctxutil.GetSessionID(request.Context())
}

/*
RequiredSessionID ensures the request carries a gateway session and returns its ID.

Returns:
  - string: Session ID
  - error: apperr.Unauthorized if no session cookie was resolved
*/
func RequiredSessionID(request *http.Request) (string, error) {

	// Get the resolved session ID
	sessionID := ctxutil.GetSessionID(request.Context())

	// If the cookie middleware never minted or verified a session, reject
	if sessionID == "" {
		return "", apperr.Unauthorized("Session required")
	}

	return sessionID, nil
}
