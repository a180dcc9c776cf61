// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package sec

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adhiwira/procura/internal/platform/constants"
)

// CookieClaims is the payload embedded inside the signed session cookie.
//
// # Why sign the cookie?
//
// The cookie only names a session ID; the session state itself lives in the
// token store. Signing prevents a client from forging someone else's session
// ID without the gateway having to keep any per-cookie state.
type CookieClaims struct {
	jwt.RegisteredClaims

	// SessionID is the gateway session identifier (UUIDv7).
	SessionID string `json:"sid"`
}

// CookieService issues and verifies the signed session cookie using HS256.
type CookieService struct {
	secret []byte
	issuer string
}

// NewCookieService creates a CookieService from the shared session secret.
func NewCookieService(secret, issuer string) *CookieService {
	return &CookieService{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Issue creates a signed cookie value carrying the given session ID.
func (service *CookieService) Issue(sessionID string) (string, error) {
	currentTime := time.Now()
	claims := CookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(constants.SessionCookieMaxAge)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session cookie: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and validity of a cookie value and returns the
// embedded session ID.
func (service *CookieService) Verify(cookieValue string) (string, error) {
	token, err := jwt.ParseWithClaims(cookieValue, &CookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return "", fmt.Errorf("sec: invalid session cookie: %w", err)
	}

	claims, ok := token.Claims.(*CookieClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("sec: invalid session cookie claims")
	}

	return claims.SessionID, nil
}

// Write sets the session cookie on the response.
func (service *CookieService) Write(writer http.ResponseWriter, value string, secure bool) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(constants.SessionCookieMaxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
