// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

package api

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/adhiwira/procura/internal/platform/apperr"
	"github.com/adhiwira/procura/internal/platform/constants"
	"github.com/adhiwira/procura/internal/platform/ctxutil"
	"github.com/adhiwira/procura/internal/platform/respond"
	"github.com/adhiwira/procura/internal/tokenstore"
)

// # Upstream Proxy

// ProxyHandler forwards guarded requests to the upstream procurement API,
// attaching the session's stored access token as a bearer credential.
//
// # Path Mapping
//
// The /api prefix is local to the gateway and is stripped before forwarding;
// the role segment is preserved because the upstream's routes are role-scoped:
//
//	GET /api/supplier/orders  →  {upstream}/supplier/orders
//
// The browser never sees the access token. It lives in the token store and
// is injected here, server-side, on every forwarded request.
type ProxyHandler struct {
	store tokenstore.Store
	proxy *httputil.ReverseProxy
	log   *slog.Logger
}

// NewProxyHandler constructs a ProxyHandler targeting the given upstream base URL.
func NewProxyHandler(target *url.URL, store tokenstore.Store, logger *slog.Logger) *ProxyHandler {
	handler := &ProxyHandler{
		store: store,
		log:   logger,
	}

	handler.proxy = &httputil.ReverseProxy{
		Rewrite: func(request *httputil.ProxyRequest) {
			request.SetURL(target)
			request.SetXForwarded()

			// Strip the gateway-local /api prefix, keep the role segment
			request.Out.URL.Path = strings.TrimPrefix(request.In.URL.Path, "/api")

			// Attach the session's stored bearer token
			if sessionID := ctxutil.GetSessionID(request.In.Context()); sessionID != "" {
				if token, err := store.Get(request.In.Context(), sessionID, tokenstore.KeyAccessToken); err == nil && token != "" {
					request.Out.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
				}
			}
		},
		ErrorHandler: func(writer http.ResponseWriter, request *http.Request, err error) {
			logger.ErrorContext(request.Context(), "upstream_proxy_failed",
				slog.String("path", request.URL.Path),
				slog.Any("error", err),
			)
			respond.Error(writer, request, apperr.UpstreamUnavailable(err))
		},
	}

	return handler
}

// ServeHTTP implements [http.Handler].
func (handler *ProxyHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.proxy.ServeHTTP(writer, request)
}
