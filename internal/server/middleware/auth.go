// Package middleware provides HTTP middleware for authentication and
// request logging.
package middleware

import (
	"context"
	"strings"

	"TradeSentry/internal/conf"
	pkglog "TradeSentry/pkg/log"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Auth returns an HTTP middleware that validates the API key carried in
// the Authorization header (Bearer scheme) or the X-API-Key header.
// Requests with a missing or wrong key are rejected with 401.
func Auth(c *conf.Auth, logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			apiKey, userAgent := extractCredentials(ctx)

			if apiKey == "" {
				logger.Security("Rejected request without API key",
					"user_agent", userAgent)
				return nil, kerrors.New(401, "UNAUTHORIZED", "missing API key")
			}
			if apiKey != c.ApiKey {
				logger.Security("Rejected request with invalid API key",
					"api_key", apiKey,
					"user_agent", userAgent)
				return nil, kerrors.New(401, "UNAUTHORIZED", "invalid API key")
			}

			return handler(ctx, req)
		}
	}
}

func extractCredentials(ctx context.Context) (apiKey, userAgent string) {
	tr, ok := transport.FromServerContext(ctx)
	if !ok {
		return "", ""
	}
	ht, ok := tr.(http.Transporter)
	if !ok {
		return "", ""
	}
	req := ht.Request()

	if auth := req.Header.Get("Authorization"); auth != "" {
		apiKey = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if apiKey == "" {
		apiKey = req.Header.Get("X-API-Key")
	}
	return apiKey, req.Header.Get("User-Agent")
}
