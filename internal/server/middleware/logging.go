package middleware

import (
	"context"
	"strings"
	"time"

	pkglog "TradeSentry/pkg/log"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Logging returns an HTTP middleware that assigns each request an ID,
// injects the request context used by the context-aware log helpers and
// emits one request line per call. Requests over the slow threshold get
// an extra slow-request line.
func Logging(logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var (
				method    string
				path      string
				ip        string
				userAgent string
				requestID string
			)

			if tr, ok := transport.FromServerContext(ctx); ok {
				method = tr.Operation()
				path = tr.Operation()

				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()
					method = httpReq.Method
					path = httpReq.URL.Path
					if httpReq.URL.RawQuery != "" {
						path = path + "?" + httpReq.URL.RawQuery
					}
					ip = extractClientIP(httpReq)
					userAgent = httpReq.Header.Get("User-Agent")
					requestID = httpReq.Header.Get("X-Request-ID")
				}
			}
			if requestID == "" {
				requestID = pkglog.GenerateRequestID()
			}

			ctx = pkglog.WithRequestContext(ctx, requestID, "", "")

			reply, err := handler(ctx, req)

			duration := time.Since(startTime).Milliseconds()
			status := 200
			if err != nil {
				status = int(kerrors.FromError(err).Code)
			}

			logger.RequestWithContext(ctx, method, path, status, duration,
				"ip", ip,
				"user_agent", userAgent,
			)

			return reply, err
		}
	}
}

// extractClientIP resolves the client address behind proxies.
// Priority: X-Real-IP, then the first X-Forwarded-For hop, then RemoteAddr.
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return req.RemoteAddr
}
