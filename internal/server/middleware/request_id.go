package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
)

const (
	XRequestID     = "x-request-id"
	XCorrelationID = "x-correlation-id"

	maxRequestIDLen = 128
)

type requestIDKey struct{}

// GetRequestID returns the id assigned by RequestID, falling back to the
// incoming headers when the middleware did not run.
func GetRequestID(c echo.Context) string {
	if id, _ := c.Get(XRequestID).(string); id != "" {
		return id
	}
	if id := GetRequestIDFromContext(c.Request().Context()); id != "" {
		return id
	}
	return requestIDFromHeader(c.Request().Header, DefaultRequestIDConfig.Headers)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type RequestIDConfig struct {
	Skipper   Skipper
	Generator func() string
	// Headers are checked in order for an id set by the caller.
	Headers []string
}

var DefaultRequestIDConfig = RequestIDConfig{
	Generator: uuid.NewString,
	Headers:   []string{XRequestID, XCorrelationID},
}

func RequestID() echo.MiddlewareFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig reuses or generates a request id, echoes it in the
// response header and adds it to every log line written through logctx.
func RequestIDWithConfig(config RequestIDConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.Generator == nil {
		config.Generator = DefaultRequestIDConfig.Generator
	}
	if config.Headers == nil {
		config.Headers = DefaultRequestIDConfig.Headers
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			id := requestIDFromHeader(c.Request().Header, config.Headers)
			if id == "" {
				id = config.Generator()
			}

			ctx := context.WithValue(c.Request().Context(), requestIDKey{}, id)
			ctx = logctx.WithFields(ctx, "request_id", id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(XRequestID, id)
			c.Response().Header().Set(XRequestID, id)
			return next(c)
		}
	}
}

// requestIDFromHeader ignores oversized or multi-line ids so they never reach
// the logs.
func requestIDFromHeader(h http.Header, names []string) string {
	for _, name := range names {
		id := strings.TrimSpace(h.Get(name))
		if id != "" && len(id) <= maxRequestIDLen && !strings.ContainsAny(id, "\r\n") {
			return id
		}
	}
	return ""
}
