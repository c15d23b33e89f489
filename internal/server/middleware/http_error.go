package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
)

// StatusClientClosedRequest is reported when the caller went away.
const StatusClientClosedRequest = 499

// ErrorHandler renders errors as {"error": ...}. Domain errors choose their
// own status and body; anything unknown becomes a generic 500.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		status, body := models.StatusOf(err)

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			status = he.Code
			body = fmt.Sprint(he.Message)
			if status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
				body = "no route matched"
			}
		case errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled:
			status = StatusClientClosedRequest
		}

		if status >= http.StatusInternalServerError {
			log.Errorw("request failed", "status", status, "error", err.Error(), "request_id", GetRequestID(c))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, &ErrorResponse{Error: body})
		}
		if err != nil {
			log.Errorw("could not response", "code", status, "response_body", body)
		}
	}
}
