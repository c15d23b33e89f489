package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name string `json:"name" validate:"required,notblank"`
}

type echoResponse struct {
	Hello string `json:"hello"`
}

type acceptedResponse struct {
	ID string `json:"id"`
}

func (acceptedResponse) StatusCode() int { return http.StatusAccepted }

func serveWrapped(t *testing.T, f interface{}, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(nopLogger{})
	e.POST("/", WrapHandler(f))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWrapHandler(t *testing.T) {
	t.Run("json response", func(t *testing.T) {
		rec := serveWrapped(t, func(c echo.Context, req echoRequest) (*echoResponse, error) {
			return &echoResponse{Hello: req.Name}, nil
		}, `{"name":"shop"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"hello":"shop"}`, rec.Body.String())
	})

	t.Run("status coder", func(t *testing.T) {
		rec := serveWrapped(t, func(c echo.Context, req echoRequest) (acceptedResponse, error) {
			return acceptedResponse{ID: "1"}, nil
		}, `{"name":"shop"}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
	})

	t.Run("error only", func(t *testing.T) {
		rec := serveWrapped(t, func(c echo.Context, req echoRequest) error {
			return nil
		}, `{"name":"shop"}`)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("handler error goes through error handler", func(t *testing.T) {
		rec := serveWrapped(t, func(c echo.Context, req echoRequest) (*echoResponse, error) {
			return nil, &models.AuthorizationError{Action: "update", ProductID: 1, CallerID: "b@x.com"}
		}, `{"name":"shop"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"You are not authorized to update this product."}`, rec.Body.String())
	})

	t.Run("validation", func(t *testing.T) {
		called := false
		rec := serveWrapped(t, func(c echo.Context, req echoRequest) error {
			called = true
			return errors.New("unreachable")
		}, `{"name":"   "}`)
		assert.False(t, called)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid fields: name"}`, rec.Body.String())
	})
}

func TestWrapHandlerRejectsBadSignatures(t *testing.T) {
	bad := []interface{}{
		"not a func",
		func(c echo.Context) error { return nil },
		func(c echo.Context, req string) error { return nil },
		func(c echo.Context, req echoRequest) {},
		func(c echo.Context, req echoRequest) (error, *echoResponse) { return nil, nil },
	}
	for _, f := range bad {
		_, err := wrapHandler(f)
		require.Error(t, err)
	}
	assert.Panics(t, func() { WrapHandler(1) })
}
