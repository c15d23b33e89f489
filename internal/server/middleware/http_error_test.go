package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation",
			err:        models.NewValidationError("Missing required fields"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Missing required fields"}`,
		},
		{
			name:       "forbidden",
			err:        fmt.Errorf("update: %w", &models.AuthorizationError{Action: "update"}),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"You are not authorized to update this product."}`,
		},
		{
			name: "upstream payload is passed through",
			err: &models.RemoteCatalogError{
				Status: http.StatusUnprocessableEntity,
				Body:   json.RawMessage(`{"errors":{"title":["can't be blank"]}}`),
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":{"errors":{"title":["can't be blank"]}}}`,
		},
		{
			name:       "echo error",
			err:        echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"),
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"Method Not Allowed"}`,
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Something went wrong"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

			ErrorHandler(nopLogger{})(tt.err, c)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestErrorHandlerCanceled(t *testing.T) {
	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx), rec)

	ErrorHandler(nopLogger{})(fmt.Errorf("get product: %w", context.Canceled), c)
	assert.Equal(t, StatusClientClosedRequest, rec.Code)
}

func TestErrorHandlerCommitted(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	ErrorHandler(nopLogger{})(fmt.Errorf("late"), c)
	assert.Equal(t, "done", rec.Body.String())
}
