package loggingmw

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   string
	}{
		{"ok", func(c echo.Context) error {
			logging.FromContext(c.Request().Context()).Info("inside")
			return c.NoContent(http.StatusOK)
		}, http.StatusOK, "INFO"},
		{"client error", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound, "nope")
		}, http.StatusNotFound, "WARN"},
		{"server error", func(c echo.Context) error {
			return errors.New("boom")
		}, http.StatusInternalServerError, "ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.New(slog.NewJSONHandler(&buf, nil))

			e := echo.New()
			e.Use(RequestLogger(base))
			e.GET("/x", tc.handler)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(echo.HeaderXRequestID, "rid-1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			var last map[string]any
			require.NoError(t, json.Unmarshal(lines[len(lines)-1], &last))
			assert.Equal(t, "request completed", last["msg"])
			assert.Equal(t, tc.level, last["level"])
			assert.Equal(t, "rid-1", last["request_id"])
			assert.Equal(t, "/x", last["path"])
			assert.EqualValues(t, tc.status, last["status"])
		})
	}
}
