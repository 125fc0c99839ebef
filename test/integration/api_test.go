package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurelqa/laurel/pkg/appcontext"
	"github.com/laurelqa/laurel/pkg/routes/health"
)

func TestWorkspaceMiddleware(t *testing.T) {
	e := echo.New()
	api := e.Group("/api/v1", appcontext.WorkspaceMiddleware())
	api.GET("/echo-workspace", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"workspace_id": appcontext.GetWorkspaceID(c.Request().Context()),
		})
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/echo-workspace", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("header is propagated into context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/echo-workspace", nil)
		req.Header.Set(appcontext.WorkspaceHeader, "ws-42")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ws-42")
	})
}

func TestHealthEndpoints(t *testing.T) {
	e := echo.New()
	checker := health.NewChecker(nil, nil, "test")
	checker.RegisterRoutes(e)

	t.Run("live is always up", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready until marked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		checker.SetReady(true)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhealthy without a database", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
