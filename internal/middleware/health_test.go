package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HealthHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
	})

	t.Run("failing checker", func(t *testing.T) {
		checkers := map[string]HealthChecker{
			"database": CheckerFunc(func(context.Context) error { return errors.New("connection refused") }),
			"storage":  CheckerFunc(func(context.Context) error { return nil }),
		}
		rec := httptest.NewRecorder()
		HealthHandler(checkers)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "connection refused", body.Checks["database"].Message)
		assert.Equal(t, "healthy", body.Checks["storage"].Status)
	})
}
