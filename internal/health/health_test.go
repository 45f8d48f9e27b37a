package health

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCheckerReadiness(t *testing.T) {
	t.Run("ready when store dir is writable", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "rate_limit.json")
		checker := NewChecker(storePath, "", zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		checker.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready when store dir is missing", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "missing", "rate_limit.json")
		checker := NewChecker(storePath, "", zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		checker.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("liveness is independent of readiness", func(t *testing.T) {
		storePath := filepath.Join(t.TempDir(), "missing", "rate_limit.json")
		checker := NewChecker(storePath, "", zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/live", nil)
		w := httptest.NewRecorder()
		checker.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
