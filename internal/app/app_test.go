package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todoboard/internal/config"

	_ "todoboard/docs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		App:     config.AppConfig{Env: "test", Version: "1.2.3", Timezone: "UTC"},
		Storage: config.StorageConfig{Driver: config.DriverMemory},
	}
	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(t.Context()) })
	return a
}

func TestServiceRoutes(t *testing.T) {
	r := newMemoryApp(t).Router()

	for path, want := range map[string]string{
		"/":                 `"api":"/api/v1"`,
		"/health":           `"ok":true`,
		"/version":          `"version":"1.2.3"`,
		"/swagger-doc.json": `"/todos/bulk-action"`,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger-doc.json", nil))
	assert.True(t, json.Valid(rec.Body.Bytes()), "openapi document is valid JSON")
}

func TestTodoRoutesWired(t *testing.T) {
	r := newMemoryApp(t).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/todos", strings.NewReader(`{"title":"Ship it","priority":"high"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/todos/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":1,"completed":0,"pending":1,"overdue":0,"due_today":0,"high_priority":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `todo_mutations_total{op="create",outcome="ok"}`)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="POST",route="/api/v1/todos",status="201"}`)
}
