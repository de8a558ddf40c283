package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/todos/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	ok := HTTPRequests.WithLabelValues("GET", "/todos/:id", "404")
	unmatched := HTTPRequests.WithLabelValues("GET", "unmatched", "404")
	before, beforeUnmatched := testutil.ToFloat64(ok), testutil.ToFloat64(unmatched)

	for _, path := range []string{"/todos/1", "/todos/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(ok))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}
