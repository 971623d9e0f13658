package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/pkg/metrics"
)

func hit(r *gin.Engine, path, header string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/ok", ""))
	require.Equal(t, http.StatusOK, hit(r, "/ok", ""))
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/limited", ""))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/limited", ""))

	// 2 rps refills one token in 500ms
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit(r, "/limited", ""))
}

func TestRateLimitMiddleware_KeysByUser(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(manager, nil), RateLimitMiddleware(0.001, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := "Bearer " + token(t, "user")
	require.Equal(t, http.StatusOK, hit(r, "/me", alice))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/me", alice))
}
