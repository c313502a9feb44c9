package middleware

import (
	"net/http"
	"net/http/httptest"
	"storefront/internal/pkg/config"
	"storefront/pkg/metrics"
	"storefront/pkg/utils"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	config.GlobalConfig.JWT.Secret = strings.Repeat("m", 32)
	config.GlobalConfig.JWT.Expire = 1

	r := gin.New()
	r.Use(LoggerMiddleware(zap.NewNop()), MetricsMiddleware(metrics.NewMetricsCollector(prometheus.NewRegistry())))
	auth := r.Group("/", AuthMiddleware())
	auth.GET("/me", func(c *gin.Context) {
		uid, _ := CurrentUserID(c)
		c.String(http.StatusOK, uid)
	})
	auth.GET("/admin", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := utils.GenerateToken("user-7", utils.RoleCustomer)
	require.NoError(t, err)
	w = do(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-7", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAdminMiddleware(t *testing.T) {
	r := newRouter()

	customer, _, _ := utils.GenerateToken("user-1", utils.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", customer).Code)

	admin, _, _ := utils.GenerateToken("staff-1", utils.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}

func TestLoggerMiddleware_KeepsIncomingRequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewIPRateLimiter(1, 2)))
	r.GET("/checkout", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(r, "/checkout", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(ContextUserID, uid)
		}
	})
	r.Use(RateLimitMiddleware(NewIPRateLimiter(1, 1)))
	r.GET("/checkout", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/checkout", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("user-1"))
	// 同一 IP 的另一个用户不受影响
	assert.Equal(t, http.StatusOK, send("user-2"))
}
