package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, role domain.Role) string {
	t.Helper()
	token, err := utils.GenerateJWT("user-1", role, testSecret, time.Minute, "test")
	require.NoError(t, err)
	return "Bearer " + token
}

func newRouter(required domain.Role) *gin.Engine {
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(slog.Default()))
	r.GET("/x", AuthMiddleware(testSecret), RequireRole(required), func(c *gin.Context) {
		userID, _ := GetUserIDFromContext(c)
		role, _ := GetRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": userID, "role": role})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		required domain.Role
		status   int
	}{
		{name: "missing header", header: "", required: domain.RoleViewer, status: http.StatusUnauthorized},
		{name: "bad scheme", header: "Basic abc", required: domain.RoleViewer, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", required: domain.RoleViewer, status: http.StatusUnauthorized},
		{name: "unknown role", header: bearer(t, domain.Role("guest")), required: domain.RoleViewer, status: http.StatusUnauthorized},
		{name: "viewer reads", header: bearer(t, domain.RoleViewer), required: domain.RoleViewer, status: http.StatusOK},
		{name: "viewer cannot write", header: bearer(t, domain.RoleViewer), required: domain.RoleEditor, status: http.StatusForbidden},
		{name: "admin writes", header: bearer(t, domain.RoleAdmin), required: domain.RoleEditor, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.required).ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestAuthMiddleware_StoresCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", bearer(t, domain.RoleEditor))
	w := httptest.NewRecorder()
	newRouter(domain.RoleViewer).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body["user"])
	assert.Equal(t, "editor", body["role"])
}

func TestGetLoggerFromCtx(t *testing.T) {
	assert.Same(t, slog.Default(), GetLoggerFromCtx(context.Background()))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)
	GetLoggerFromCtx(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestStructuredLoggingMiddleware_KeepsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(slog.New(slog.NewJSONHandler(&buf, nil))))
	r.GET("/ping", func(c *gin.Context) {
		GetLoggerFromCtx(c.Request.Context()).Info("inside")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"msg":"inside"`)
}

func TestRateLimit(t *testing.T) {
	lim, err := NewLimiter("2-M")
	require.NoError(t, err)
	r := gin.New()
	r.Use(RateLimit(lim))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	_, err = NewLimiter("nonsense")
	assert.Error(t, err)
}
