package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jarvisbot/jarvis-gateway/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()), CORS(allowOrigins))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"requestId": GetRequestID(c),
			"ctxId":     service.RequestIDFromContext(c.Request.Context()),
		})
	})
	r.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allow       []string
		method      string
		path        string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{name: "empty list sends nothing", allow: nil, method: http.MethodGet, path: "/ping", origin: "https://a.example.com", wantStatus: http.StatusOK},
		{name: "allowed origin", allow: []string{"https://a.example.com"}, method: http.MethodGet, path: "/ping", origin: "https://a.example.com", wantStatus: http.StatusOK, wantAllowed: "https://a.example.com"},
		{name: "other origin", allow: []string{"https://a.example.com"}, method: http.MethodGet, path: "/ping", origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "wildcard echoes origin", allow: []string{"*"}, method: http.MethodGet, path: "/ping", origin: "https://b.example.com", wantStatus: http.StatusOK, wantAllowed: "https://b.example.com"},
		{name: "no origin header", allow: []string{"*"}, method: http.MethodGet, path: "/ping", wantStatus: http.StatusOK},
		{name: "preflight allowed", allow: []string{"https://a.example.com"}, method: http.MethodOptions, path: "/chat", origin: "https://a.example.com", preflight: true, wantStatus: http.StatusNoContent, wantAllowed: "https://a.example.com"},
		{name: "preflight rejected", allow: []string{"https://a.example.com"}, method: http.MethodOptions, path: "/chat", origin: "https://evil.example.com", preflight: true, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-API-KEY")
			}
			w := httptest.NewRecorder()
			newRouter(tt.allow).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantAllowed != "" {
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
			if tt.preflight && tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "Content-Type, X-API-KEY", w.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, w.Body.String(), `"requestId":"`+generated+`"`)
	assert.Contains(t, w.Body.String(), `"ctxId":"`+generated+`"`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "caller-id", w.Header().Get(RequestIDHeader))
}

func TestOriginAllowed(t *testing.T) {
	assert.False(t, OriginAllowed(nil, "https://a.example.com"))
	assert.False(t, OriginAllowed([]string{"*"}, ""))
	assert.True(t, OriginAllowed([]string{"https://a.example.com"}, "https://a.example.com"))
}
