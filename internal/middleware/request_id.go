package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jarvisbot/jarvis-gateway/internal/service"
)

// RequestIDHeader 请求 ID 头部
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID 沿用调用方的请求 ID，没有时生成一个
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}

		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Request = c.Request.WithContext(service.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// GetRequestID 取出当前请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
