package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OriginAllowed 判断 Origin 是否在白名单中，"*" 表示全部放行
func OriginAllowed(allowOrigins []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range allowOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// CORS 跨域中间件，白名单为空时不输出任何 CORS 头部
func CORS(allowOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		preflight := c.Request.Method == http.MethodOptions &&
			c.Request.Header.Get("Access-Control-Request-Method") != ""

		if !OriginAllowed(allowOrigins, origin) {
			if preflight && origin != "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		// 设置 CORS 头部
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		// OPTIONS 预检请求
		if preflight {
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
			if reqHeaders := c.Request.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
