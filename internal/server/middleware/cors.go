package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sivira/snsdm/internal/config"
)

// CORS 按允许名单处理跨域请求。通配符 "*" 允许任意来源，但与
// credentials 不兼容，此时 credentials 被禁用。
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	origins := normalizeOrigins(cfg.AllowedOrigins)
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
			break
		}
	}
	allowCredentials := cfg.AllowCredentials && !wildcard

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		allowed := wildcard
		if !allowed {
			for _, o := range origins {
				if o == origin {
					allowed = true
					break
				}
			}
		}

		if !allowed {
			// 不允许的来源不返回任何 CORS 头；preflight 直接拒绝
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		if wildcard {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		if allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// normalizeOrigins 去掉空白项并修剪空格。
func normalizeOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
