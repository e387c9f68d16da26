package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sivira/snsdm/internal/service"
)

// ContextKeyUserID 存放已认证调用者的用户 ID。
const ContextKeyUserID = "auth_user_id"

// ErrorResponse 是认证中间件的错误响应体。
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewJWTAuthMiddleware 创建 Bearer Token 认证中间件。
// 认证失败直接 401 终止，任何业务逻辑不会执行。
func NewJWTAuthMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "INVALID_AUTH_HEADER", "authorization header must be 'Bearer {token}'")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			abortUnauthorized(c, "EMPTY_TOKEN", "bearer token is empty")
			return
		}

		userID, err := authSvc.VerifyToken(token)
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "invalid or expired token")
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserIDFromContext 读取已认证的用户 ID。
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: code, Message: message})
}
