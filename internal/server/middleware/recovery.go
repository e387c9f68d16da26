package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/logger"
	"github.com/sivira/snsdm/internal/pkg/response"
)

// Recovery 捕获 handler panic，记录堆栈并返回统一 500 响应。
// 响应体已写出时不覆盖，只终止请求。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				fmt.Fprintf(gin.DefaultErrorWriter, "[Recovery] panic recovered: %v\n%s\n", r, stack)
				logger.L().With(
					zap.String("component", "middleware.recovery"),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
				).Error("panic recovered")

				if !c.Writer.Written() {
					response.Error(c, http.StatusInternalServerError, infraerrors.UnknownMessage)
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
