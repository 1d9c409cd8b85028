package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/henrychris/EventManagement/pkg/logger"
	"github.com/henrychris/EventManagement/pkg/response"
)

// Recovery converts panics into an opaque 500. The endpoint, method, panic
// value, and stack are logged; none of it reaches the client.
func Recovery() gin.HandlerFunc {
	log := logger.Get()

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("panic_type", fmt.Sprintf("%T", r)),
					zap.Any("panic_value", r),
					zap.String("request_id", GetRequestID(c)),
					zap.ByteString("stack", debug.Stack()),
				)

				response.InternalError(c)
				c.Abort()
			}
		}()

		c.Next()
	}
}
