package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/smartwork/assistant/internal/pkg/redis"
	"github.com/smartwork/assistant/internal/pkg/response"
	"go.uber.org/zap"
)

const rateLimitWindow = time.Second

// RateLimit caps anonymous requests per client IP per one-second window.
// A nil client disables the limit; Redis errors let the request through.
func RateLimit(rc *pkgredis.Client, max int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc == nil || max <= 0 || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("sw:rate_limit:%s:%d", ip, time.Now().Unix())
		count, err := rc.IncrWindow(c.Request.Context(), key, rateLimitWindow+time.Second)
		if err != nil {
			c.Next()
			return
		}

		if count > int64(max) {
			if log != nil {
				log.Warn("rate limited", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			}
			response.TooManyRequests(c)
			return
		}

		c.Next()
	}
}
