package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/smartwork/assistant/internal/pkg/redis"
	"github.com/smartwork/assistant/internal/pkg/response"
)

const (
	IdempotenceHeader = "X-Idempotency-Key"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence rejects a repeated write that carries the same
// X-Idempotency-Key within a minute. Requests without the header, and all
// requests when rc is nil, pass through.
func Idempotence(rc *pkgredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc == nil || !isWrite(c.Request.Method) {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(IdempotenceHeader))
		if key == "" {
			c.Next()
			return
		}

		redisKey := fmt.Sprintf("sw:idempotence:%s:%s", CurrentUserID(c), key)
		ctx := c.Request.Context()

		acquired, err := rc.SetNX(ctx, redisKey, "0", idempotenceTTL)
		if err != nil {
			c.Next()
			return
		}
		if !acquired {
			msg := "Request already succeeded"
			if val, found, _ := rc.Get(ctx, redisKey); found && string(val) == "0" {
				msg = "Request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = rc.Replace(ctx, redisKey, "1")
		} else {
			_ = rc.Del(ctx, redisKey)
		}
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
