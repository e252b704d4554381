package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"africoin/internal/logger"
)

const idempotencyTTL = 24 * time.Hour

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the cached response for a repeated
// Idempotency-Key, so a retried request never reaches the engine twice.
func IdempotencyMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		cacheKey := "idempotency:" + key
		if data, err := client.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				logger.Info("idempotency hit", "key", key)
				c.Header("X-Idempotency-Hit", "true")
				c.Data(cached.Status, "application/json", cached.Body)
				c.Abort()
				return
			}
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		// Only successes are cached. A failure can resolve on a later
		// retry (recipient onboards, balance arrives), so replaying a
		// stale 404 or 409 would pin the client to a dead outcome.
		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}

		data, err := json.Marshal(cachedResponse{Status: status, Body: capture.buf.Bytes()})
		if err != nil {
			return
		}
		if err := client.Set(c.Request.Context(), cacheKey, data, idempotencyTTL).Err(); err != nil {
			logger.Error("failed to save idempotency key", "key", key, "error", err)
		}
	}
}
