// file: internal/server/middleware.go
// version: 1.0.0
// guid: 5e7f9a0b-1c2d-4e3f-9a4b-6c8d0e2f4a6b

package server

import (
	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"

	"github.com/absmeta/metadata-server/internal/metrics"
	"github.com/absmeta/metadata-server/internal/requestctx"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware tags every request with a ULID so log lines from one
// request can be correlated.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ulid.Make().String()
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestContextMiddleware binds the cache-bypass flag to the request
// context once, at the start of handling. Everything downstream, including
// the cache store's read path, inherits it from there.
func requestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		skip := c.Query("cache") == "false"
		if skip {
			metrics.IncCacheBypass()
		}
		ctx := requestctx.WithSkipCache(c.Request.Context(), skip)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
