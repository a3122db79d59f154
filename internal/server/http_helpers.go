package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// requestLogger logs one line per request once the handler has finished.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

func userIDFromQuery(c *gin.Context) string {
	return strings.TrimSpace(c.Query("user_id"))
}

func roomIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("roomID"))
}
