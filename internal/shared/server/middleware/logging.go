package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"reportcard-analyzer/internal/shared/telemetry"
)

// Context keys handlers set so the request log can correlate submissions.
const (
	SubmissionIDKey = "submissionId"
	GenerationKey   = "generation"
	StatusKey       = "submissionStatus"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		submissionID, _ := c.Get(SubmissionIDKey)
		generation, _ := c.Get(GenerationKey)
		submissionStatus, _ := c.Get(StatusKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            c.Writer.Status(),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"submission_id":     submissionID,
			"generation":        generation,
			"submission_status": submissionStatus,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		})
	}
}
