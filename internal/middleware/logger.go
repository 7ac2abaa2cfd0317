package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request and tags it with a request id,
// reusing the caller's X-Request-ID when present.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if userID, ok := UserID(c); ok {
			fields["user_id"] = userID
		}
		entry := logger.WithFields(fields)

		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed")
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
