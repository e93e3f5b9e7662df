package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/primoscope/echotune/internal/logger"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation ID on both request and response.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with a correlation ID so engine log
// lines can be tied back to the HTTP call that caused them. A caller-supplied
// header is honored only when it parses as a UUID; anything else is replaced
// so the request_id log field stays well-formed.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		logger.Log.Debug("request started",
			logger.WithRequestID(requestID),
			logger.WithIP(c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		// Completion is logged with full latency/status detail by the
		// request logger, so there is no end-of-request line here.
		c.Next()
	}
}
