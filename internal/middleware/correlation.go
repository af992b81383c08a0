package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard/taskboard/pkg/logger"
)

const (
	correlationHeader = "X-Correlation-Id"
	correlationKey    = "correlation_id"
)

// CorrelationID takes the caller's X-Correlation-Id or generates one, stores
// it on the context, echoes it in the response and threads it into the
// request logger.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(correlationKey, id)
		c.Header(correlationHeader, id)
		c.Request = c.Request.WithContext(logger.WithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation id, if any.
func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Get(correlationKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
