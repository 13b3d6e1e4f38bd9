package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestRecorder receives request and error counts
type RequestRecorder interface {
	RecordRequest()
	RecordError()
}

// RequestMetrics counts every request before routing.
// With countServerErrors set, responses with status >= 500 also count as errors.
func RequestMetrics(recorder RequestRecorder, countServerErrors bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		recorder.RecordRequest()

		c.Next()

		if countServerErrors && c.Writer.Status() >= http.StatusInternalServerError {
			recorder.RecordError()
		}
	}
}
