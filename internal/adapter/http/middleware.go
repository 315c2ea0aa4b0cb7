package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// apiError is an error with the status and code to report to the client.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func newAPIError(status int, code, message string) *apiError {
	return &apiError{Status: status, Code: code, Message: message}
}

func abortWithError(c *gin.Context, err *apiError) {
	_ = c.Error(err)
	c.Abort()
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var apiErr *apiError
		if !errors.As(c.Errors.Last().Err, &apiErr) {
			apiErr = newAPIError(http.StatusInternalServerError, "internal", c.Errors.Last().Error())
		}
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "code", apiErr.Code, "status", apiErr.Status, "path", c.Request.URL.Path, "error", apiErr.Message)
		}

		c.JSON(apiErr.Status, gin.H{
			"error": gin.H{
				"code":    apiErr.Code,
				"message": apiErr.Message,
			},
		})
	}
}
