package helpers

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Success: false,
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithInternalError reports err to sentry before answering with a 5xx.
func RespondWithInternalError(c *gin.Context, statusCode int, err error, customMessage string) {
	if hub := sentry.CurrentHub(); hub != nil && err != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("path", c.FullPath())
			if reqID, ok := c.Get("request_id"); ok {
				scope.SetTag("reqID", reqID.(string))
			}
			hub.CaptureException(err)
		})
	}
	RespondWithError(c, statusCode, customMessage)
}
